// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ioctl

import "testing"

func TestRequestNumbers(t *testing.T) {
	tc := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"SPI_IOC_MESSAGE(1)", IOW('k', 0, 32), 0x40206B00},
		{"SPI_IOC_WR_MODE", IOW('k', 1, 1), 0x40016B01},
		{"SPI_IOC_WR_LSB_FIRST", IOW('k', 2, 1), 0x40016B02},
		{"SPI_IOC_WR_BITS_PER_WORD", IOW('k', 3, 1), 0x40016B03},
		{"SPI_IOC_WR_MAX_SPEED_HZ", IOW('k', 4, 4), 0x40046B04},
		{"SPI_IOC_RD_MODE", IOR('k', 1, 1), 0x80016B01},
		{"SPI_IOC_RD_MAX_SPEED_HZ", IOR('k', 4, 4), 0x80046B04},
		{"_IO", IOC(None, 'k', 7, 0), 0x6B07},
	}
	for _, tt := range tc {
		if tt.got != tt.want {
			t.Errorf("%s = %#x; want %#x", tt.name, tt.got, tt.want)
		}
	}
}
