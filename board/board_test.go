// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const cpuinfo3B = `processor	: 0
model name	: ARMv7 Processor rev 4 (v7l)
BogoMIPS	: 38.40
Features	: half thumb fastmult vfp edsp neon vfpv3 tls vfpv4 idiva idivt vfpd32 lpae evtstrm crc32
CPU implementer	: 0x41

Hardware	: BCM2835
Revision	: a02082
Serial		: 00000000deadbeef
`

func TestParse(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want Info
	}{
		{"3B Sony UK", cpuinfo3B, Info{MB1024, SonyUK, BCM2837, B3, 2, 0xa02082}},
		{"3B Embest", "Revision\t: a22082\n", Info{MB1024, Embest, BCM2837, B3, 2, 0xa22082}},
		{"Zero W", "Revision\t: 9000c1\n", Info{MB512, SonyUK, BCM2835, ZeroW, 1, 0x9000c1}},
		{"2B", "Revision\t: a01041\n", Info{MB1024, SonyUK, BCM2836, B2, 1, 0xa01041}},
		{"CM3", "Revision : a020a0\n", Info{MB1024, SonyUK, BCM2837, CM3, 0, 0xa020a0}},
		{"last line wins", "Revision : 0002\nRevision : 900092\n", Info{MB512, SonyUK, BCM2835, Zero, 2, 0x900092}},
	}
	for _, tt := range tc {
		got, err := Parse(strings.NewReader(tt.in))
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want, +got):\n%s", tt.name, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want error
	}{
		{"missing", "processor : 0\n", ErrNoRevision},
		{"old style", "Revision : 000e\n", ErrOldRevision},
		{"memory", "Revision : e02082\n", ErrUnknownField},
		{"manufacturer", "Revision : a52082\n", ErrUnknownField},
		{"processor", "Revision : a03082\n", ErrUnknownField},
		{"type", "Revision : a02072\n", ErrUnknownField},
	}
	for _, tt := range tc {
		if _, err := Parse(strings.NewReader(tt.in)); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v; want %v", tt.name, err, tt.want)
		}
	}
	if _, err := Parse(strings.NewReader("Revision : xyz\n")); err == nil {
		t.Error("non-hex revision parsed")
	}
}

func TestReadInfoFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpuinfo")
	if err := os.WriteFile(path, []byte(cpuinfo3B), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := ReadInfoFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := info.String(), "Raspberry Pi B3 rev 1.2, BCM2837, 1024MB, made by SonyUK"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	if _, err := ReadInfoFrom(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ReadInfoFrom of a missing file succeeded")
	}
}

func TestReadInfo(t *testing.T) {
	defer func(f func() map[string]string) { cpuInfo = f }(cpuInfo)

	cpuInfo = func() map[string]string {
		return map[string]string{"Hardware": "BCM2835", "Revision": "a22082"}
	}
	info, err := ReadInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Manufacturer != Embest || info.Type != B3 {
		t.Errorf("ReadInfo() = %v", info)
	}

	cpuInfo = func() map[string]string { return map[string]string{} }
	if _, err := ReadInfo(); !errors.Is(err, ErrNoRevision) {
		t.Errorf("ReadInfo without Revision = %v; want ErrNoRevision", err)
	}
}

func TestStrings(t *testing.T) {
	tc := []struct {
		got, want string
	}{
		{MB256.String(), "256MB"},
		{MB1024.String(), "1024MB"},
		{SonyJapan.String(), "SonyJapan"},
		{BCM2836.String(), "BCM2836"},
		{ZeroW.String(), "ZeroW"},
		{Type(7).String(), "Type(7)"},
		{Processor(9).String(), "Processor(9)"},
	}
	for _, tt := range tc {
		if tt.got != tt.want {
			t.Errorf("got %q; want %q", tt.got, tt.want)
		}
	}
}
