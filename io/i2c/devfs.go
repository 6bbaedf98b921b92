// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package i2c

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/piio/piio/internal/ioctl"
	"github.com/piio/piio/io/i2c/driver"
)

// Devfs is an I2C driver that works against the devfs.
// You need to load the "i2c-dev" kernel module to use this driver.
type Devfs struct {
	// Dir is the directory holding the i2c-N nodes. Given the zero
	// value, /dev is used.
	Dir string
}

var _ driver.Opener = (*Devfs)(nil)

// Open opens /dev/i2c-<bus>.
func (d *Devfs) Open(bus int) (driver.Conn, error) {
	dir := d.Dir
	if dir == "" {
		dir = "/dev"
	}
	f, err := os.OpenFile(filepath.Join(dir, fmt.Sprintf("i2c-%d", bus)), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &devfsConn{f: f}, nil
}

type devfsConn struct {
	f *os.File
}

func (c *devfsConn) Read(buf []byte) (int, error) {
	return c.f.Read(buf)
}

func (c *devfsConn) Write(buf []byte) (int, error) {
	return c.f.Write(buf)
}

func (c *devfsConn) Close() error {
	return c.f.Close()
}

func (c *devfsConn) Ioctl(req, arg uintptr) error {
	return ioctl.Int(c.f.Fd(), req, arg)
}

func (c *devfsConn) IoctlPtr(req uintptr, arg unsafe.Pointer) error {
	return ioctl.Ptr(c.f.Fd(), req, arg)
}
