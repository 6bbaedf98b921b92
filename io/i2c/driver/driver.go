// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver contains interfaces to be implemented by various I2C implementations.
package driver // import "github.com/piio/piio/io/i2c/driver"

import (
	"io"
	"unsafe"
)

// Opener opens a connection to an I2C adapter.
type Opener interface {
	Open(bus int) (Conn, error)
}

// Conn is a connection to an I2C adapter speaking the i2c-dev
// protocol. Read and Write talk to the currently selected slave.
type Conn interface {
	io.ReadWriteCloser

	// Ioctl issues a request whose argument is passed by value.
	Ioctl(req, arg uintptr) error

	// IoctlPtr issues a request whose argument points to memory the
	// adapter reads or fills.
	IoctlPtr(req uintptr, arg unsafe.Pointer) error
}
