// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver contains interfaces to be implemented by various SPI implementations.
package driver // import "github.com/piio/piio/io/spi/driver"

import "time"

// Opener is implemented by an SPI driver to open a connection to the SPI
// device with the specified bus and chip number.
type Opener interface {
	Open(bus, chip int) (Conn, error)
}

// Conn is a connection to an SPI device.
type Conn interface {
	// Configure configures the SPI mode, bits per word and max clock
	// speed to be used. A negative value leaves the setting unchanged.
	Configure(mode, bits, speedHz int) error

	// Transfer clocks out tx while reading into rx. Either may be nil;
	// if both are set they must be the same length.
	Transfer(tx, rx []byte, delay time.Duration) error

	// Read is a half-duplex read; the bytes clocked out are zero.
	Read(p []byte) (int, error)

	// Write is a half-duplex write; the bytes clocked in are dropped.
	Write(p []byte) (int, error)

	// Close frees the underlying resources and closes the connection.
	Close() error
}

// Flusher is implemented by connections that buffer half-duplex writes.
type Flusher interface {
	Flush() error
}
