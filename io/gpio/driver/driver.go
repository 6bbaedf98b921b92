// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver contains interfaces that needs to be implemented by
// various GPIO implementations.
package driver // import "github.com/piio/piio/io/gpio/driver"

// Opener is an interface to be implemented by GPIO drivers.
type Opener interface {
	// Open claims the pin. It fails if the pin is claimed already.
	Open(pin int) (Conn, error)
}

// Conn represents a claimed GPIO pin.
type Conn interface {
	// Value returns the value of the pin. 0 for low values, 1 for high.
	Value() (int, error)

	// SetValue sets the value of the pin. 0 for low values, 1 for high.
	SetValue(v int) error

	// SetDirection sets the direction of the pin. It could be either "in" or "out".
	SetDirection(dir string) error

	// Close releases the pin.
	Close() error
}
