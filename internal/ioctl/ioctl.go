// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ioctl encodes Linux ioctl request numbers and issues ioctl calls
// against open device files.
package ioctl

// Request number layout, as in asm-generic/ioctl.h.
const (
	nrbits   = 8
	typebits = 8
	sizebits = 14
	dirbits  = 2

	nrshift   = 0
	typeshift = nrshift + nrbits
	sizeshift = typeshift + typebits
	dirshift  = sizeshift + sizebits
)

// Transfer directions.
const (
	None  = 0
	Write = 1
	Read  = 2
)

// IOC builds a request number from its direction, type, number and
// argument size.
func IOC(dir, typ, nr, size uintptr) uintptr {
	return (dir << dirshift) | (typ << typeshift) | (nr << nrshift) | (size << sizeshift)
}

// IOW is IOC(Write, ...).
func IOW(typ, nr, size uintptr) uintptr {
	return IOC(Write, typ, nr, size)
}

// IOR is IOC(Read, ...).
func IOR(typ, nr, size uintptr) uintptr {
	return IOC(Read, typ, nr, size)
}
