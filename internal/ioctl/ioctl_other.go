// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package ioctl

import (
	"unsafe"

	"golang.org/x/xerrors"
)

// ErrUnsupported is returned by Int and Ptr on platforms without
// Linux device ioctls.
var ErrUnsupported = xerrors.New("ioctl: unsupported platform")

func Int(fd, req, arg uintptr) error {
	return ErrUnsupported
}

func Ptr(fd, req uintptr, arg unsafe.Pointer) error {
	return ErrUnsupported
}
