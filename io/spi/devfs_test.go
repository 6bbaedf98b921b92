// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spi

import (
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

type ioctlCall struct {
	Req uintptr
	Val uint32
}

// recordingConn returns a devfsConn whose ioctls are recorded instead of
// reaching a device.
func recordingConn(calls *[]ioctlCall, payloads *[]payload) *devfsConn {
	return &devfsConn{do: func(req uintptr, arg unsafe.Pointer) error {
		switch req {
		case iocWrMode, iocWrLSBFirst, iocWrBitsPerWord:
			*calls = append(*calls, ioctlCall{req, uint32(*(*uint8)(arg))})
		case iocWrMaxSpeedHz:
			*calls = append(*calls, ioctlCall{req, *(*uint32)(arg)})
		case iocMessage1:
			*calls = append(*calls, ioctlCall{req, 0})
			*payloads = append(*payloads, *(*payload)(arg))
		default:
			return errors.New("unexpected request")
		}
		return nil
	}}
}

func TestPayloadLayout(t *testing.T) {
	var p payload
	if got := unsafe.Sizeof(p); got != 32 {
		t.Fatalf("sizeof(payload) = %d; want 32", got)
	}
	tc := []struct {
		field     string
		got, want uintptr
	}{
		{"tx", unsafe.Offsetof(p.tx), 0},
		{"rx", unsafe.Offsetof(p.rx), 8},
		{"length", unsafe.Offsetof(p.length), 16},
		{"speedHz", unsafe.Offsetof(p.speedHz), 20},
		{"delay", unsafe.Offsetof(p.delay), 24},
		{"bitsPerWord", unsafe.Offsetof(p.bitsPerWord), 26},
		{"csChange", unsafe.Offsetof(p.csChange), 27},
		{"txNBits", unsafe.Offsetof(p.txNBits), 28},
		{"rxNBits", unsafe.Offsetof(p.rxNBits), 29},
		{"wordDelay", unsafe.Offsetof(p.wordDelay), 30},
	}
	for _, tt := range tc {
		if tt.got != tt.want {
			t.Errorf("offset of %s = %d; want %d", tt.field, tt.got, tt.want)
		}
	}
}

func TestDevfsConfigure(t *testing.T) {
	var calls []ioctlCall
	var payloads []payload
	c := recordingConn(&calls, &payloads)

	if err := c.Configure(3, 8, 976_001); err != nil {
		t.Fatal(err)
	}
	want := []ioctlCall{
		{iocWrMode, 3},
		{iocWrLSBFirst, 0},
		{iocWrBitsPerWord, 8},
		{iocWrMaxSpeedHz, 976_001},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("ioctl calls mismatch (-want, +got):\n%s", diff)
	}

	calls = nil
	if err := c.Configure(-1, -1, 500_000); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]ioctlCall{{iocWrMaxSpeedHz, 500_000}}, calls); diff != "" {
		t.Errorf("speed-only Configure mismatch (-want, +got):\n%s", diff)
	}
	if c.mode != 3 || c.bitsPerWord != 8 || c.speedHz != 500_000 {
		t.Errorf("conn state = mode %d, bits %d, speed %d", c.mode, c.bitsPerWord, c.speedHz)
	}
}

func TestDevfsConfigureError(t *testing.T) {
	errInval := errors.New("EINVAL")
	c := &devfsConn{do: func(uintptr, unsafe.Pointer) error { return errInval }}
	if err := c.Configure(0, 8, 1000); !errors.Is(err, errInval) {
		t.Errorf("Configure = %v; want %v", err, errInval)
	}
}

func TestDevfsTransfer(t *testing.T) {
	var calls []ioctlCall
	var payloads []payload
	c := recordingConn(&calls, &payloads)
	if err := c.Configure(0, 8, 7_800_001); err != nil {
		t.Fatal(err)
	}

	tx := []byte{1, 2, 3}
	rx := make([]byte, 3)
	if err := c.Transfer(tx, rx, 10*time.Microsecond); err != nil {
		t.Fatal(err)
	}
	if len(payloads) != 1 {
		t.Fatalf("got %d transfers; want 1", len(payloads))
	}
	p := payloads[0]
	if p.tx != uint64(uintptr(unsafe.Pointer(&tx[0]))) || p.rx != uint64(uintptr(unsafe.Pointer(&rx[0]))) {
		t.Error("payload does not point at the caller's buffers")
	}
	if p.length != 3 || p.speedHz != 7_800_001 || p.delay != 10 || p.bitsPerWord != 8 {
		t.Errorf("payload = len %d, speed %d, delay %d, bits %d", p.length, p.speedHz, p.delay, p.bitsPerWord)
	}

	if err := c.Transfer([]byte{1}, nil, 0); err != nil {
		t.Fatal(err)
	}
	if p := payloads[1]; p.rx != 0 || p.length != 1 {
		t.Errorf("write-only payload = rx %#x, len %d", p.rx, p.length)
	}

	n := len(payloads)
	if err := c.Transfer([]byte{1, 2}, make([]byte, 3), 0); err == nil {
		t.Error("Transfer with mismatched lengths succeeded")
	}
	if err := c.Transfer(nil, nil, 0); err != nil {
		t.Errorf("empty Transfer = %v", err)
	}
	if len(payloads) != n {
		t.Error("rejected or empty Transfer reached the device")
	}
}

//go:noinline
func deepStack(n int) byte {
	var pad [128]byte
	pad[n%len(pad)] = byte(n)
	if n == 0 {
		return pad[0]
	}
	return deepStack(n-1) + pad[n%len(pad)]
}

func TestDevfsTransferStackBuffers(t *testing.T) {
	var got payload
	c := &devfsConn{do: func(req uintptr, arg unsafe.Pointer) error {
		deepStack(1 << 12)
		got = *(*payload)(arg)
		return nil
	}}
	tx := [4]byte{1, 2, 3, 4}
	var rx [4]byte
	if err := c.Transfer(tx[:], rx[:], 0); err != nil {
		t.Fatal(err)
	}
	if got.tx != uint64(uintptr(unsafe.Pointer(&tx[0]))) {
		t.Error("tx buffer moved while the transfer was in flight")
	}
	if got.rx != uint64(uintptr(unsafe.Pointer(&rx[0]))) {
		t.Error("rx buffer moved while the transfer was in flight")
	}
}
