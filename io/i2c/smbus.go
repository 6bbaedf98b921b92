// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package i2c

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/xerrors"
)

const (
	smbusRead  = 1
	smbusWrite = 0

	smbusQuick          = 0
	smbusByte           = 1
	smbusByteData       = 2
	smbusWordData       = 3
	smbusProcCall       = 4
	smbusBlockData      = 5
	smbusI2CBlockBroken = 6
	smbusBlockProcCall  = 7
	smbusI2CBlockData   = 8

	// BlockMax is the largest SMBus block payload.
	BlockMax = 32
)

// smbusData mirrors union i2c_smbus_data: a byte, a word, or a length
// prefixed block with room for a PEC byte.
type smbusData [BlockMax + 2]byte

func (d *smbusData) word() uint16 {
	return binary.NativeEndian.Uint16(d[:2])
}

func (d *smbusData) setWord(v uint16) {
	binary.NativeEndian.PutUint16(d[:2], v)
}

// block returns the payload of a length prefixed block.
func (d *smbusData) block() ([]byte, error) {
	n := int(d[0])
	if n > BlockMax {
		return nil, xerrors.Errorf("i2c: device returned a %d byte block: %w", n, ErrBlockTooLarge)
	}
	return d[1 : 1+n], nil
}

func (d *smbusData) setBlock(p []byte) error {
	if len(p) > BlockMax {
		return xerrors.Errorf("i2c: %d byte block: %w", len(p), ErrBlockTooLarge)
	}
	d[0] = byte(len(p))
	copy(d[1:], p)
	return nil
}

// smbusIoctlData mirrors struct i2c_smbus_ioctl_data.
type smbusIoctlData struct {
	readWrite uint8
	command   uint8
	size      uint32
	data      *smbusData
}

// ReadWrite is the direction bit sent by WriteQuick.
type ReadWrite uint8

const (
	QuickWrite ReadWrite = smbusWrite
	QuickRead  ReadWrite = smbusRead
)

func (b *Bus) smbus(rw uint8, cmd uint8, size uint32, data *smbusData) error {
	if b.closed {
		return ErrClosed
	}
	args := smbusIoctlData{readWrite: rw, command: cmd, size: size, data: data}
	return b.ioctlPtr("I2C_SMBUS", i2cSMBus, unsafe.Pointer(&args))
}

// WriteQuick sends only the direction bit. It is mostly used to detect
// devices on the bus.
func (b *Bus) WriteQuick(rw ReadWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.smbus(uint8(rw), 0, smbusQuick, nil)
}

// ReadByte reads a byte without sending a command.
func (b *Bus) ReadByte() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	if err := b.smbus(smbusRead, 0, smbusByte, &d); err != nil {
		return 0, err
	}
	return d[0], nil
}

// WriteByte writes a single byte in the command position.
func (b *Bus) WriteByte(v byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.smbus(smbusWrite, v, smbusByte, nil)
}

// ReadByteData reads the byte register cmd.
func (b *Bus) ReadByteData(cmd byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	if err := b.smbus(smbusRead, cmd, smbusByteData, &d); err != nil {
		return 0, err
	}
	return d[0], nil
}

// WriteByteData writes v to the byte register cmd.
func (b *Bus) WriteByteData(cmd, v byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	d[0] = v
	return b.smbus(smbusWrite, cmd, smbusByteData, &d)
}

// ReadWordData reads the word register cmd.
func (b *Bus) ReadWordData(cmd byte) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	if err := b.smbus(smbusRead, cmd, smbusWordData, &d); err != nil {
		return 0, err
	}
	return d.word(), nil
}

// WriteWordData writes v to the word register cmd.
func (b *Bus) WriteWordData(cmd byte, v uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	d.setWord(v)
	return b.smbus(smbusWrite, cmd, smbusWordData, &d)
}

// ProcessCall writes v to register cmd and reads a word back in the same
// transaction.
func (b *Bus) ProcessCall(cmd byte, v uint16) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	d.setWord(v)
	if err := b.smbus(smbusWrite, cmd, smbusProcCall, &d); err != nil {
		return 0, err
	}
	return d.word(), nil
}

// ReadBlockData reads an SMBus block from register cmd into p. The
// device decides the length; bytes that do not fit in p are dropped.
// It returns the number of bytes copied.
func (b *Bus) ReadBlockData(cmd byte, p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	if err := b.smbus(smbusRead, cmd, smbusBlockData, &d); err != nil {
		return 0, err
	}
	blk, err := d.block()
	if err != nil {
		return 0, err
	}
	return copy(p, blk), nil
}

// WriteBlockData writes p, at most BlockMax bytes, as an SMBus block to
// register cmd.
func (b *Bus) WriteBlockData(cmd byte, p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	if err := d.setBlock(p); err != nil {
		return err
	}
	return b.smbus(smbusWrite, cmd, smbusBlockData, &d)
}

// BlockProcessCall writes w as a block to register cmd and reads a block
// back into r in the same transaction. It returns the number of bytes
// copied into r.
func (b *Bus) BlockProcessCall(cmd byte, w, r []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	if err := d.setBlock(w); err != nil {
		return 0, err
	}
	if err := b.smbus(smbusWrite, cmd, smbusBlockProcCall, &d); err != nil {
		return 0, err
	}
	blk, err := d.block()
	if err != nil {
		return 0, err
	}
	return copy(r, blk), nil
}

// ReadI2CBlockData reads len(p) bytes, at most BlockMax, starting at
// register cmd. Unlike ReadBlockData the length is chosen by the caller.
// An empty p reads nothing and does not touch the bus.
func (b *Bus) ReadI2CBlockData(cmd byte, p []byte) (int, error) {
	if len(p) > BlockMax {
		return 0, xerrors.Errorf("i2c: %d byte block: %w", len(p), ErrBlockTooLarge)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(p) == 0 {
		// The kernel rejects empty I2C block reads with EINVAL.
		if b.closed {
			return 0, ErrClosed
		}
		return 0, nil
	}
	var d smbusData
	d[0] = byte(len(p))
	size := uint32(smbusI2CBlockData)
	if len(p) == BlockMax {
		size = smbusI2CBlockBroken
	}
	if err := b.smbus(smbusRead, cmd, size, &d); err != nil {
		return 0, err
	}
	blk, err := d.block()
	if err != nil {
		return 0, err
	}
	return copy(p, blk), nil
}

// WriteI2CBlockData writes p, at most BlockMax bytes, starting at
// register cmd, without a length prefix on the wire.
func (b *Bus) WriteI2CBlockData(cmd byte, p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var d smbusData
	if err := d.setBlock(p); err != nil {
		return err
	}
	return b.smbus(smbusWrite, cmd, smbusI2CBlockBroken, &d)
}
