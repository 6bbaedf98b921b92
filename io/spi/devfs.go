// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spi

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
	"unsafe"

	"github.com/piio/piio/internal/ioctl"
	"github.com/piio/piio/io/spi/driver"
	"golang.org/x/xerrors"
)

const magic = 'k'

var (
	iocMessage1      = ioctl.IOW(magic, 0, unsafe.Sizeof(payload{}))
	iocWrMode        = ioctl.IOW(magic, 1, 1)
	iocWrLSBFirst    = ioctl.IOW(magic, 2, 1)
	iocWrBitsPerWord = ioctl.IOW(magic, 3, 1)
	iocWrMaxSpeedHz  = ioctl.IOW(magic, 4, 4)
)

// payload mirrors struct spi_ioc_transfer.
type payload struct {
	tx          uint64
	rx          uint64
	length      uint32
	speedHz     uint32
	delay       uint16
	bitsPerWord uint8
	csChange    uint8
	txNBits     uint8
	rxNBits     uint8
	wordDelay   uint8
	pad         uint8
}

// Devfs is an SPI driver that works against the spidev device nodes.
// You need to load the "spidev" kernel module to use this driver.
type Devfs struct {
	// Dir is the directory holding the spidev nodes. Given the
	// zero value, /dev is used.
	Dir string
}

var _ driver.Opener = (*Devfs)(nil)

// Open opens /dev/spidev<bus>.<chip>.
func (d *Devfs) Open(bus, chip int) (driver.Conn, error) {
	dir := d.Dir
	if dir == "" {
		dir = "/dev"
	}
	f, err := os.OpenFile(filepath.Join(dir, fmt.Sprintf("spidev%d.%d", bus, chip)), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	c := &devfsConn{f: f}
	c.do = func(req uintptr, arg unsafe.Pointer) error {
		return ioctl.Ptr(f.Fd(), req, arg)
	}
	return c, nil
}

type devfsConn struct {
	f           *os.File
	do          func(req uintptr, arg unsafe.Pointer) error
	mode        uint8
	speedHz     uint32
	bitsPerWord uint8
}

func (c *devfsConn) Configure(mode, bits, speedHz int) error {
	if mode >= 0 {
		m := uint8(mode)
		if err := c.ioctl("SPI_IOC_WR_MODE", iocWrMode, unsafe.Pointer(&m)); err != nil {
			return err
		}
		var lsb uint8
		if err := c.ioctl("SPI_IOC_WR_LSB_FIRST", iocWrLSBFirst, unsafe.Pointer(&lsb)); err != nil {
			return err
		}
		c.mode = m
	}
	if bits >= 0 {
		b := uint8(bits)
		if err := c.ioctl("SPI_IOC_WR_BITS_PER_WORD", iocWrBitsPerWord, unsafe.Pointer(&b)); err != nil {
			return err
		}
		c.bitsPerWord = b
	}
	if speedHz >= 0 {
		s := uint32(speedHz)
		if err := c.ioctl("SPI_IOC_WR_MAX_SPEED_HZ", iocWrMaxSpeedHz, unsafe.Pointer(&s)); err != nil {
			return err
		}
		c.speedHz = s
	}
	return nil
}

func (c *devfsConn) Transfer(tx, rx []byte, delay time.Duration) error {
	n := len(tx)
	if n == 0 {
		n = len(rx)
	}
	if n == 0 {
		return nil
	}
	if len(tx) != 0 && len(rx) != 0 && len(tx) != len(rx) {
		return xerrors.Errorf("spi: transfer length mismatch: tx %d, rx %d", len(tx), len(rx))
	}
	p := payload{
		length:      uint32(n),
		speedHz:     c.speedHz,
		delay:       uint16(delay.Microseconds()),
		bitsPerWord: c.bitsPerWord,
	}
	// The payload carries the buffer addresses as integers, so the
	// buffers must neither move nor be freed until the ioctl returns.
	var pinner runtime.Pinner
	defer pinner.Unpin()
	if len(tx) != 0 {
		pinner.Pin(&tx[0])
		p.tx = uint64(uintptr(unsafe.Pointer(&tx[0])))
	}
	if len(rx) != 0 {
		pinner.Pin(&rx[0])
		p.rx = uint64(uintptr(unsafe.Pointer(&rx[0])))
	}
	return c.ioctl("SPI_IOC_MESSAGE(1)", iocMessage1, unsafe.Pointer(&p))
}

func (c *devfsConn) Read(p []byte) (int, error) {
	return c.f.Read(p)
}

func (c *devfsConn) Write(p []byte) (int, error) {
	return c.f.Write(p)
}

// Flush is a no-op; writes to spidev are not buffered.
func (c *devfsConn) Flush() error {
	return nil
}

func (c *devfsConn) Close() error {
	return c.f.Close()
}

func (c *devfsConn) ioctl(name string, req uintptr, arg unsafe.Pointer) error {
	if err := c.do(req, arg); err != nil {
		return xerrors.Errorf("spi: %s: %w", name, err)
	}
	return nil
}
