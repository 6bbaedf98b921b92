// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpio

import (
	"strconv"
	"sync"

	"github.com/piio/piio/io/gpio/driver"
	"golang.org/x/xerrors"
	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/sysfs"
)

// ErrNoPin is returned by Periph.Open if no host driver exposes the pin.
var ErrNoPin = xerrors.New("gpio: no such pin")

// Periph is the default GPIO driver. It drives pins through the
// periph.io host drivers: the processor's native driver when one is
// loaded, otherwise the kernel's sysfs GPIO interface.
//
// A pin can be claimed once per Periph until its Conn is closed.
type Periph struct {
	mu      sync.Mutex
	claimed map[int]bool
}

var _ driver.Opener = (*Periph)(nil)

var defaultPeriph = &Periph{}

var initHost = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Open loads the host drivers on first use and claims the pin.
func (d *Periph) Open(pin int) (driver.Conn, error) {
	if pin < 0 {
		return nil, xerrors.Errorf("gpio: invalid pin %d", pin)
	}
	if err := initHost(); err != nil {
		return nil, xerrors.Errorf("gpio: loading host drivers: %w", err)
	}
	p := lookupPin(pin)
	if p == nil {
		return nil, xerrors.Errorf("gpio %d: %w", pin, ErrNoPin)
	}
	return d.claim(pin, p)
}

func lookupPin(n int) periphgpio.PinIO {
	if p := gpioreg.ByName(strconv.Itoa(n)); p != nil {
		return p
	}
	if p, ok := sysfs.Pins[n]; ok {
		return p
	}
	return nil
}

func (d *Periph) claim(n int, p periphgpio.PinIO) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claimed[n] {
		return nil, xerrors.Errorf("gpio %d: %w", n, ErrInUse)
	}
	if d.claimed == nil {
		d.claimed = make(map[int]bool)
	}
	d.claimed[n] = true
	return &periphConn{pin: p, release: func() { d.release(n) }}, nil
}

func (d *Periph) release(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, n)
}

type periphConn struct {
	pin     periphgpio.PinIO
	release func()
}

func (c *periphConn) Value() (int, error) {
	if c.pin.Read() == periphgpio.High {
		return 1, nil
	}
	return 0, nil
}

func (c *periphConn) SetValue(v int) error {
	return c.pin.Out(periphgpio.Level(v != 0))
}

func (c *periphConn) SetDirection(dir string) error {
	switch dir {
	case "in":
		return c.pin.In(periphgpio.PullNoChange, periphgpio.NoEdge)
	case "out":
		return c.pin.Out(periphgpio.Low)
	}
	return xerrors.Errorf("gpio: unknown direction %q", dir)
}

// Close halts the pin and releases the claim.
func (c *periphConn) Close() error {
	err := c.pin.Halt()
	c.release()
	return err
}
