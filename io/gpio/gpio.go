// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpio allows users to communicate with the GPIO pins of the
// Raspberry Pi.
package gpio // import "github.com/piio/piio/io/gpio"

import (
	"sync"

	"github.com/piio/piio/io/gpio/driver"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

var (
	// ErrInUse is returned by Open if the pin is exported already.
	ErrInUse = xerrors.New("gpio was already initialized")

	// ErrNotWritable is returned by Set if the pin is not in Write mode.
	ErrNotWritable = xerrors.New("gpio is not in write mode")

	// ErrInvalidValue is returned by Value if the pin reads as neither 0 nor 1.
	ErrInvalidValue = xerrors.New("read value other than 1 or 0")

	// ErrClosed is returned by operations on a closed Pin.
	ErrClosed = xerrors.New("gpio: use of closed pin")
)

// Mode determines the direction of the pin.
type Mode int

const (
	Read Mode = iota
	Write
)

func (m Mode) direction() string {
	if m == Write {
		return "out"
	}
	return "in"
}

func (m Mode) String() string {
	if m == Write {
		return "Write"
	}
	return "Read"
}

// Level is the logic level of a pin.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

// String returns "LOW" or "HIGH".
func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Pin is a claimed GPIO pin.
type Pin struct {
	mu     sync.Mutex
	conn   driver.Conn
	number int
	mode   Mode
	closed bool
	logger *zap.Logger
}

type options struct {
	opener driver.Opener
	logger *zap.Logger
}

// An Option configures Open.
type Option func(*options)

// WithDriver replaces the default Periph driver.
func WithDriver(d driver.Opener) Option {
	return func(o *options) { o.opener = d }
}

// WithRoot uses the Sysfs driver rooted at dir instead of the periph.io
// host drivers.
func WithRoot(dir string) Option {
	return func(o *options) { o.opener = &Sysfs{Root: dir} }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open claims the pin and sets its direction from mode.
// Opened pins should be closed by calling Close.
func Open(pin int, mode Mode, opts ...Option) (*Pin, error) {
	o := options{opener: defaultPeriph, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("gpio").With(zap.Int("pin", pin))
	conn, err := o.opener.Open(pin)
	if err != nil {
		logger.Warn("open failed", zap.Error(err))
		return nil, err
	}
	p := &Pin{conn: conn, number: pin, logger: logger}
	if err := p.SetMode(mode); err != nil {
		return nil, multierr.Append(err, conn.Close())
	}
	logger.Debug("opened", zap.Stringer("mode", mode))
	return p, nil
}

// Number returns the Broadcom number of the pin.
func (p *Pin) Number() int {
	return p.number
}

// Mode returns the configured mode of the pin.
func (p *Pin) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// SetMode changes the direction of the pin.
func (p *Pin) SetMode(mode Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.conn.SetDirection(mode.direction()); err != nil {
		return xerrors.Errorf("gpio %d: set direction %s: %w", p.number, mode.direction(), err)
	}
	p.mode = mode
	return nil
}

// Value reads the pin in both Read and Write mode.
func (p *Pin) Value() (Level, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Low, ErrClosed
	}
	v, err := p.conn.Value()
	if err != nil {
		return Low, err
	}
	if v != 0 {
		return High, nil
	}
	return Low, nil
}

// Set drives the pin. It returns ErrNotWritable unless the pin is in
// Write mode.
func (p *Pin) Set(l Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.mode != Write {
		return xerrors.Errorf("gpio %d: %w", p.number, ErrNotWritable)
	}
	if err := p.conn.SetValue(int(l)); err != nil {
		return xerrors.Errorf("gpio %d: set %v: %w", p.number, l, err)
	}
	return nil
}

// Close releases the pin.
func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.conn.Close(); err != nil {
		p.logger.Warn("close failed", zap.Error(err))
		return xerrors.Errorf("gpio %d: unexport: %w", p.number, err)
	}
	p.logger.Debug("closed")
	return nil
}
