// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spi

import (
	"fmt"
	"sync"

	"github.com/piio/piio/io/spi/driver"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	periphconn "periph.io/x/conn/v3"
)

// DefaultCapacity is the receive buffer capacity used by New.
const DefaultCapacity = 1000

var (
	// ErrNotEnabled is returned by Open when the spidev node cannot be opened.
	ErrNotEnabled = xerrors.New(`unable to open the spi device; did you set "dtparam=spi=on" in /boot/config.txt?`)

	// ErrClosed is returned by operations on a closed SerialPi.
	ErrClosed = xerrors.New("spi: use of closed device")
)

// SerialPi is an open SPI bus session on the Raspberry Pi, acting as bus
// master.
//
// In FullDuplex mode the bytes received by Write are buffered. Read first
// drains the buffer and only reads from the bus once it is exhausted. The
// buffer grows past its capacity when needed and keeps the larger capacity
// until TryShrinkTo is called.
//
// In HalfDuplex mode Write does not fill the buffer, but Read still drains
// whatever it holds.
//
// A SerialPi is safe for concurrent use.
type SerialPi struct {
	mu     sync.Mutex
	conn   driver.Conn
	dev    Device
	speed  Speed
	mode   Mode
	com    ComMode
	buf    []byte
	closed bool
	logger *zap.Logger
}

var _ periphconn.Conn = (*SerialPi)(nil)

type options struct {
	capacity int
	opener   driver.Opener
	logger   *zap.Logger
}

// An Option configures Open.
type Option func(*options)

// WithCapacity sets the initial receive buffer capacity.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.capacity = n
		}
	}
}

// WithOpener replaces the default Devfs driver.
func WithOpener(op driver.Opener) Option {
	return func(o *options) { o.opener = op }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New opens dev with a buffer capacity of DefaultCapacity.
func New(dev Device, speed Speed, mode Mode, com ComMode) (*SerialPi, error) {
	return Open(dev, speed, mode, com)
}

// Open opens the SPI device on the given chip enable line and configures
// it for 8 bit words, most significant bit first.
//
// Open fails if the device node cannot be opened. The device might be in
// use already, or SPI is not enabled on the board.
func Open(dev Device, speed Speed, mode Mode, com ComMode, opts ...Option) (*SerialPi, error) {
	o := options{
		capacity: DefaultCapacity,
		opener:   &Devfs{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !dev.valid() {
		return nil, xerrors.Errorf("spi: invalid device %v", dev)
	}
	if !speed.valid() {
		return nil, xerrors.Errorf("spi: invalid speed %v", speed)
	}
	if mode > Mode3 {
		return nil, xerrors.Errorf("spi: invalid mode %v", mode)
	}
	if !com.valid() {
		return nil, xerrors.Errorf("spi: invalid communication mode %v", com)
	}
	logger := o.logger.Named("spi").With(zap.Stringer("device", dev))

	c, err := o.opener.Open(0, int(dev))
	if err != nil {
		logger.Warn("open failed", zap.String("path", dev.Path()), zap.Error(err))
		return nil, xerrors.Errorf("spi: %s: %v: %w", dev.Path(), err, ErrNotEnabled)
	}
	if err := c.Configure(int(mode), 8, int(speed.Hz())); err != nil {
		err = xerrors.Errorf("spi: configure %v: %w", dev, err)
		return nil, multierr.Append(err, c.Close())
	}
	logger.Debug("opened",
		zap.Stringer("speed", speed),
		zap.Stringer("mode", mode),
		zap.Stringer("com_mode", com),
		zap.Int("capacity", o.capacity))

	return &SerialPi{
		conn:   c,
		dev:    dev,
		speed:  speed,
		mode:   mode,
		com:    com,
		buf:    make([]byte, 0, o.capacity),
		logger: logger,
	}, nil
}

// ComMode returns the communication mode.
func (s *SerialPi) ComMode() ComMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.com
}

// SetComMode changes the communication mode. Buffered bytes are kept.
func (s *SerialPi) SetComMode(c ComMode) error {
	if !c.valid() {
		return xerrors.Errorf("spi: invalid communication mode %v", c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.com = c
	return nil
}

// BufferCapacity returns the capacity of the receive buffer. Use
// TryShrinkTo to change it.
func (s *SerialPi) BufferCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cap(s.buf)
}

// Buffered returns the number of received bytes not yet read.
func (s *SerialPi) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// TryShrinkTo reallocates the receive buffer to fit the bytes it holds.
// If that leaves less than desired capacity, the buffer is grown to
// desired. Buffered bytes are never dropped; call Consume or Read first.
// It returns the new capacity.
func (s *SerialPi) TryShrinkTo(desired int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := len(s.buf)
	if c < desired {
		c = desired
	}
	if c != cap(s.buf) {
		nb := make([]byte, len(s.buf), c)
		copy(nb, s.buf)
		s.buf = nb
	}
	return cap(s.buf)
}

// Read fills p with buffered bytes. If fewer than len(p) bytes are
// buffered, the rest is read from the bus.
func (s *SerialPi) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	n := copy(p, s.buf)
	s.drain(n)
	if n < len(p) {
		m, err := s.conn.Read(p[n:])
		n += m
		if err != nil {
			return n, xerrors.Errorf("spi: read: %w", err)
		}
	}
	return n, nil
}

// Write sends p over the bus.
//
// In HalfDuplex mode p is written and the bytes clocked in are dropped.
// Otherwise a duplex transfer is done and the received bytes are appended
// to the receive buffer, growing it past its capacity if necessary.
func (s *SerialPi) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.com == HalfDuplex {
		n, err := s.conn.Write(p)
		if err != nil {
			return n, xerrors.Errorf("spi: write: %w", err)
		}
		return n, nil
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := len(s.buf)
	s.buf = append(s.buf, make([]byte, len(p))...)
	if err := s.conn.Transfer(p, s.buf[n:], 0); err != nil {
		s.buf = s.buf[:n]
		return 0, xerrors.Errorf("spi: transfer: %w", err)
	}
	return len(p), nil
}

// Fill reads from the bus into the unused capacity of the receive buffer
// and returns all buffered bytes. In HalfDuplex mode the buffer is
// returned unchanged.
//
// The returned slice aliases the buffer and is valid until the next call
// on s.
func (s *SerialPi) Fill() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.com == FullDuplex && len(s.buf) < cap(s.buf) {
		n := len(s.buf)
		m, err := s.conn.Read(s.buf[n:cap(s.buf)])
		s.buf = s.buf[:n+m]
		if err != nil {
			return s.buf, xerrors.Errorf("spi: read: %w", err)
		}
	}
	return s.buf, nil
}

// Consume drops the first n buffered bytes in FullDuplex mode. It does
// nothing in HalfDuplex mode.
func (s *SerialPi) Consume(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.com != FullDuplex {
		return
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	if n > 0 {
		s.drain(n)
	}
}

// Flush flushes the device in HalfDuplex mode and does nothing otherwise.
func (s *SerialPi) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.com != HalfDuplex {
		return nil
	}
	if f, ok := s.conn.(driver.Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Tx does a duplex transfer of w while reading into r, bypassing the
// receive buffer. Either may be nil; otherwise they must have the same
// length.
func (s *SerialPi) Tx(w, r []byte) error {
	if len(w) != 0 && len(r) != 0 && len(w) != len(r) {
		return xerrors.Errorf("spi: Tx: len(w) = %d, len(r) = %d", len(w), len(r))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.conn.Transfer(w, r, 0); err != nil {
		return xerrors.Errorf("spi: transfer: %w", err)
	}
	return nil
}

// Duplex reports the communication mode as a periph conn.Duplex.
func (s *SerialPi) Duplex() periphconn.Duplex {
	return s.ComMode().Duplex()
}

func (s *SerialPi) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("SerialPi(%v, %v, %v, %v)", s.dev, s.speed, s.mode, s.com)
}

// Close closes the device. Buffered bytes are discarded.
func (s *SerialPi) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf = nil
	s.logger.Debug("closed")
	return s.conn.Close()
}

// drain removes the first n buffered bytes, keeping the capacity.
func (s *SerialPi) drain(n int) {
	s.buf = s.buf[:copy(s.buf, s.buf[n:])]
}
