// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package i2c allows users to read from and write to the I2C and SMBus
// devices attached to the Raspberry Pi.
package i2c // import "github.com/piio/piio/io/i2c"

import (
	"runtime"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/piio/piio/io/i2c/driver"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Requests from linux/i2c-dev.h.
const (
	i2cRetries = 0x0701
	i2cTimeout = 0x0702
	i2cSlave   = 0x0703
	i2cTenBit  = 0x0704
	i2cFuncs   = 0x0705
	i2cRdwr    = 0x0707
	i2cSMBus   = 0x0720

	// rdwrMaxMsgs is I2C_RDWR_IOCTL_MAX_MSGS.
	rdwrMaxMsgs = 42
)

var (
	// ErrClosed is returned by operations on a closed Bus.
	ErrClosed = xerrors.New("i2c: use of closed bus")

	// ErrBlockTooLarge is returned when a block transfer exceeds 32 bytes.
	ErrBlockTooLarge = xerrors.New("i2c: block larger than 32 bytes")
)

const tenbitMask = 1 << 12

// TenBit marks an I2C address as a 10-bit address.
func TenBit(addr int) int {
	return addr | tenbitMask
}

// resolveAddr returns whether the addr is 10-bit masked or not.
// It also returns the unmasked address.
func resolveAddr(a int) (addr int, tenbit bool) {
	return a & (tenbitMask - 1), a&tenbitMask == tenbitMask
}

// Functionality is the I2C_FUNCS bit mask of an adapter.
type Functionality uint64

const (
	FuncI2C                 Functionality = 0x00000001
	Func10BitAddr           Functionality = 0x00000002
	FuncProtocolMangling    Functionality = 0x00000004
	FuncSMBusPEC            Functionality = 0x00000008
	FuncNoStart             Functionality = 0x00000010
	FuncSlave               Functionality = 0x00000020
	FuncSMBusBlockProcCall  Functionality = 0x00008000
	FuncSMBusQuick          Functionality = 0x00010000
	FuncSMBusReadByte       Functionality = 0x00020000
	FuncSMBusWriteByte      Functionality = 0x00040000
	FuncSMBusReadByteData   Functionality = 0x00080000
	FuncSMBusWriteByteData  Functionality = 0x00100000
	FuncSMBusReadWordData   Functionality = 0x00200000
	FuncSMBusWriteWordData  Functionality = 0x00400000
	FuncSMBusProcCall       Functionality = 0x00800000
	FuncSMBusReadBlockData  Functionality = 0x01000000
	FuncSMBusWriteBlockData Functionality = 0x02000000
	FuncSMBusReadI2CBlock   Functionality = 0x04000000
	FuncSMBusWriteI2CBlock  Functionality = 0x08000000
	FuncSMBusHostNotify     Functionality = 0x10000000
)

var funcNames = []struct {
	f    Functionality
	name string
}{
	{FuncI2C, "I2C"},
	{Func10BitAddr, "10BIT_ADDR"},
	{FuncProtocolMangling, "PROTOCOL_MANGLING"},
	{FuncSMBusPEC, "SMBUS_PEC"},
	{FuncNoStart, "NOSTART"},
	{FuncSlave, "SLAVE"},
	{FuncSMBusBlockProcCall, "SMBUS_BLOCK_PROC_CALL"},
	{FuncSMBusQuick, "SMBUS_QUICK"},
	{FuncSMBusReadByte, "SMBUS_READ_BYTE"},
	{FuncSMBusWriteByte, "SMBUS_WRITE_BYTE"},
	{FuncSMBusReadByteData, "SMBUS_READ_BYTE_DATA"},
	{FuncSMBusWriteByteData, "SMBUS_WRITE_BYTE_DATA"},
	{FuncSMBusReadWordData, "SMBUS_READ_WORD_DATA"},
	{FuncSMBusWriteWordData, "SMBUS_WRITE_WORD_DATA"},
	{FuncSMBusProcCall, "SMBUS_PROC_CALL"},
	{FuncSMBusReadBlockData, "SMBUS_READ_BLOCK_DATA"},
	{FuncSMBusWriteBlockData, "SMBUS_WRITE_BLOCK_DATA"},
	{FuncSMBusReadI2CBlock, "SMBUS_READ_I2C_BLOCK"},
	{FuncSMBusWriteI2CBlock, "SMBUS_WRITE_I2C_BLOCK"},
	{FuncSMBusHostNotify, "SMBUS_HOST_NOTIFY"},
}

// Has reports whether all bits of g are set in f.
func (f Functionality) Has(g Functionality) bool {
	return f&g == g
}

func (f Functionality) String() string {
	var names []string
	for _, fn := range funcNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// Flags modify a Message, as the I2C_M_* constants.
type Flags uint16

const (
	Rd         Flags = 0x0001
	Ten        Flags = 0x0010
	RecvLen    Flags = 0x0400
	NoRdAck    Flags = 0x0800
	IgnoreNak  Flags = 0x1000
	RevDirAddr Flags = 0x2000
	NoStart    Flags = 0x4000
	Stop       Flags = 0x8000
)

// Message is one segment of a combined I2C transaction.
type Message struct {
	Addr  uint16
	Flags Flags
	Data  []byte
}

// ReadMessage returns a message that reads len(p) bytes into p.
func ReadMessage(addr uint16, p []byte) Message {
	return Message{Addr: addr, Flags: Rd, Data: p}
}

// WriteMessage returns a message that writes p.
func WriteMessage(addr uint16, p []byte) Message {
	return Message{Addr: addr, Flags: 0, Data: p}
}

// i2cMsg mirrors struct i2c_msg. Pointer fields stay unsafe.Pointer so
// the buffers they reference are tracked by the runtime until the ioctl
// returns.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   unsafe.Pointer
}

// rdwrIoctlData mirrors struct i2c_rdwr_ioctl_data.
type rdwrIoctlData struct {
	msgs  unsafe.Pointer
	nmsgs uint32
}

// Bus is an open I2C adapter. Read, Write and the SMBus methods talk to
// the slave selected with SetAddress.
//
// A Bus is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	conn   driver.Conn
	bus    int
	addr   int
	closed bool
	logger *zap.Logger
}

type options struct {
	opener driver.Opener
	logger *zap.Logger
}

// An Option configures Open and OpenBus.
type Option func(*options)

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

func buildOptions(opts []Option) options {
	o := options{opener: &Devfs{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens /dev/i2c-0, or /dev/i2c-1 if the former is not available.
// The very first Raspberry Pi models expose their header bus as bus 0,
// later ones as bus 1.
func Open(opts ...Option) (*Bus, error) {
	o := buildOptions(opts)
	b, err0 := openBus(0, o)
	if err0 == nil {
		return b, nil
	}
	b, err1 := openBus(1, o)
	if err1 != nil {
		return nil, xerrors.Errorf("i2c: open bus 0 (%v) or bus 1: %w", err0, err1)
	}
	return b, nil
}

// OpenBus opens /dev/i2c-<n>.
func OpenBus(n int, opts ...Option) (*Bus, error) {
	b, err := openBus(n, buildOptions(opts))
	if err != nil {
		return nil, xerrors.Errorf("i2c: open bus %d: %w", n, err)
	}
	return b, nil
}

func openBus(n int, o options) (*Bus, error) {
	logger := o.logger.Named("i2c").With(zap.Int("bus", n))
	conn, err := o.opener.Open(n)
	if err != nil {
		logger.Debug("open failed", zap.Error(err))
		return nil, err
	}
	logger.Debug("opened")
	return &Bus{conn: conn, bus: n, addr: -1, logger: logger}, nil
}

// Number returns the adapter number.
func (b *Bus) Number() int {
	return b.bus
}

// Address returns the address last passed to SetAddress, or -1.
func (b *Bus) Address() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

// SetAddress selects the slave that subsequent operations talk to.
// Wrap the address with TenBit for 10-bit addressing.
func (b *Bus) SetAddress(addr int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	unmasked, tenbit := resolveAddr(addr)
	var t uintptr
	if tenbit {
		t = 1
	}
	if err := b.ioctl("I2C_TENBIT", i2cTenBit, t); err != nil {
		return err
	}
	if err := b.ioctl("I2C_SLAVE", i2cSlave, uintptr(unmasked)); err != nil {
		return xerrors.Errorf("error opening the address (%#x) on the bus (%v): %w", unmasked, b.bus, err)
	}
	b.addr = addr
	return nil
}

// Functionality queries what the adapter supports.
func (b *Bus) Functionality() (Functionality, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	// unsigned long, which is a Go uint on Linux.
	var f uint
	if err := b.ioctlPtr("I2C_FUNCS", i2cFuncs, unsafe.Pointer(&f)); err != nil {
		return 0, err
	}
	return Functionality(f), nil
}

// Transfer runs msgs as one combined transaction, with a repeated start
// between messages. Read messages are filled in place.
func (b *Bus) Transfer(msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > rdwrMaxMsgs {
		return xerrors.Errorf("i2c: %d messages in one transfer, max %d", len(msgs), rdwrMaxMsgs)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	raw := make([]i2cMsg, len(msgs))
	for i, m := range msgs {
		if len(m.Data) > 0xffff {
			return xerrors.Errorf("i2c: message %d is %d bytes long", i, len(m.Data))
		}
		raw[i] = i2cMsg{addr: m.Addr, flags: uint16(m.Flags), len: uint16(len(m.Data))}
		if len(m.Data) > 0 {
			raw[i].buf = unsafe.Pointer(&m.Data[0])
		}
	}
	data := rdwrIoctlData{msgs: unsafe.Pointer(&raw[0]), nmsgs: uint32(len(raw))}
	err := b.ioctlPtr("I2C_RDWR", i2cRdwr, unsafe.Pointer(&data))
	runtime.KeepAlive(raw)
	runtime.KeepAlive(msgs)
	return err
}

// SetRetries sets how often the adapter retries a transfer that was not
// acknowledged.
func (b *Bus) SetRetries(n int) error {
	if n < 0 {
		return xerrors.Errorf("i2c: negative retry count %d", n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return b.ioctl("I2C_RETRIES", i2cRetries, uintptr(n))
}

// SetTimeout sets the adapter timeout. The kernel counts in units of
// 10ms; d is rounded up.
func (b *Bus) SetTimeout(d time.Duration) error {
	if d < 0 {
		return xerrors.Errorf("i2c: negative timeout %v", d)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	units := (d + 10*time.Millisecond - 1) / (10 * time.Millisecond)
	return b.ioctl("I2C_TIMEOUT", i2cTimeout, uintptr(units))
}

// Read reads len(p) bytes from the selected slave.
func (b *Bus) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	return b.conn.Read(p)
}

// Write writes p to the selected slave.
func (b *Bus) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	return b.conn.Write(p)
}

// Close closes the adapter.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.logger.Debug("closed")
	return b.conn.Close()
}

func (b *Bus) ioctl(name string, req, arg uintptr) error {
	if err := b.conn.Ioctl(req, arg); err != nil {
		return xerrors.Errorf("i2c: %s: %w", name, err)
	}
	return nil
}

func (b *Bus) ioctlPtr(name string, req uintptr, arg unsafe.Pointer) error {
	if err := b.conn.IoctlPtr(req, arg); err != nil {
		return xerrors.Errorf("i2c: %s: %w", name, err)
	}
	return nil
}
