// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spi gives access to the SPI bus of the Raspberry Pi as bus master.
//
// A SerialPi is opened on one of the chip enable lines (Device) with a bus
// clock (Speed), a clock polarity and phase (Mode) and a communication mode
// (ComMode). The SPI interface has to be enabled on the board, e.g. with
// "dtparam=spi=on" in /boot/config.txt.
package spi // import "github.com/piio/piio/io/spi"

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
	periphconn "periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	periphspi "periph.io/x/conn/v3/spi"
)

// Device is a chip enable line of the Raspberry Pi SPI0 controller.
type Device int

const (
	CE0 Device = 0
	CE1 Device = 1
)

// Path returns the spidev node for the device.
func (d Device) Path() string {
	return fmt.Sprintf("/dev/spidev0.%d", int(d))
}

func (d Device) valid() bool { return d == CE0 || d == CE1 }

func (d Device) String() string {
	if !d.valid() {
		return fmt.Sprintf("Device(%d)", int(d))
	}
	return fmt.Sprintf("CE%d", int(d))
}

// Speed is one of the bus clocks the SPI0 clock divider can produce
// from the 250 MHz core clock.
type Speed int

const (
	Mhz125_0 Speed = iota
	Mhz62_5
	Mhz31_2
	Mhz15_6
	Mhz7_8
	Mhz3_9
	Khz1953
	Khz976
	Khz488
	Khz244
	Khz122
	Khz61
	Khz30_5
	Khz15_2
	Hz7629
)

// The requested rates sit one hertz above the nominal rate so the kernel
// picks the intended divider rather than the next slower one.
var speeds = [...]struct {
	hz   uint32
	name string
	id   string
}{
	Mhz125_0: {125_000_001, "125MHz", "Mhz125_0"},
	Mhz62_5:  {62_500_001, "62.5MHz", "Mhz62_5"},
	Mhz31_2:  {31_200_001, "31.2MHz", "Mhz31_2"},
	Mhz15_6:  {15_600_001, "15.6MHz", "Mhz15_6"},
	Mhz7_8:   {7_800_001, "7.8MHz", "Mhz7_8"},
	Mhz3_9:   {3_900_001, "3.9MHz", "Mhz3_9"},
	Khz1953:  {1_953_001, "1953kHz", "Khz1953"},
	Khz976:   {976_001, "976kHz", "Khz976"},
	Khz488:   {488_001, "488kHz", "Khz488"},
	Khz244:   {244_001, "244kHz", "Khz244"},
	Khz122:   {122_001, "122kHz", "Khz122"},
	Khz61:    {61_001, "61kHz", "Khz61"},
	Khz30_5:  {30_501, "30.5kHz", "Khz30_5"},
	Khz15_2:  {15_201, "15.2kHz", "Khz15_2"},
	Hz7629:   {7_630, "7629Hz", "Hz7629"},
}

// Speeds returns every supported speed, fastest first.
func Speeds() []Speed {
	s := make([]Speed, len(speeds))
	for i := range s {
		s[i] = Speed(i)
	}
	return s
}

func (s Speed) valid() bool { return s >= 0 && int(s) < len(speeds) }

// Hz returns the max_speed_hz value requested from the spidev driver.
func (s Speed) Hz() uint32 {
	if !s.valid() {
		return 0
	}
	return speeds[s].hz
}

// Frequency returns Hz as a physic.Frequency.
func (s Speed) Frequency() physic.Frequency {
	return physic.Frequency(s.Hz()) * physic.Hertz
}

// String returns the nominal rate, e.g. "7.8MHz".
func (s Speed) String() string {
	if !s.valid() {
		return fmt.Sprintf("Speed(%d)", int(s))
	}
	return speeds[s].name
}

// ParseSpeed parses a nominal rate ("7.8MHz") or a constant name
// ("Mhz7_8"). Case is ignored.
func ParseSpeed(str string) (Speed, error) {
	for i, sp := range speeds {
		if strings.EqualFold(str, sp.name) || strings.EqualFold(str, sp.id) {
			return Speed(i), nil
		}
	}
	return 0, xerrors.Errorf("spi: unknown speed %q", str)
}

// Mode is the SPI mode. Clock polarity (CPOL) is the high order bit and
// clock phase (CPHA) the low order bit. Mode0 is the most common one and
// the zero value.
type Mode uint8

const (
	Mode0 Mode = 0
	Mode1 Mode = 1
	Mode2 Mode = 2
	Mode3 Mode = 3
)

// CPOL reports whether the clock idles high.
func (m Mode) CPOL() bool { return m&2 != 0 }

// CPHA reports whether data is sampled on the trailing clock edge.
func (m Mode) CPHA() bool { return m&1 != 0 }

// Periph returns the equivalent periph.io SPI mode.
func (m Mode) Periph() periphspi.Mode {
	return periphspi.Mode(m & 3)
}

func (m Mode) String() string {
	return fmt.Sprintf("Mode%d", uint8(m))
}

// ParseMode accepts "0".."3" and "Mode0".."Mode3".
func ParseMode(str string) (Mode, error) {
	s := strings.TrimPrefix(strings.ToLower(str), "mode")
	if len(s) == 1 && s[0] >= '0' && s[0] <= '3' {
		return Mode(s[0] - '0'), nil
	}
	return 0, xerrors.Errorf("spi: unknown mode %q", str)
}

// ComMode selects whether received bytes are kept.
//
// In FullDuplex mode every byte written clocks in a byte that is buffered
// for later reads. In HalfDuplex mode the bytes received while writing are
// dropped.
type ComMode int

const (
	FullDuplex ComMode = iota
	HalfDuplex
)

func (c ComMode) valid() bool { return c == FullDuplex || c == HalfDuplex }

// Duplex maps the mode onto periph's conn.Duplex.
func (c ComMode) Duplex() periphconn.Duplex {
	if c == HalfDuplex {
		return periphconn.Half
	}
	return periphconn.Full
}

func (c ComMode) String() string {
	switch c {
	case FullDuplex:
		return "FullDuplex"
	case HalfDuplex:
		return "HalfDuplex"
	}
	return fmt.Sprintf("ComMode(%d)", int(c))
}

// ParseComMode accepts "full", "half", "FullDuplex" and "HalfDuplex".
func ParseComMode(str string) (ComMode, error) {
	switch strings.ToLower(str) {
	case "full", "fullduplex":
		return FullDuplex, nil
	case "half", "halfduplex":
		return HalfDuplex, nil
	}
	return 0, xerrors.Errorf("spi: unknown communication mode %q", str)
}
