// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spi

import (
	"testing"

	periphconn "periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	periphspi "periph.io/x/conn/v3/spi"
)

func TestSpeed(t *testing.T) {
	tc := []struct {
		speed Speed
		hz    uint32
		str   string
	}{
		{Mhz125_0, 125_000_001, "125MHz"},
		{Mhz62_5, 62_500_001, "62.5MHz"},
		{Mhz7_8, 7_800_001, "7.8MHz"},
		{Khz1953, 1_953_001, "1953kHz"},
		{Khz30_5, 30_501, "30.5kHz"},
		{Hz7629, 7_630, "7629Hz"},
	}
	for _, tt := range tc {
		if got := tt.speed.Hz(); got != tt.hz {
			t.Errorf("%v.Hz() = %d; want %d", tt.speed, got, tt.hz)
		}
		if got := tt.speed.String(); got != tt.str {
			t.Errorf("Speed(%d).String() = %q; want %q", int(tt.speed), got, tt.str)
		}
		if got, want := tt.speed.Frequency(), physic.Frequency(tt.hz)*physic.Hertz; got != want {
			t.Errorf("%v.Frequency() = %v; want %v", tt.speed, got, want)
		}
	}
}

func TestSpeedsDescending(t *testing.T) {
	all := Speeds()
	if len(all) != 15 {
		t.Fatalf("len(Speeds()) = %d; want 15", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Hz() >= all[i-1].Hz() {
			t.Errorf("%v (%d Hz) is not slower than %v (%d Hz)", all[i], all[i].Hz(), all[i-1], all[i-1].Hz())
		}
	}
}

func TestParseSpeed(t *testing.T) {
	for _, s := range Speeds() {
		got, err := ParseSpeed(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSpeed(%q) = %v, %v; want %v", s.String(), got, err, s)
		}
	}
	if got, err := ParseSpeed("mhz7_8"); err != nil || got != Mhz7_8 {
		t.Errorf("ParseSpeed(mhz7_8) = %v, %v; want %v", got, err, Mhz7_8)
	}
	if _, err := ParseSpeed("1GHz"); err == nil {
		t.Error("ParseSpeed(1GHz) succeeded; want error")
	}
}

func TestInvalidSpeed(t *testing.T) {
	s := Speed(99)
	if s.Hz() != 0 {
		t.Errorf("Speed(99).Hz() = %d; want 0", s.Hz())
	}
	if got := s.String(); got != "Speed(99)" {
		t.Errorf("Speed(99).String() = %q", got)
	}
}

func TestMode(t *testing.T) {
	tc := []struct {
		mode       Mode
		cpol, cpha bool
		periph     periphspi.Mode
	}{
		{Mode0, false, false, periphspi.Mode0},
		{Mode1, false, true, periphspi.Mode1},
		{Mode2, true, false, periphspi.Mode2},
		{Mode3, true, true, periphspi.Mode3},
	}
	for _, tt := range tc {
		if tt.mode.CPOL() != tt.cpol || tt.mode.CPHA() != tt.cpha {
			t.Errorf("%v: CPOL=%v CPHA=%v; want %v %v", tt.mode, tt.mode.CPOL(), tt.mode.CPHA(), tt.cpol, tt.cpha)
		}
		if got := tt.mode.Periph(); got != tt.periph {
			t.Errorf("%v.Periph() = %v; want %v", tt.mode, got, tt.periph)
		}
		got, err := ParseMode(tt.mode.String())
		if err != nil || got != tt.mode {
			t.Errorf("ParseMode(%q) = %v, %v", tt.mode.String(), got, err)
		}
	}
	if got, err := ParseMode("2"); err != nil || got != Mode2 {
		t.Errorf("ParseMode(2) = %v, %v", got, err)
	}
	if _, err := ParseMode("4"); err == nil {
		t.Error("ParseMode(4) succeeded; want error")
	}
	var zero Mode
	if zero != Mode0 {
		t.Errorf("zero Mode = %v; want Mode0", zero)
	}
}

func TestComMode(t *testing.T) {
	var zero ComMode
	if zero != FullDuplex {
		t.Errorf("zero ComMode = %v; want FullDuplex", zero)
	}
	if FullDuplex.Duplex() != periphconn.Full || HalfDuplex.Duplex() != periphconn.Half {
		t.Error("ComMode.Duplex mapping is wrong")
	}
	for in, want := range map[string]ComMode{"full": FullDuplex, "HalfDuplex": HalfDuplex, "half": HalfDuplex} {
		if got, err := ParseComMode(in); err != nil || got != want {
			t.Errorf("ParseComMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseComMode("simplex"); err == nil {
		t.Error("ParseComMode(simplex) succeeded; want error")
	}
}

func TestDevice(t *testing.T) {
	if got := CE0.Path(); got != "/dev/spidev0.0" {
		t.Errorf("CE0.Path() = %q", got)
	}
	if got := CE1.Path(); got != "/dev/spidev0.1" {
		t.Errorf("CE1.Path() = %q", got)
	}
	if got := CE1.String(); got != "CE1" {
		t.Errorf("CE1.String() = %q", got)
	}
}
