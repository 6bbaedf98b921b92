// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/piio/piio/io/i2c"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

func runI2C(logger *zap.Logger, w io.Writer, args []string) (err error) {
	fs := flag.NewFlagSet("i2c", flag.ContinueOnError)
	busFlag := fs.Int("bus", -1, "adapter number; -1 tries 0 then 1")
	addrFlag := fs.String("addr", "", "slave address, e.g. 0x39")
	regFlag := fs.String("reg", "", "register (SMBus command), e.g. 0x8a")
	word := fs.Bool("word", false, "access a 16-bit word instead of a byte")
	writeFlag := fs.String("write", "", "value to write instead of reading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := parseUint(*addrFlag, "addr", 10)
	if err != nil {
		return err
	}
	reg, err := parseUint(*regFlag, "reg", 8)
	if err != nil {
		return err
	}

	var b *i2c.Bus
	if *busFlag < 0 {
		b, err = i2c.Open(i2c.WithLogger(logger))
	} else {
		b, err = i2c.OpenBus(*busFlag, i2c.WithLogger(logger))
	}
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, b.Close())
	}()

	a := int(addr)
	if addr > 0x7f {
		a = i2c.TenBit(a)
	}
	if err := b.SetAddress(a); err != nil {
		return err
	}

	if *writeFlag != "" {
		bits := 8
		if *word {
			bits = 16
		}
		v, err := parseUint(*writeFlag, "write", bits)
		if err != nil {
			return err
		}
		if *word {
			return b.WriteWordData(byte(reg), uint16(v))
		}
		return b.WriteByteData(byte(reg), byte(v))
	}

	if *word {
		v, err := b.ReadWordData(byte(reg))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%#06x\n", v)
		return nil
	}
	v, err := b.ReadByteData(byte(reg))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%#04x\n", v)
	return nil
}

func parseUint(s, name string, bits int) (uint64, error) {
	if s == "" {
		return 0, xerrors.Errorf("i2c: -%s is required", name)
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, xerrors.Errorf("i2c: bad -%s: %w", name, err)
	}
	return v, nil
}
