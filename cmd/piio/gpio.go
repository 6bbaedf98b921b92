// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/piio/piio/io/gpio"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

func runGPIO(logger *zap.Logger, w io.Writer, args []string) (err error) {
	fs := flag.NewFlagSet("gpio", flag.ContinueOnError)
	pin := fs.Int("pin", -1, "Broadcom pin number")
	set := fs.String("set", "", "drive the pin high or low instead of reading it")
	root := fs.String("root", "", "drive the pin through this sysfs GPIO directory, e.g. "+gpio.DefaultRoot+", instead of the periph.io host drivers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pin < 0 {
		return xerrors.New("gpio: -pin is required")
	}

	mode := gpio.Read
	var level gpio.Level
	switch strings.ToLower(*set) {
	case "":
	case "high", "1":
		mode, level = gpio.Write, gpio.High
	case "low", "0":
		mode, level = gpio.Write, gpio.Low
	default:
		return xerrors.Errorf("gpio: bad -set value %q", *set)
	}

	opts := []gpio.Option{gpio.WithLogger(logger)}
	if *root != "" {
		opts = append(opts, gpio.WithRoot(*root))
	}
	p, err := gpio.Open(*pin, mode, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, p.Close())
	}()

	if mode == gpio.Write {
		if err := p.Set(level); err != nil {
			return err
		}
	}
	v, err := p.Value()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "gpio %d: %v\n", *pin, v)
	return nil
}
