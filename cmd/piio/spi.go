// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/piio/piio/io/spi"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

func runSPI(logger *zap.Logger, w io.Writer, args []string) (err error) {
	fs := flag.NewFlagSet("spi", flag.ContinueOnError)
	ce := fs.Int("ce", 0, "chip enable line, 0 or 1")
	speedFlag := fs.String("speed", spi.Mhz7_8.String(), "bus clock, e.g. 7.8MHz or 976kHz")
	modeFlag := fs.String("mode", "0", "SPI mode, 0 to 3")
	half := fs.Bool("half", false, "half duplex: do not read back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tx, err := parseHex(fs.Args())
	if err != nil {
		return err
	}
	speed, err := spi.ParseSpeed(*speedFlag)
	if err != nil {
		return err
	}
	mode, err := spi.ParseMode(*modeFlag)
	if err != nil {
		return err
	}
	com := spi.FullDuplex
	if *half {
		com = spi.HalfDuplex
	}

	s, err := spi.Open(spi.Device(*ce), speed, mode, com, spi.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	if _, err := s.Write(tx); err != nil {
		return err
	}
	if com == spi.HalfDuplex {
		fmt.Fprintf(w, "wrote %d bytes\n", len(tx))
		return s.Flush()
	}
	rx := make([]byte, len(tx))
	if _, err := io.ReadFull(s, rx); err != nil {
		return err
	}
	fmt.Fprintln(w, hex.EncodeToString(rx))
	return nil
}

// parseHex joins its arguments and decodes them as hex, allowing an
// optional 0x prefix on each argument.
func parseHex(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(strings.TrimPrefix(strings.ToLower(a), "0x"))
	}
	if sb.Len() == 0 {
		return nil, xerrors.New("no bytes to send")
	}
	b, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, xerrors.Errorf("bad hex bytes: %w", err)
	}
	return b, nil
}
