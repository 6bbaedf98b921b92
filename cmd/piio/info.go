// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/piio/piio/board"
	"go.uber.org/zap"
)

func runInfo(logger *zap.Logger, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	path := fs.String("cpuinfo", "", "read the revision from this file instead of "+board.CPUInfoPath)
	if err := fs.Parse(args); err != nil {
		return err
	}
	var info board.Info
	var err error
	if *path == "" {
		info, err = board.ReadInfo()
	} else {
		logger.Debug("reading revision", zap.String("path", *path))
		info, err = board.ReadInfoFrom(*path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "revision:     %06x\n", info.Code)
	fmt.Fprintf(w, "type:         %v\n", info.Type)
	fmt.Fprintf(w, "board rev:    1.%d\n", info.Revision)
	fmt.Fprintf(w, "processor:    %v\n", info.Processor)
	fmt.Fprintf(w, "memory:       %v\n", info.Memory)
	fmt.Fprintf(w, "manufacturer: %v\n", info.Manufacturer)
	return nil
}
