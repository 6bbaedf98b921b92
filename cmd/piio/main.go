// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The piio command talks to the peripherals of a Raspberry Pi.
//
// Usage:
//
//	piio [-v] info [-cpuinfo path]
//	piio [-v] spi [-ce 0|1] [-speed 7.8MHz] [-mode 0] [-half] hexbytes...
//	piio [-v] gpio -pin N [-set high|low] [-root dir]
//	piio [-v] i2c [-bus N] -addr 0x39 -reg 0x8a [-word] [-write value]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"go.uber.org/zap"
)

type command func(logger *zap.Logger, w io.Writer, args []string) error

var commands = map[string]command{
	"info": runInfo,
	"spi":  runSPI,
	"gpio": runGPIO,
	"i2c":  runI2C,
}

var verbose = flag.Bool("v", false, "log debug output to stderr")

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(os.Stderr, "usage: piio [-v] command [flags] [args]\n\ncommands: %v\n", names)
	fmt.Fprintf(os.Stderr, "run 'piio command -h' for the flags of a command\n")
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("piio: ")

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		log.Printf("unknown command %q", flag.Arg(0))
		usage()
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := cmd(logger, os.Stdout, flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

// newLogger logs to stderr in the console format. Without verbose only
// warnings and errors are shown.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
