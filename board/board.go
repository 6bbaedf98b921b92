// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package board extracts information about the Raspberry Pi hardware from
// the revision code the firmware reports in /proc/cpuinfo.
//
// Only new-style revision codes (bit 23 set) are decoded:
//
//	bits  0-3   revision
//	bits  4-11  type
//	bits 12-15  processor
//	bits 16-19  manufacturer
//	bits 20-22  memory size
//	bit  23     new-style flag
package board // import "github.com/piio/piio/board"

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
	"periph.io/x/host/v3/distro"
)

// CPUInfoPath is where the kernel reports the revision code.
const CPUInfoPath = "/proc/cpuinfo"

var (
	// ErrNoRevision is returned when the input has no Revision line.
	ErrNoRevision = xerrors.New("board: no Revision line")

	// ErrOldRevision is returned for old-style revision codes.
	ErrOldRevision = xerrors.New("board: found old revision style which is not supported yet")

	// ErrUnknownField is returned when a field of the revision code has
	// no known meaning.
	ErrUnknownField = xerrors.New("board: unknown revision field value")
)

type MemorySize int

const (
	MB256  MemorySize = 0
	MB512  MemorySize = 1
	MB1024 MemorySize = 2
)

func (m MemorySize) String() string {
	switch m {
	case MB256:
		return "256MB"
	case MB512:
		return "512MB"
	case MB1024:
		return "1024MB"
	}
	return fmt.Sprintf("MemorySize(%d)", int(m))
}

type Manufacturer int

const (
	SonyUK    Manufacturer = 0
	Egoman    Manufacturer = 1
	Embest    Manufacturer = 2
	SonyJapan Manufacturer = 3
)

var manufacturerNames = [...]string{"SonyUK", "Egoman", "Embest", "SonyJapan"}

func (m Manufacturer) String() string {
	if m >= 0 && int(m) < len(manufacturerNames) {
		return manufacturerNames[m]
	}
	return fmt.Sprintf("Manufacturer(%d)", int(m))
}

type Processor int

const (
	BCM2835 Processor = 0
	BCM2836 Processor = 1
	BCM2837 Processor = 2
)

func (p Processor) String() string {
	if p >= BCM2835 && p <= BCM2837 {
		return fmt.Sprintf("BCM283%d", 5+int(p))
	}
	return fmt.Sprintf("Processor(%d)", int(p))
}

// Type is the board model.
type Type int

const (
	A     Type = 0
	B     Type = 1
	APlus Type = 2
	BPlus Type = 3
	B2    Type = 4
	Alpha Type = 5
	CM1   Type = 6
	B3    Type = 8
	Zero  Type = 9
	CM3   Type = 0xa
	ZeroW Type = 0xc
)

var typeNames = map[Type]string{
	A:     "A",
	B:     "B",
	APlus: "APlus",
	BPlus: "BPlus",
	B2:    "B2",
	Alpha: "Alpha",
	CM1:   "CM1",
	B3:    "B3",
	Zero:  "Zero",
	CM3:   "CM3",
	ZeroW: "ZeroW",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Info is the decoded revision code.
type Info struct {
	Memory       MemorySize
	Manufacturer Manufacturer
	Processor    Processor
	Type         Type
	Revision     int
	// Code is the raw revision code.
	Code uint32
}

func (i Info) String() string {
	return fmt.Sprintf("Raspberry Pi %v rev 1.%d, %v, %v, made by %v", i.Type, i.Revision, i.Processor, i.Memory, i.Manufacturer)
}

// Decode decodes a new-style revision code.
func Decode(code uint32) (Info, error) {
	if code>>23&1 == 0 {
		return Info{}, xerrors.Errorf("board: revision %x: %w", code, ErrOldRevision)
	}
	info := Info{
		Memory:       MemorySize(code >> 20 & 0x7),
		Manufacturer: Manufacturer(code >> 16 & 0xf),
		Processor:    Processor(code >> 12 & 0xf),
		Type:         Type(code >> 4 & 0xff),
		Revision:     int(code & 0xf),
		Code:         code,
	}
	switch {
	case info.Memory > MB1024:
		return Info{}, xerrors.Errorf("board: revision %x: memory size %d: %w", code, int(info.Memory), ErrUnknownField)
	case info.Manufacturer > SonyJapan:
		return Info{}, xerrors.Errorf("board: revision %x: manufacturer %d: %w", code, int(info.Manufacturer), ErrUnknownField)
	case info.Processor > BCM2837:
		return Info{}, xerrors.Errorf("board: revision %x: processor %d: %w", code, int(info.Processor), ErrUnknownField)
	}
	if _, ok := typeNames[info.Type]; !ok {
		return Info{}, xerrors.Errorf("board: revision %x: type %d: %w", code, int(info.Type), ErrUnknownField)
	}
	return info, nil
}

// Parse reads cpuinfo-formatted text and decodes the last Revision line.
func Parse(r io.Reader) (Info, error) {
	var rev string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.TrimSpace(key) == "Revision" {
			rev = strings.TrimSpace(val)
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, xerrors.Errorf("board: %w", err)
	}
	return decodeRevision(rev)
}

func decodeRevision(rev string) (Info, error) {
	if rev == "" {
		return Info{}, ErrNoRevision
	}
	code, err := strconv.ParseUint(rev, 16, 32)
	if err != nil {
		return Info{}, xerrors.Errorf("board: bad revision %q: %w", rev, err)
	}
	return Decode(uint32(code))
}

// cpuInfo is replaced in tests.
var cpuInfo = distro.CPUInfo

// ReadInfo decodes the Revision field of the host's /proc/cpuinfo, as
// parsed by periph.io's distro package.
func ReadInfo() (Info, error) {
	return decodeRevision(strings.TrimSpace(cpuInfo()["Revision"]))
}

// ReadInfoFrom parses the cpuinfo file at path.
func ReadInfoFrom(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	return Parse(f)
}
