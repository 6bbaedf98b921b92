// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpio

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/piio/piio/io/gpio/driver"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"
)

// DefaultRoot is where the kernel mounts the sysfs GPIO interface.
const DefaultRoot = "/sys/class/gpio/"

// Sysfs is a GPIO driver that works on the sysfs export interface rooted
// at a given directory. Open uses it when WithRoot is given.
type Sysfs struct {
	// Root is the sysfs GPIO directory. Given the zero value,
	// DefaultRoot is used.
	Root string

	// ExportTimeout bounds the wait for the kernel (and udev) to make
	// a freshly exported pin writable. Given the zero value, one second
	// is used.
	ExportTimeout time.Duration
}

var _ driver.Opener = (*Sysfs)(nil)

func (d *Sysfs) root() string {
	if d.Root == "" {
		return DefaultRoot
	}
	return d.Root
}

// Open exports the pin. It returns ErrInUse if the pin was exported
// earlier, inside or outside of this program.
func (d *Sysfs) Open(pin int) (driver.Conn, error) {
	if pin < 0 {
		return nil, xerrors.Errorf("gpio: invalid pin %d", pin)
	}
	root := d.root()
	dir := filepath.Join(root, "gpio"+strconv.Itoa(pin))
	if _, err := os.Stat(dir); err == nil {
		return nil, xerrors.Errorf("gpio %d: %w", pin, ErrInUse)
	}
	if err := writeFile(filepath.Join(root, "export"), strconv.Itoa(pin)); err != nil {
		return nil, xerrors.Errorf("gpio %d: export: %w", pin, err)
	}
	c := &sysfsConn{root: root, dir: dir, pin: pin}
	if err := c.waitWritable(d.ExportTimeout); err != nil {
		return nil, multierr.Append(err, c.Close())
	}
	return c, nil
}

type sysfsConn struct {
	root string
	dir  string
	pin  int
}

// waitWritable polls the direction file until it can be opened for
// writing; udev may still be changing its ownership right after export.
func (c *sysfsConn) waitWritable(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.Now().Add(timeout)
	name := filepath.Join(c.dir, "direction")
	for {
		f, err := os.OpenFile(name, os.O_WRONLY, 0)
		if err == nil {
			return f.Close()
		}
		if time.Now().After(deadline) {
			return xerrors.Errorf("gpio %d: waiting for export: %w", c.pin, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (c *sysfsConn) Value() (int, error) {
	b, err := os.ReadFile(filepath.Join(c.dir, "value"))
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, xerrors.Errorf("gpio %d: empty value: %w", c.pin, ErrInvalidValue)
	}
	switch b[0] {
	case '0':
		return 0, nil
	case '1':
		return 1, nil
	}
	return 0, xerrors.Errorf("gpio %d: read %q: %w", c.pin, b[0], ErrInvalidValue)
}

func (c *sysfsConn) SetValue(v int) error {
	s := "0"
	if v != 0 {
		s = "1"
	}
	return writeFile(filepath.Join(c.dir, "value"), s)
}

func (c *sysfsConn) SetDirection(dir string) error {
	return writeFile(filepath.Join(c.dir, "direction"), dir)
}

func (c *sysfsConn) Close() error {
	return writeFile(filepath.Join(c.root, "unexport"), strconv.Itoa(c.pin))
}

// writeFile writes s to an existing sysfs attribute. Unlike os.WriteFile
// it never creates the file.
func writeFile(name, s string) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	_, err = f.WriteString(s)
	return multierr.Append(err, f.Close())
}
