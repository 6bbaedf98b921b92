// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package i2c_test

import (
	"fmt"
	"log"

	"github.com/piio/piio/io/i2c"
)

func Example_open() {
	b, err := i2c.OpenBus(1)
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()

	if err := b.SetAddress(0x39); err != nil {
		log.Fatal(err)
	}
	id, err := b.ReadByteData(0x8A)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("id %#x\n", id)
}
