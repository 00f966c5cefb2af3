// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

// NewTinyGoI2C is NewI2C for a TinyGo I2C bus such as machine.I2C0.
func NewTinyGoI2C(bus drivers.I2C, addr uint8, opts *Opts) (*Dev, error) {
	a := uint16(addr >> 1)
	w := make([]byte, 1)
	e, err := newExpander(fmt.Sprintf("PCF8574_%x", a), func(b byte) error {
		w[0] = b
		return bus.Tx(a, w, nil)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return New(e, opts)
}

// NewTinyGoSPI is NewSPI for a TinyGo SPI bus such as machine.SPI0.
func NewTinyGoSPI(bus drivers.SPI, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	w := make([]byte, 1)
	e, err := newExpander("74HC595", func(b byte) error {
		w[0] = b
		return latched(cs, func() error { return bus.Tx(w, nil) })
	})
	if err != nil {
		return nil, wrap(err)
	}
	return New(e, opts)
}
