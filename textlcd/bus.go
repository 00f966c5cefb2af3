// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Bus drives the signal lines of an HD44780-style 4-bit interface.
//
// A transport whose controller takes whole bytes, like a native SPI port,
// additionally implements io.ByteWriter; SetEnable and SetData are then
// no-ops.
//
// Optional lines that are not wired must be accepted silently.
type Bus interface {
	// SetEnable drives the enable (clock) line of controller c.
	SetEnable(c Ctrl, on bool) error
	// SetRS selects the data register when data is true, the instruction
	// register otherwise.
	SetRS(data bool) error
	// SetBacklight switches the backlight line.
	SetBacklight(on bool) error
	// SetData places the low 4 bits of nibble on D4..D7.
	SetData(nibble byte) error
}

// GPIOPins is the parallel wiring of a panel. BL and E2 are optional and can
// be left nil.
type GPIOPins struct {
	RS gpio.PinOut
	E  gpio.PinOut
	D  [4]gpio.PinOut // D4, D5, D6, D7
	BL gpio.PinOut
	E2 gpio.PinOut // enable of the second controller of an LCD40x4
}

// gpioBus drives the panel through host GPIO pins.
type gpioBus struct {
	pins GPIOPins
}

// NewGPIO returns a Dev for a panel wired directly to GPIO pins.
func NewGPIO(pins *GPIOPins, opts *Opts) (*Dev, error) {
	if pins == nil || pins.RS == nil || pins.E == nil {
		return nil, wrap(errors.New("missing RS or E pin"))
	}
	for i, p := range pins.D {
		if p == nil {
			return nil, wrap(fmt.Errorf("missing data pin D%d", i+4))
		}
	}
	b := &gpioBus{pins: *pins}
	if b.pins.BL != nil {
		if err := b.pins.BL.Out(gpio.Low); err != nil {
			return nil, wrap(err)
		}
	}
	if b.pins.E2 != nil {
		if err := b.pins.E2.Out(gpio.Low); err != nil {
			return nil, wrap(err)
		}
	}
	return New(b, opts)
}

func (b *gpioBus) SetEnable(c Ctrl, on bool) error {
	if c == Secondary {
		if b.pins.E2 == nil {
			return nil
		}
		return b.pins.E2.Out(gpio.Level(on))
	}
	return b.pins.E.Out(gpio.Level(on))
}

func (b *gpioBus) SetRS(data bool) error {
	return b.pins.RS.Out(gpio.Level(data))
}

func (b *gpioBus) SetBacklight(on bool) error {
	if b.pins.BL == nil {
		return nil
	}
	return b.pins.BL.Out(gpio.Level(on))
}

func (b *gpioBus) SetData(nibble byte) error {
	var err error
	for i, p := range b.pins.D {
		if e := p.Out(nibble&(1<<i) != 0); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (b *gpioBus) String() string {
	return fmt.Sprintf("gpio(RS=%s E=%s)", b.pins.RS, b.pins.E)
}

// Halt releases the optional lines owned by the bus.
func (b *gpioBus) Halt() error {
	if b.pins.BL != nil {
		_ = b.pins.BL.Out(gpio.Low)
	}
	b.pins.BL = nil
	b.pins.E2 = nil
	return nil
}

var _ Bus = &gpioBus{}
var _ conn.Resource = &gpioBus{}
