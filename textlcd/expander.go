// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

// Expander port bits. This is the wiring of the common PCF8574 and 74HC595
// backpacks; R/W must be held low in hardware. On dual-controller backpacks
// the R/W position carries E2.
const (
	ExpRS = 1 << 0
	ExpRW = 1 << 1
	ExpE  = 1 << 2
	ExpBL = 1 << 3
	ExpD4 = 1 << 4
	ExpD5 = 1 << 5
	ExpD6 = 1 << 6
	ExpD7 = 1 << 7

	ExpE2 = ExpRW

	expDataMask = ExpD4 | ExpD5 | ExpD6 | ExpD7
)

// DefaultI2CAddress is the 8-bit slave address of a PCF8574 with A0..A2 low.
const DefaultI2CAddress uint8 = 0x40

// lineMirror is the shadow of the expander port. The expander cannot be read
// back, so every line change is applied to the shadow and the whole byte is
// sent again.
type lineMirror struct {
	mu    sync.Mutex
	value byte
	tx    func(b byte) error
}

// update replaces the bits selected by mask with value and transmits the
// result. The shadow always holds the last byte put on the wire.
func (m *lineMirror) update(value, mask byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = (m.value &^ mask) | (value & mask)
	return m.tx(m.value)
}

func (m *lineMirror) set(mask byte, on bool) error {
	var v byte
	if on {
		v = mask
	}
	return m.update(v, mask)
}

func (m *lineMirror) reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = 0
	return m.tx(0)
}

// expander is a Bus over a serial-to-parallel port expander.
type expander struct {
	name  string
	lines lineMirror
}

func newExpander(name string, tx func(b byte) error) (*expander, error) {
	e := &expander{name: name, lines: lineMirror{tx: tx}}
	return e, e.lines.reset()
}

func (e *expander) SetEnable(c Ctrl, on bool) error {
	if c == Secondary {
		return e.lines.set(ExpE2, on)
	}
	return e.lines.set(ExpE, on)
}

func (e *expander) SetRS(data bool) error {
	return e.lines.set(ExpRS, data)
}

func (e *expander) SetBacklight(on bool) error {
	return e.lines.set(ExpBL, on)
}

func (e *expander) SetData(nibble byte) error {
	return e.lines.update((nibble&0x0f)<<4, expDataMask)
}

func (e *expander) String() string {
	return e.name
}

// Halt drives every expander output low.
func (e *expander) Halt() error {
	return e.lines.reset()
}

// Mirror returns the last byte sent to the expander.
func (e *expander) Mirror() byte {
	e.lines.mu.Lock()
	defer e.lines.mu.Unlock()
	return e.lines.value
}

// NewI2C returns a Dev for a panel behind a PCF8574 or PCF8574A I2C expander.
//
// addr is the 8-bit slave address as printed on most backpack datasheets,
// e.g. DefaultI2CAddress or 0x4E; the read/write bit is ignored.
func NewI2C(bus i2c.Bus, addr uint8, opts *Opts) (*Dev, error) {
	d := &i2c.Dev{Bus: bus, Addr: uint16(addr >> 1)}
	w := make([]byte, 1)
	e, err := newExpander(fmt.Sprintf("PCF8574_%x", d.Addr), func(b byte) error {
		w[0] = b
		return d.Tx(w, nil)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return New(e, opts)
}

// NewSPI returns a Dev for a panel behind a 74HC595 shift register.
//
// conn should be configured for 8 bits in spi.Mode0; common backpacks
// run at 500kHz. cs is the latch line, pulsed low around every byte; pass nil
// when conn drives the chip select itself.
func NewSPI(c spi.Conn, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	w := make([]byte, 1)
	e, err := newExpander("74HC595", func(b byte) error {
		w[0] = b
		return latched(cs, func() error { return c.Tx(w, nil) })
	})
	if err != nil {
		return nil, wrap(err)
	}
	return New(e, opts)
}

// latched runs f with cs held low. A nil cs runs f directly.
func latched(cs gpio.PinOut, f func() error) error {
	if cs == nil {
		return f()
	}
	if err := cs.Out(gpio.Low); err != nil {
		return err
	}
	err := f()
	if e := cs.Out(gpio.High); err == nil {
		err = e
	}
	return err
}

var _ Bus = &expander{}
var _ conn.Resource = &expander{}
