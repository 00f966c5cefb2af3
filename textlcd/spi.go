// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"errors"
	"io"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// nativeSPI talks to a controller with a built-in serial port, like the
// ST7032. Bytes go out whole, so the enable and data lines do not exist.
type nativeSPI struct {
	c  spi.Conn
	cs gpio.PinOut
	rs gpio.PinOut
	bl gpio.PinOut
	w  []byte

	sleep func(time.Duration)
}

// NewNativeSPI returns a Dev for a controller with a native SPI port.
//
// conn should be configured for 8 bits in spi.Mode0 at up to 1MHz. cs is
// optional when conn drives the chip select. rs is required. bl is the
// optional backlight line. The controller kind in opts should normally be
// ST7032.
func NewNativeSPI(c spi.Conn, cs, rs, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if rs == nil {
		return nil, wrap(errors.New("missing RS pin"))
	}
	n := &nativeSPI{c: c, cs: cs, rs: rs, bl: bl, w: make([]byte, 1), sleep: func(t time.Duration) { sleep(t) }}
	if opts != nil && opts.Sleep != nil {
		n.sleep = opts.Sleep
	}
	if bl != nil {
		if err := bl.Out(gpio.Low); err != nil {
			return nil, wrap(err)
		}
	}
	// 8-bit bus, 2 lines, instruction table 1.
	if err := n.WriteByte(0x39); err != nil {
		return nil, wrap(err)
	}
	n.sleep(30 * time.Microsecond)
	return New(n, opts)
}

func (n *nativeSPI) SetEnable(Ctrl, bool) error { return nil }

func (n *nativeSPI) SetData(byte) error { return nil }

func (n *nativeSPI) SetRS(data bool) error {
	return n.rs.Out(gpio.Level(data))
}

func (n *nativeSPI) SetBacklight(on bool) error {
	if n.bl == nil {
		return nil
	}
	return n.bl.Out(gpio.Level(on))
}

// WriteByte sends b with the chip select held low.
func (n *nativeSPI) WriteByte(b byte) error {
	n.w[0] = b
	return latched(n.cs, func() error {
		n.sleep(delaySetup)
		err := n.c.Tx(n.w, nil)
		n.sleep(delaySetup)
		return err
	})
}

func (n *nativeSPI) String() string {
	return "spi(native)"
}

func (n *nativeSPI) Halt() error {
	if n.bl != nil {
		_ = n.bl.Out(gpio.Low)
	}
	n.bl = nil
	return nil
}

var _ Bus = &nativeSPI{}
var _ io.ByteWriter = &nativeSPI{}
var _ conn.Resource = &nativeSPI{}
