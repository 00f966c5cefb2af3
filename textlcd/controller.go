// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"fmt"
	"time"
)

// Controller is the LCD controller chip. It only selects the DC/DC converter
// bring-up run after the 4-bit handshake; the command set is shared.
type Controller int

const (
	// HD44780 and compatibles with an external VLCD.
	HD44780 Controller = iota
	// WS0010 OLED controller with an internal DC/DC converter.
	WS0010
	// ST7036 with voltage booster and follower.
	ST7036
	// ST7032 with voltage booster and follower.
	ST7032
)

var controllerNames = [...]string{"HD44780", "WS0010", "ST7036", "ST7032"}

// Valid reports whether c is a supported controller.
func (c Controller) Valid() bool {
	return c >= 0 && int(c) < len(controllerNames)
}

func (c Controller) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Controller(%d)", int(c))
	}
	return controllerNames[c]
}

// Ctrl selects one of the controllers of a panel. Only LCD40x4 has a
// Secondary.
type Ctrl int

const (
	Primary Ctrl = iota
	Secondary
)

func (c Ctrl) String() string {
	if c == Secondary {
		return "secondary"
	}
	return "primary"
}

// CursorMode is the cursor and blink part of the display-control command.
type CursorMode byte

const (
	CursorOffBlinkOff CursorMode = 0x00
	CursorOnBlinkOff  CursorMode = 0x02
	CursorOffBlinkOn  CursorMode = 0x01
	CursorOnBlinkOn   CursorMode = 0x03
)

// DisplayMode is the display on/off part of the display-control command.
type DisplayMode byte

const (
	DisplayOff DisplayMode = 0x00
	DisplayOn  DisplayMode = 0x04
)

// Instruction set, shared by all supported controllers.
const (
	cmdClear          byte = 0x01
	cmdEntryMode      byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdFunctionSet    byte = 0x20
	cmdSetCGRAM       byte = 0x40
	cmdSetDDRAM       byte = 0x80

	entryIncrement byte = 0x02
	fn2Lines       byte = 0x08

	nibble8Bit byte = 0x3
	nibble4Bit byte = 0x2
)

// Worst-case execution times. The busy flag is never read since R/W is tied
// low on every supported wiring.
const (
	delayPowerUp   = 20 * time.Millisecond
	delayHandshake = 15 * time.Millisecond
	delayClear     = 10 * time.Millisecond
	delayExec      = 40 * time.Microsecond
	delaySetup     = time.Microsecond
)

// step is one DC/DC bring-up instruction. Raw steps go straight to the bus
// without the RS setup and execution delay of a command write.
type step struct {
	b    byte
	raw  bool
	wait time.Duration
}

var bringUp = map[Controller][]step{
	ST7036: {
		{b: 0x29, raw: true, wait: 30 * time.Millisecond},  // 4-bit, 2 lines, instruction table 1
		{b: 0x14, raw: true, wait: 30 * time.Millisecond},  // bias 1/5
		{b: 0x55, raw: true, wait: 30 * time.Millisecond},  // icon off, booster on, contrast C5 C4
		{b: 0x6d, raw: true, wait: 200 * time.Millisecond}, // follower on, Rab2..0
		{b: 0x78, raw: true, wait: 30 * time.Millisecond},  // contrast C3..C0
		{b: 0x28, raw: true, wait: 50 * time.Millisecond},  // instruction table 0
	},
	ST7032: {
		{b: 0x1c, raw: true, wait: 30 * time.Microsecond}, // oscillator 183Hz, bias 1/4
		{b: 0x73, raw: true, wait: 30 * time.Microsecond}, // contrast low
		{b: 0x57, raw: true, wait: 30 * time.Microsecond}, // booster on, icon off, contrast high
		{b: 0x6c, raw: true, wait: 50 * time.Microsecond}, // follower
		{b: 0x0c, raw: true, wait: 30 * time.Microsecond}, // display on
	},
	WS0010: {
		{b: 0x17, wait: 10 * time.Millisecond}, // character mode, DC/DC on
	},
}
