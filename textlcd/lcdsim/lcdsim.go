// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates HD44780 family character panels behind a
// textlcd.Bus.
//
// The emulator decodes the bus lines the way the controllers do: nibbles are
// latched on the falling edge of the enable line, the controller powers up in
// 8-bit mode and follows the 4-bit handshake. DDRAM, CGRAM and the display
// control state are kept per controller, so the contents of a panel can be
// checked or shown on a terminal or as an image while the real hardware is
// still in the mail.
package lcdsim

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/GermanBionicSystems/dashlcd/textlcd"
	"periph.io/x/conn/v3"
)

// OpKind is the bus primitive of an Op.
type OpKind int

const (
	Enable OpKind = iota
	RS
	Backlight
	Data
	Byte
)

var opNames = [...]string{"E", "RS", "BL", "D", "B"}

func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opNames) {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
	return opNames[k]
}

// Op is one primitive call received from the driver.
type Op struct {
	Kind  OpKind
	Ctrl  textlcd.Ctrl // for Enable
	On    bool         // for Enable, RS and Backlight
	Value byte         // for Data and Byte
}

func (o Op) String() string {
	switch o.Kind {
	case Enable:
		return fmt.Sprintf("E%d=%t", int(o.Ctrl)+1, o.On)
	case Data, Byte:
		return fmt.Sprintf("%s=%#02x", o.Kind, o.Value)
	default:
		return fmt.Sprintf("%s=%t", o.Kind, o.On)
	}
}

// Transfer is one whole byte executed by a controller.
type Transfer struct {
	Ctrl  textlcd.Ctrl
	RS    bool // data register
	Value byte
}

// State is a snapshot of the registers of one controller.
type State struct {
	EightBit bool
	TwoLines bool
	// FourLine is the NW bit of the KS0078 extended function set.
	FourLine bool
	Display  bool
	Cursor   bool
	Blink    bool
	// CGRAM is true while the address counter points into CGRAM.
	CGRAM   bool
	Address int
	// Table is the selected ST703x instruction table.
	Table int
}

const (
	ddramSize = 0x80
	cgramSize = 0x40
)

type controller struct {
	State
	re      bool
	nibble  byte
	pending bool
	ddram   [ddramSize]byte
	cgram   [cgramSize]byte
}

func newController() *controller {
	c := &controller{State: State{EightBit: true}}
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
	return c
}

// Panel is an emulated panel. It implements textlcd.Bus.
type Panel struct {
	mu        sync.Mutex
	layout    textlcd.Layout
	kind      textlcd.Controller
	ctrls     []*controller
	rs        bool
	data      byte
	en        [2]bool
	backlight bool
	ops       []Op
	transfers []Transfer
	record    bool
}

// New returns a powered-up panel with the geometry of layout, built from
// controllers of the given kind.
func New(layout textlcd.Layout, kind textlcd.Controller) *Panel {
	p := &Panel{layout: layout, kind: kind, record: true}
	for i := 0; i < layout.Controllers(); i++ {
		p.ctrls = append(p.ctrls, newController())
	}
	return p
}

func (p *Panel) String() string {
	return fmt.Sprintf("lcdsim(%s %s)", p.layout, p.kind)
}

// Halt implements conn.Resource.
func (p *Panel) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backlight = false
	return nil
}

// SetRecording switches the Ops and Transfers logs on or off. Long running
// simulations turn it off to bound memory.
func (p *Panel) SetRecording(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record = on
	if !on {
		p.ops, p.transfers = nil, nil
	}
}

// SetEnable implements textlcd.Bus.
func (p *Panel) SetEnable(c textlcd.Ctrl, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log(Op{Kind: Enable, Ctrl: c, On: on})
	if int(c) >= len(p.ctrls) {
		// Not wired on a single controller panel.
		return nil
	}
	if p.en[c] && !on {
		p.latch(c, p.data)
	}
	p.en[c] = on
	return nil
}

// SetRS implements textlcd.Bus.
func (p *Panel) SetRS(data bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log(Op{Kind: RS, On: data})
	p.rs = data
	return nil
}

// SetBacklight implements textlcd.Bus.
func (p *Panel) SetBacklight(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log(Op{Kind: Backlight, On: on})
	p.backlight = on
	return nil
}

// SetData implements textlcd.Bus.
func (p *Panel) SetData(nibble byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log(Op{Kind: Data, Value: nibble})
	p.data = nibble & 0x0f
	return nil
}

// Native returns the panel as seen through a byte-wide serial port, like the
// one of an ST7032. Every byte goes to the primary controller.
func (p *Panel) Native() *NativePort {
	return &NativePort{p: p}
}

// NativePort is a Panel behind a native serial port. It implements
// textlcd.Bus and io.ByteWriter.
type NativePort struct {
	p *Panel
}

func (n *NativePort) SetEnable(textlcd.Ctrl, bool) error { return nil }

func (n *NativePort) SetData(byte) error { return nil }

func (n *NativePort) SetRS(data bool) error { return n.p.SetRS(data) }

func (n *NativePort) SetBacklight(on bool) error { return n.p.SetBacklight(on) }

// WriteByte executes b on the primary controller.
func (n *NativePort) WriteByte(b byte) error {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	n.p.log(Op{Kind: Byte, Value: b})
	n.p.exec(textlcd.Primary, b)
	return nil
}

func (n *NativePort) String() string {
	return n.p.String() + "/native"
}

// Ops returns the primitive calls received so far.
func (p *Panel) Ops() []Op {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Op(nil), p.ops...)
}

// Transfers returns the bytes executed so far, in order.
func (p *Panel) Transfers() []Transfer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Transfer(nil), p.transfers...)
}

// Reset clears the Ops and Transfers logs.
func (p *Panel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops, p.transfers = nil, nil
}

// Layout returns the panel geometry.
func (p *Panel) Layout() textlcd.Layout {
	return p.layout
}

// Backlight reports whether the backlight is on.
func (p *Panel) Backlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlight
}

// State returns the registers of controller c.
func (p *Panel) State(c textlcd.Ctrl) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctrls[c].State
}

// Glyph returns the CGRAM pattern of user character index of controller c.
func (p *Panel) Glyph(c textlcd.Ctrl, index byte) textlcd.Glyph {
	p.mu.Lock()
	defer p.mu.Unlock()
	var g textlcd.Glyph
	copy(g[:], p.ctrls[c].cgram[int(index&7)*8:])
	return g
}

// Cell returns the character code shown at (col, row).
func (p *Panel) Cell(col, row int) (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cell(col, row)
}

// Lines returns the DDRAM contents as seen through the layout, one string
// per row. User characters are returned as their raw codes.
func (p *Panel) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, p.layout.Rows())
	for row := range out {
		var b strings.Builder
		for col := 0; col < p.layout.Cols(); col++ {
			c, _ := p.cell(col, row)
			b.WriteByte(c)
		}
		out[row] = b.String()
	}
	return out
}

// Text returns Lines joined by newlines.
func (p *Panel) Text() string {
	return strings.Join(p.Lines(), "\n")
}

// Cursor returns the cell under the visible cursor. ok is false when the
// cursor is hidden, the display is off or the address counter is outside
// the visible cells.
func (p *Panel) Cursor() (col, row int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor()
}

func (p *Panel) cursor() (int, int, bool) {
	for row := 0; row < p.layout.Rows(); row++ {
		c := p.ctrls[p.layout.ControllerFor(row)]
		if !c.Display || c.CGRAM || !(c.Cursor || c.Blink) {
			continue
		}
		for col := 0; col < p.layout.Cols(); col++ {
			if off, _ := p.layout.Offset(col, row); off == c.Address {
				return col, row, true
			}
		}
	}
	return 0, 0, false
}

func (p *Panel) cell(col, row int) (byte, error) {
	off, err := p.layout.Offset(col, row)
	if err != nil {
		return 0, err
	}
	return p.ctrls[p.layout.ControllerFor(row)].ddram[off], nil
}

func (p *Panel) log(o Op) {
	if p.record {
		p.ops = append(p.ops, o)
	}
}

// latch clocks the data lines into controller i.
func (p *Panel) latch(i textlcd.Ctrl, nibble byte) {
	c := p.ctrls[i]
	if c.EightBit {
		// D0..D3 are not wired and read as 0.
		p.exec(i, nibble<<4)
		return
	}
	if !c.pending {
		c.nibble, c.pending = nibble, true
		return
	}
	c.pending = false
	p.exec(i, c.nibble<<4|nibble)
}

func (p *Panel) exec(i textlcd.Ctrl, b byte) {
	if p.record {
		p.transfers = append(p.transfers, Transfer{Ctrl: i, RS: p.rs, Value: b})
	}
	c := p.ctrls[i]
	if p.rs {
		c.write(b)
		return
	}
	p.command(c, b)
}

func (p *Panel) st703x() bool {
	return p.kind == textlcd.ST7036 || p.kind == textlcd.ST7032
}

func (p *Panel) command(c *controller, b byte) {
	switch {
	case b&0x80 != 0:
		c.CGRAM = false
		c.Address = int(b & 0x7f)
	case b&0x40 != 0:
		if p.st703x() && c.Table == 1 {
			// Icon, power, follower and contrast.
			return
		}
		c.CGRAM = true
		c.Address = int(b & 0x3f)
	case b&0x20 != 0:
		c.EightBit = b&0x10 != 0
		c.TwoLines = b&0x08 != 0
		if p.layout.Scheme() == textlcd.KS0078 {
			c.re = b&0x04 != 0
		}
		if p.st703x() {
			c.Table = int(b & 0x01)
		}
	case b&0x10 != 0:
		if p.st703x() && c.Table == 1 {
			// Bias and oscillator.
			return
		}
		if p.kind == textlcd.WS0010 && b&0x03 == 0x03 {
			// Character mode, power on.
			return
		}
		if b&0x08 == 0 {
			if b&0x04 != 0 {
				c.step(1)
			} else {
				c.step(-1)
			}
		}
	case b&0x08 != 0:
		if c.re {
			c.FourLine = b&0x01 != 0
			return
		}
		c.Display = b&0x04 != 0
		c.Cursor = b&0x02 != 0
		c.Blink = b&0x01 != 0
	case b&0x04 != 0:
		// Entry mode; the driver only uses increment without shift.
	case b&0x02 != 0:
		c.CGRAM = false
		c.Address = 0
	case b == 0x01:
		for i := range c.ddram {
			c.ddram[i] = ' '
		}
		c.CGRAM = false
		c.Address = 0
	}
}

func (c *controller) write(b byte) {
	if c.CGRAM {
		c.cgram[c.Address&(cgramSize-1)] = b & 0x1f
	} else {
		c.ddram[c.Address&(ddramSize-1)] = b
	}
	c.step(1)
}

func (c *controller) step(d int) {
	if c.CGRAM {
		c.Address = (c.Address + d) & (cgramSize - 1)
		return
	}
	c.Address = (c.Address + d) & (ddramSize - 1)
}

var _ textlcd.Bus = &Panel{}
var _ textlcd.Bus = &NativePort{}
var _ io.ByteWriter = &NativePort{}
var _ conn.Resource = &Panel{}
