// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const packageName = "textlcd"

var (
	// ErrInvalidLayout is returned for a Layout outside the supported set.
	ErrInvalidLayout = errors.New("textlcd: invalid layout")
	// ErrInvalidController is returned for an unknown Controller.
	ErrInvalidController = errors.New("textlcd: invalid controller")
	// ErrOutOfRange is returned when a cell lies outside the panel.
	ErrOutOfRange = errors.New("textlcd: cell out of range")
	// ErrNotImplemented is returned by display.TextDisplay methods the
	// controllers cannot provide.
	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)
)

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// Opts is the construction-time configuration of a Dev.
type Opts struct {
	Layout     Layout
	Controller Controller
	// Logger receives debug output. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
	// Sleep waits out the controller delays. Defaults to time.Sleep; an
	// emulated panel needs no delays and can pass a no-op.
	Sleep func(time.Duration)
}

// DefaultOpts is a 16x2 HD44780 panel.
var DefaultOpts = Opts{Layout: LCD16x2, Controller: HD44780}

// Dev is a character LCD.
//
// Every operation runs its whole command sequence, including the fixed
// controller delays, before returning. Bus errors do not interrupt a
// sequence; the first one is returned once the sequence is done, so the
// logical cursor state is the same whether or not the panel answered.
type Dev struct {
	mu     sync.Mutex
	bus    Bus
	bw     io.ByteWriter
	layout Layout
	ctrl   Controller
	log    logrus.FieldLogger
	sleep  func(time.Duration)

	active    Ctrl
	col       int
	row       int
	mode      DisplayMode
	cursor    CursorMode
	backlight bool
	err       error
}

// New initializes the panel behind bus and returns it. Use the NewGPIO,
// NewI2C, NewSPI and NewNativeSPI helpers for the stock transports.
//
// A bus error during initialization is returned along with the Dev, which
// stays usable.
func New(bus Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if !opts.Layout.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLayout, int(opts.Layout))
	}
	if !opts.Controller.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidController, int(opts.Controller))
	}
	l := opts.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	d := &Dev{
		bus:    bus,
		layout: opts.Layout,
		ctrl:   opts.Controller,
		log:    l.WithFields(logrus.Fields{"layout": opts.Layout, "controller": opts.Controller}),
		mode:   DisplayOn,
		cursor: CursorOffBlinkOff,
		sleep:  opts.Sleep,
	}
	if d.sleep == nil {
		d.sleep = func(t time.Duration) { sleep(t) }
	}
	if bw, ok := bus.(io.ByteWriter); ok {
		d.bw = bw
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	return d, d.flush()
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s %s on %v}", packageName, d.layout, d.ctrl, d.bus)
}

// Layout returns the configured panel layout.
func (d *Dev) Layout() Layout {
	return d.layout
}

// Controller returns the configured controller kind.
func (d *Dev) Controller() Controller {
	return d.ctrl
}

// Rows returns the number of rows of the panel.
func (d *Dev) Rows() int {
	return d.layout.Rows()
}

// Cols returns the number of columns of the panel.
func (d *Dev) Cols() int {
	return d.layout.Cols()
}

// Position returns the 0-based cursor cell, where the next character goes.
func (d *Dev) Position() (col, row int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.col, d.row
}

// Active returns the controller that received the last command.
func (d *Dev) Active() Ctrl {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Clear blanks the panel and moves the cursor to (0,0).
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clear()
	return d.flush()
}

// Locate moves the cursor to (col, row). Out of range values saturate.
func (d *Dev) Locate(col, row int) error {
	return d.SetAddress(col, row)
}

// SetAddress clamps (col, row) to the panel, makes it the cursor cell and
// points the controller at it.
func (d *Dev) SetAddress(col, row int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setAddress(col, row)
	return d.flush()
}

// Address returns the DDRAM address of (col, row) without moving the
// cursor. On an LCD40x4 it selects the controller owning row first, which
// may send cursor commands to both controllers.
func (d *Dev) Address(col, row int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr, err := d.address(col, row)
	if ferr := d.flush(); err == nil {
		err = ferr
	}
	return addr, err
}

// SetCursor sets the cursor mode of the active controller and remembers it
// for the other one.
func (d *Dev) SetCursor(m CursorMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setCursor(m & CursorOnBlinkOn)
	return d.flush()
}

// CursorMode returns the saved cursor mode.
func (d *Dev) CursorMode() CursorMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// SetMode switches the whole panel on or off.
func (d *Dev) SetMode(m DisplayMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setMode(m & DisplayOn)
	return d.flush()
}

// Mode returns the current display mode.
func (d *Dev) Mode() DisplayMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SetBacklight switches the backlight. It is a no-op on transports without
// a backlight line.
func (d *Dev) SetBacklight(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backlight = on
	d.fail(d.bus.SetBacklight(on))
	return d.flush()
}

// SetGlyph stores the 5x8 pattern g as user character index (0..7; higher
// bits are ignored). Writing byte index afterwards shows the glyph. On an
// LCD40x4 both controllers get the glyph.
func (d *Dev) SetGlyph(index byte, g Glyph) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	index &= 0x07
	if d.layout.Controllers() == 2 {
		saved := d.active
		// The active controller goes last so it stays the one addressed.
		for _, c := range []Ctrl{1 - saved, saved} {
			d.active = c
			d.setGlyph(index, &g)
		}
	} else {
		d.setGlyph(index, &g)
	}
	return d.flush()
}

// WriteByte puts one character at the cursor and advances it. '\n' moves to
// the start of the next row without writing. Rows and columns wrap.
func (d *Dev) WriteByte(c byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.put(c)
	return d.flush()
}

// Write puts every byte of p. It always consumes all of p.
func (d *Dev) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range p {
		d.put(c)
	}
	return len(p), d.flush()
}

// WriteString is Write for a string.
func (d *Dev) WriteString(s string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < len(s); i++ {
		d.put(s[i])
	}
	return len(s), d.flush()
}

// Printf formats according to format and writes the result.
func (d *Dev) Printf(format string, a ...any) (int, error) {
	return d.WriteString(fmt.Sprintf(format, a...))
}

// Halt clears the panel, switches it and the backlight off and releases the
// lines owned by the transport.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clear()
	d.backlight = false
	d.fail(d.bus.SetBacklight(false))
	d.setMode(DisplayOff)
	if r, ok := d.bus.(conn.Resource); ok {
		d.fail(r.Halt())
	}
	return d.flush()
}

// fail records the first error of the running operation.
func (d *Dev) fail(err error) {
	if err != nil && d.err == nil {
		d.err = err
		d.log.WithError(err).Warn("bus error")
	}
}

func (d *Dev) flush() error {
	err := d.err
	d.err = nil
	return wrap(err)
}

func (d *Dev) init() {
	d.log.Debug("initializing")
	if d.layout.Controllers() == 2 {
		d.active = Secondary
		d.initCtrl()
		d.clearCtrl()
	}
	d.active = Primary
	d.initCtrl()
	d.clearCtrl()
	d.col, d.row = 0, 0
}

// initCtrl runs the power-up sequence on the active controller.
func (d *Dev) initCtrl() {
	d.setRS(false)
	d.sleep(delayPowerUp)
	// The controller may still be in 8-bit mode, where each nibble is a
	// whole function-set instruction.
	for range 3 {
		d.writeNibble(nibble8Bit)
		d.sleep(delayHandshake)
	}
	d.writeNibble(nibble4Bit)
	d.sleep(delayExec)

	for _, s := range bringUp[d.ctrl] {
		if s.raw {
			d.writeByte(s.b)
		} else {
			d.writeCommand(s.b)
		}
		d.sleep(s.wait)
	}
	for _, c := range d.layout.functionSet() {
		d.writeCommand(c)
	}
	d.writeCommand(cmdEntryMode | entryIncrement)
	d.setCursor(CursorOffBlinkOff)
	d.setMode(DisplayOn)
	d.log.WithField("ctrl", d.active).Debug("controller ready")
}

func (d *Dev) clearCtrl() {
	d.writeCommand(cmdClear)
	d.sleep(delayClear)
}

func (d *Dev) clear() {
	if d.layout.Controllers() == 2 {
		d.active = Secondary
		d.control(d.mode, CursorOffBlinkOff)
		d.clearCtrl()
		d.active = Primary
	}
	d.clearCtrl()
	if d.layout.Controllers() == 2 {
		d.control(d.mode, d.cursor)
	}
	d.col, d.row = 0, 0
}

func (d *Dev) setCursor(m CursorMode) {
	d.cursor = m
	d.control(d.mode, d.cursor)
}

func (d *Dev) setMode(m DisplayMode) {
	d.mode = m
	if d.layout.Controllers() == 1 {
		d.control(d.mode, d.cursor)
		return
	}
	// Only the active controller shows a cursor.
	cur := d.active
	for _, c := range []Ctrl{Primary, Secondary} {
		d.active = c
		if c == cur {
			d.control(d.mode, d.cursor)
		} else {
			d.control(d.mode, CursorOffBlinkOff)
		}
	}
	d.active = cur
}

func (d *Dev) control(m DisplayMode, c CursorMode) {
	d.writeCommand(cmdDisplayControl | byte(m) | byte(c))
}

// resolveController makes the controller owning row the active one. The
// outgoing controller hides its cursor and the incoming one gets the saved
// cursor mode.
func (d *Dev) resolveController(row int) {
	want := d.layout.ControllerFor(row)
	if want == d.active {
		return
	}
	d.control(d.mode, CursorOffBlinkOff)
	d.active = want
	d.control(d.mode, d.cursor)
	d.log.WithField("ctrl", want).Trace("switched controller")
}

func (d *Dev) address(col, row int) (int, error) {
	off, err := d.layout.Offset(col, row)
	if err != nil {
		return 0, err
	}
	d.resolveController(row)
	return off, nil
}

func (d *Dev) setAddress(col, row int) {
	d.col = clamp(col, d.layout.Cols())
	d.row = clamp(row, d.layout.Rows())
	d.seek()
}

// seek points the controller at the cursor cell.
func (d *Dev) seek() {
	addr, err := d.address(d.col, d.row)
	if err != nil {
		// The cursor is always inside the panel.
		panic(err)
	}
	d.writeCommand(cmdSetDDRAM | byte(addr))
}

func (d *Dev) put(c byte) {
	if c == '\n' {
		d.col = 0
		d.row = (d.row + 1) % d.layout.Rows()
	} else {
		if d.layout.ControllerFor(d.row) != d.active {
			// Address may have selected the other controller.
			d.seek()
		}
		d.writeData(c)
		d.col++
		if d.col >= d.layout.Cols() {
			d.col = 0
			d.row = (d.row + 1) % d.layout.Rows()
		}
	}
	d.seek()
}

// setGlyph programs CGRAM of the active controller and returns it to DDRAM
// addressing at the cursor cell.
func (d *Dev) setGlyph(index byte, g *Glyph) {
	d.writeCommand(cmdSetCGRAM + index<<3)
	for _, b := range g {
		d.writeData(b)
	}
	off, _ := d.layout.Offset(d.col, d.row)
	d.writeCommand(cmdSetDDRAM | byte(off))
}

func (d *Dev) writeCommand(c byte) {
	d.setRS(false)
	d.sleep(delaySetup)
	d.writeByte(c)
	d.sleep(delayExec)
}

func (d *Dev) writeData(b byte) {
	d.setRS(true)
	d.sleep(delaySetup)
	d.writeByte(b)
	d.sleep(delayExec)
}

// writeByte sends b high nibble first, or whole on a byte-wide transport.
func (d *Dev) writeByte(b byte) {
	if d.bw != nil {
		d.fail(d.bw.WriteByte(b))
		return
	}
	d.writeNibble(b >> 4)
	d.writeNibble(b)
}

// writeNibble latches the low 4 bits of v on the falling edge of enable.
func (d *Dev) writeNibble(v byte) {
	d.fail(d.bus.SetEnable(d.active, true))
	d.fail(d.bus.SetData(v & 0x0f))
	d.sleep(delaySetup)
	d.fail(d.bus.SetEnable(d.active, false))
	d.sleep(delaySetup)
}

func (d *Dev) setRS(data bool) {
	d.fail(d.bus.SetRS(data))
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

var sleep = time.Sleep

var _ conn.Resource = &Dev{}
var _ io.Writer = &Dev{}
var _ io.ByteWriter = &Dev{}
var _ io.StringWriter = &Dev{}
