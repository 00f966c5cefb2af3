// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"fmt"

	"periph.io/x/conn/v3/display"
)

// AutoScroll is not supported by these controllers and returns
// ErrNotImplemented.
func (d *Dev) AutoScroll(enabled bool) error {
	return ErrNotImplemented
}

// Cursor sets the cursor mode. Modes combine, e.g.
// Cursor(display.CursorUnderline, display.CursorBlink).
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	var m CursorMode
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			m = CursorOffBlinkOff
		case display.CursorUnderline:
			m |= CursorOnBlinkOff
		case display.CursorBlink, display.CursorBlock:
			m |= CursorOffBlinkOn
		default:
			return fmt.Errorf("%s: unexpected cursor: %d", packageName, mode)
		}
	}
	return d.SetCursor(m)
}

// Home moves the cursor to (MinRow(), MinCol()).
func (d *Dev) Home() error {
	return d.Locate(0, 0)
}

// MinCol returns 1, the first column accepted by MoveTo.
func (d *Dev) MinCol() int {
	return 1
}

// MinRow returns 1, the first row accepted by MoveTo.
func (d *Dev) MinRow() int {
	return 1
}

// Move moves the cursor one cell. The cursor stops at the panel edges.
func (d *Dev) Move(dir display.CursorDirection) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	col, row := d.col, d.row
	switch dir {
	case display.Backward:
		col--
	case display.Forward:
		col++
	case display.Up:
		row--
	case display.Down:
		row++
	default:
		return ErrNotImplemented
	}
	d.setAddress(col, row)
	return d.flush()
}

// MoveTo moves the cursor to the 1-based (row, col).
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.Rows() || col < d.MinCol() || col > d.Cols() {
		return fmt.Errorf("%w: MoveTo(%d,%d)", ErrOutOfRange, row, col)
	}
	return d.Locate(col-1, row-1)
}

// Display turns the panel on or off.
func (d *Dev) Display(on bool) error {
	if on {
		return d.SetMode(DisplayOn)
	}
	return d.SetMode(DisplayOff)
}

// Backlight switches the backlight on for any non-zero intensity.
func (d *Dev) Backlight(intensity display.Intensity) error {
	return d.SetBacklight(intensity > 0)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
