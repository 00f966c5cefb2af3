// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import "fmt"

// Layout is the panel geometry: columns, rows and the way the controller
// maps cells onto DDRAM.
type Layout int

const (
	LCD8x1   Layout = iota // 8x1
	LCD8x2                 // 8x2
	LCD8x2B                // 8x2, wired as a 16x1 controller
	LCD12x2                // 12x2
	LCD12x4                // 12x4
	LCD16x1                // 16x1, wired as an 8x2 controller
	LCD16x2                // 16x2 (default)
	LCD16x2B               // 16x2, alternate addressing
	LCD16x4                // 16x4
	LCD20x2                // 20x2
	LCD20x4                // 20x4
	LCD24x2                // 24x2
	LCD24x4                // 24x4, KS0078 extended mode
	LCD40x2                // 40x2
	LCD40x4                // 40x4, two controllers each addressed as 40x2
)

// Scheme identifies the addressing family of a Layout.
type Scheme int

const (
	Linear Scheme = iota
	Split8x2
	Split16x1
	Banked4Line
	KS0078
	DualController
)

var schemeNames = [...]string{"linear", "split-8x2", "split-16x1", "4-line-banked", "KS0078-extended", "dual-controller"}

func (s Scheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
	return schemeNames[s]
}

type geometry struct {
	name   string
	cols   int
	rows   int
	scheme Scheme
	// per-row base address; nil means row*stride.
	bases  []int
	stride int
}

var layouts = [...]geometry{
	LCD8x1:   {name: "LCD8x1", cols: 8, rows: 1, scheme: Linear, stride: 0x40},
	LCD8x2:   {name: "LCD8x2", cols: 8, rows: 2, scheme: Linear, stride: 0x40},
	LCD8x2B:  {name: "LCD8x2B", cols: 8, rows: 2, scheme: Split8x2, bases: []int{0x00, 0x08}},
	LCD12x2:  {name: "LCD12x2", cols: 12, rows: 2, scheme: Linear, stride: 0x40},
	LCD12x4:  {name: "LCD12x4", cols: 12, rows: 4, scheme: Banked4Line, bases: []int{0x00, 0x40, 0x0c, 0x4c}},
	LCD16x1:  {name: "LCD16x1", cols: 16, rows: 1, scheme: Split16x1},
	LCD16x2:  {name: "LCD16x2", cols: 16, rows: 2, scheme: Linear, stride: 0x40},
	LCD16x2B: {name: "LCD16x2B", cols: 16, rows: 2, scheme: Linear, stride: 40},
	LCD16x4:  {name: "LCD16x4", cols: 16, rows: 4, scheme: Banked4Line, bases: []int{0x00, 0x40, 0x10, 0x50}},
	LCD20x2:  {name: "LCD20x2", cols: 20, rows: 2, scheme: Linear, stride: 0x40},
	LCD20x4:  {name: "LCD20x4", cols: 20, rows: 4, scheme: Banked4Line, bases: []int{0x00, 0x40, 0x14, 0x54}},
	LCD24x2:  {name: "LCD24x2", cols: 24, rows: 2, scheme: Linear, stride: 0x40},
	LCD24x4:  {name: "LCD24x4", cols: 24, rows: 4, scheme: KS0078, bases: []int{0x00, 0x20, 0x40, 0x60}},
	LCD40x2:  {name: "LCD40x2", cols: 40, rows: 2, scheme: Linear, stride: 0x40},
	LCD40x4:  {name: "LCD40x4", cols: 40, rows: 4, scheme: DualController, stride: 0x40},
}

// Layouts returns every supported layout in declaration order.
func Layouts() []Layout {
	l := make([]Layout, len(layouts))
	for i := range layouts {
		l[i] = Layout(i)
	}
	return l
}

// Valid reports whether l is one of the supported layouts.
func (l Layout) Valid() bool {
	return l >= 0 && int(l) < len(layouts)
}

func (l Layout) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Layout(%d)", int(l))
	}
	return layouts[l].name
}

// Cols returns the number of character columns, or 0 for an invalid layout.
func (l Layout) Cols() int {
	if !l.Valid() {
		return 0
	}
	return layouts[l].cols
}

// Rows returns the number of character rows, or 0 for an invalid layout.
func (l Layout) Rows() int {
	if !l.Valid() {
		return 0
	}
	return layouts[l].rows
}

// Scheme returns the addressing family of the layout.
func (l Layout) Scheme() Scheme {
	if !l.Valid() {
		return Linear
	}
	return layouts[l].scheme
}

// Controllers returns the number of controller chips driving the panel.
func (l Layout) Controllers() int {
	if l.Scheme() == DualController {
		return 2
	}
	return 1
}

// ControllerFor returns the controller responsible for row. Only the
// dual-controller layout ever returns Secondary.
func (l Layout) ControllerFor(row int) Ctrl {
	if l.Scheme() == DualController && row >= 2 {
		return Secondary
	}
	return Primary
}

// Offset returns the DDRAM address of the cell at (col, row), both 0-based,
// in the address space of the controller returned by ControllerFor.
//
// Cells outside the panel return ErrOutOfRange.
func (l Layout) Offset(col, row int) (int, error) {
	if !l.Valid() {
		return 0, ErrInvalidLayout
	}
	g := &layouts[l]
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return 0, fmt.Errorf("%w: (%d,%d) on %s", ErrOutOfRange, col, row, g.name)
	}
	switch g.scheme {
	case Split16x1:
		if col < 8 {
			return col, nil
		}
		return 0x40 + col - 8, nil
	case DualController:
		return (row%2)*g.stride + col, nil
	}
	if g.bases != nil {
		return g.bases[row] + col, nil
	}
	return row*g.stride + col, nil
}

// functionSet returns the function-set commands that configure the line count
// for the layout on a 4-bit bus.
func (l Layout) functionSet() []byte {
	switch l {
	case LCD8x1, LCD8x2B:
		// 1 line, 5x7 font
		return []byte{cmdFunctionSet}
	case LCD24x4:
		// RE=0 DH=1; RE=1 DH=1; extended function set NW=1 (4 lines); RE=0
		return []byte{0x2a, 0x2e, 0x09, 0x2a}
	default:
		// 2 lines, 5x7 font
		return []byte{cmdFunctionSet | fn2Lines}
	}
}
