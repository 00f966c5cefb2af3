// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"errors"
	"testing"
)

func TestOffset(t *testing.T) {
	for _, tc := range []struct {
		l        Layout
		col, row int
		want     int
	}{
		{LCD8x1, 7, 0, 0x07},
		{LCD8x2, 3, 1, 0x43},
		{LCD8x2B, 3, 1, 0x0b},
		{LCD12x2, 11, 1, 0x4b},
		{LCD12x4, 0, 2, 0x0c},
		{LCD12x4, 5, 3, 0x51},
		{LCD16x1, 7, 0, 0x07},
		{LCD16x1, 8, 0, 0x40},
		{LCD16x1, 15, 0, 0x47},
		{LCD16x2, 15, 1, 0x4f},
		{LCD16x2B, 0, 1, 40},
		{LCD16x4, 0, 2, 0x10},
		{LCD16x4, 15, 3, 0x5f},
		{LCD20x2, 19, 1, 0x53},
		{LCD20x4, 0, 2, 0x14},
		{LCD20x4, 19, 3, 0x67},
		{LCD24x2, 23, 1, 0x57},
		{LCD24x4, 0, 1, 0x20},
		{LCD24x4, 23, 3, 0x77},
		{LCD40x2, 39, 1, 0x67},
		{LCD40x4, 39, 1, 0x67},
		{LCD40x4, 0, 2, 0x00},
		{LCD40x4, 10, 3, 0x4a},
	} {
		got, err := tc.l.Offset(tc.col, tc.row)
		if err != nil {
			t.Errorf("%s.Offset(%d,%d): %v", tc.l, tc.col, tc.row, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s.Offset(%d,%d) = %#x, want %#x", tc.l, tc.col, tc.row, got, tc.want)
		}
	}
}

func TestOffsetOutOfRange(t *testing.T) {
	for _, l := range Layouts() {
		for _, p := range [][2]int{{-1, 0}, {0, -1}, {l.Cols(), 0}, {0, l.Rows()}} {
			if _, err := l.Offset(p[0], p[1]); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("%s.Offset(%d,%d) = %v", l, p[0], p[1], err)
			}
		}
	}
	if _, err := Layout(42).Offset(0, 0); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("got %v", err)
	}
}

// Every cell maps to a distinct DDRAM address of its controller.
func TestOffsetUnique(t *testing.T) {
	for _, l := range Layouts() {
		seen := map[[2]int][2]int{}
		for row := 0; row < l.Rows(); row++ {
			for col := 0; col < l.Cols(); col++ {
				off, err := l.Offset(col, row)
				if err != nil {
					t.Fatal(err)
				}
				if off < 0 || off > 0x7f {
					t.Errorf("%s (%d,%d) = %#x outside DDRAM", l, col, row, off)
				}
				k := [2]int{int(l.ControllerFor(row)), off}
				if prev, ok := seen[k]; ok {
					t.Errorf("%s (%d,%d) collides with %v", l, col, row, prev)
				}
				seen[k] = [2]int{col, row}
			}
		}
	}
}

func TestLayoutGeometry(t *testing.T) {
	if n := len(Layouts()); n != 15 {
		t.Errorf("%d layouts", n)
	}
	if LCD40x4.Controllers() != 2 || LCD20x4.Controllers() != 1 {
		t.Error("Controllers()")
	}
	if LCD40x4.ControllerFor(1) != Primary || LCD40x4.ControllerFor(2) != Secondary {
		t.Error("ControllerFor")
	}
	if LCD20x4.ControllerFor(3) != Primary {
		t.Error("single controller layouts only use the primary")
	}
	if s := LCD24x4.Scheme().String(); s != "KS0078-extended" {
		t.Errorf("scheme %q", s)
	}
	if s := Layout(99).String(); s != "Layout(99)" {
		t.Errorf("%q", s)
	}
	if LCD16x1.Cols() != 16 || LCD16x1.Rows() != 1 {
		t.Error("LCD16x1 size")
	}
}
