// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TermOpts represents the options of a Terminal.
type TermOpts struct {
	// W defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette

	_ struct{}
}

var (
	bezelOn  = color.NRGBA{0x20, 0x50, 0xe0, 0xff}
	bezelOff = color.NRGBA{0x30, 0x30, 0x30, 0xff}
)

// Terminal shows a Panel on a console using ANSI color codes. The frame is
// redrawn in place on every Refresh.
type Terminal struct {
	p       *Panel
	w       io.Writer
	palette ansi256.Palette
	drawn   bool
	buf     bytes.Buffer
}

// NewTerminal returns a Terminal showing p.
func NewTerminal(p *Panel, opts *TermOpts) *Terminal {
	if opts == nil {
		opts = &TermOpts{}
	}
	pal := opts.Palette
	if pal == nil {
		pal = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Terminal{p: p, w: w, palette: *pal}
}

func (t *Terminal) String() string {
	return "lcdsim.Terminal"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

// Refresh draws the current panel contents.
func (t *Terminal) Refresh() error {
	t.buf.Reset()
	if t.drawn {
		// Back to the top left corner of the previous frame.
		fmt.Fprintf(&t.buf, "\033[%dA\r", t.p.Layout().Rows()+2)
	}
	t.p.render(&t.buf, &t.palette)
	t.drawn = true
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Render writes one frame of the panel to w with the default palette.
func (p *Panel) Render(w io.Writer) error {
	var buf bytes.Buffer
	p.render(&buf, ansi256.Default)
	_, err := buf.WriteTo(w)
	return err
}

func (p *Panel) render(buf *bytes.Buffer, pal *ansi256.Palette) {
	lines := p.Lines()
	p.mu.Lock()
	bezel := bezelOff
	if p.backlight {
		bezel = bezelOn
	}
	col, row, cursor := p.cursor()
	on := make([]bool, len(lines))
	for r := range on {
		on[r] = p.ctrls[p.layout.ControllerFor(r)].Display
	}
	p.mu.Unlock()

	edge := pal.Block(bezel)
	border := func() {
		for i := 0; i < p.layout.Cols()+2; i++ {
			_, _ = io.WriteString(buf, edge)
		}
		_, _ = buf.WriteString("\033[0m\n")
	}
	border()
	for r, line := range lines {
		_, _ = io.WriteString(buf, edge)
		_, _ = buf.WriteString("\033[0m")
		for c := 0; c < len(line); c++ {
			ch := ' '
			if on[r] {
				ch = printable(line[c])
			}
			if cursor && c == col && r == row {
				fmt.Fprintf(buf, "\033[7m%c\033[27m", ch)
			} else {
				_, _ = buf.WriteRune(ch)
			}
		}
		_, _ = io.WriteString(buf, edge)
		_, _ = buf.WriteString("\033[0m\n")
	}
	border()
}

// printable maps a character code of the A00 character ROM to a rune a
// terminal can show.
func printable(c byte) rune {
	switch {
	case c < 0x10:
		// CGRAM
		return '▒'
	case c == 0x7e:
		return '→'
	case c == 0x7f:
		return '←'
	case c == 0xdf:
		return '°'
	case c == 0xff:
		return '█'
	case c >= 0x20 && c < 0x7e:
		return rune(c)
	}
	return '·'
}
