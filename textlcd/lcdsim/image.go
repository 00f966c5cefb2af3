// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Font selects how ROM characters are drawn in an image.
type Font int

const (
	// Basic draws characters with the 7x13 bitmap face.
	Basic Font = iota
	// GoRegular draws characters with the Go regular TrueType face scaled to
	// the cell.
	GoRegular
)

// ImageOpts represents the options of Image.
type ImageOpts struct {
	// Scale is the size in pixels of one dot. Defaults to 4.
	Scale int
	Font  Font
}

var (
	glassOn  = color.RGBA{0x30, 0x60, 0xf0, 0xff}
	glassOff = color.RGBA{0x20, 0x28, 0x30, 0xff}
	dotOn    = color.RGBA{0xf0, 0xf0, 0xff, 0xff}
	dotOff   = color.RGBA{0xff, 0xff, 0xff, 0x10}
)

// Image renders the panel. Every character cell is 5x8 dots with a one dot
// gap. User characters are drawn dot by dot from CGRAM; ROM characters use
// the font in opts.
func (p *Panel) Image(opts *ImageOpts) (image.Image, error) {
	o := ImageOpts{Scale: 4}
	if opts != nil {
		o = *opts
		if o.Scale <= 0 {
			o.Scale = 4
		}
	}
	lines := p.Lines()
	p.mu.Lock()
	backlight := p.backlight
	col, row, cursor := p.cursor()
	glyphs := make([][8][8]byte, len(p.ctrls))
	for i, c := range p.ctrls {
		for g := range glyphs[i] {
			copy(glyphs[i][g][:], c.cgram[g*8:])
		}
	}
	on := make([]bool, len(lines))
	for r := range on {
		on[r] = p.ctrls[p.layout.ControllerFor(r)].Display
	}
	p.mu.Unlock()

	s := float64(o.Scale)
	cellW, cellH := 6*o.Scale, 9*o.Scale
	w := (p.layout.Cols() + 2) * cellW
	h := (p.layout.Rows() + 2) * cellH
	dc := gg.NewContext(w, h)
	if backlight {
		dc.SetColor(glassOn)
	} else {
		dc.SetColor(glassOff)
	}
	dc.Clear()

	var face font.Face = basicfont.Face7x13
	if o.Font == GoRegular {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, err
		}
		face = truetype.NewFace(f, &truetype.Options{Size: 7 * s})
		dc.SetFontFace(face)
	}
	dst, _ := dc.Image().(draw.Image)

	for r, line := range lines {
		for c := 0; c < len(line); c++ {
			x0, y0 := (c+1)*cellW, (r+1)*cellH
			dc.SetColor(dotOff)
			dc.DrawRectangle(float64(x0), float64(y0), 5*s, 8*s)
			dc.Fill()
			if !on[r] {
				continue
			}
			ch := line[c]
			dc.SetColor(dotOn)
			switch {
			case ch < 0x10:
				g := glyphs[p.layout.ControllerFor(r)][ch&7]
				for y, bits := range g {
					for x := 0; x < 5; x++ {
						if bits&(0x10>>x) != 0 {
							dc.DrawRectangle(float64(x0+x*o.Scale), float64(y0+y*o.Scale), s-1, s-1)
						}
					}
				}
				dc.Fill()
			case o.Font == GoRegular:
				dc.DrawStringAnchored(string(printable(ch)), float64(x0)+2.5*s, float64(y0)+4*s, 0.5, 0.5)
			case dst != nil:
				d := font.Drawer{
					Dst:  dst,
					Src:  image.NewUniform(dotOn),
					Face: face,
					Dot:  fixed.P(x0+(5*o.Scale-7)/2, y0+(8*o.Scale+13)/2-basicfont.Face7x13.Descent),
				}
				d.DrawString(string(printable(ch)))
			}
			if cursor && c == col && r == row {
				dc.DrawRectangle(float64(x0), float64(y0+7*o.Scale), 5*s, s)
				dc.Fill()
			}
		}
	}
	return dc.Image(), nil
}

// SavePNG renders the panel to a PNG file.
func (p *Panel) SavePNG(path string, opts *ImageOpts) error {
	img, err := p.Image(opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
