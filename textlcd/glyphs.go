// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

// Glyph is a 5x8 user character, one row per byte, top row first. Only the
// low 5 bits of each row are shown.
type Glyph [8]byte

// Stock glyphs.
var (
	GlyphAe      = Glyph{0x00, 0x00, 0x1b, 0x05, 0x1f, 0x14, 0x1f, 0x00} // æ
	GlyphOSlash  = Glyph{0x00, 0x00, 0x0e, 0x13, 0x15, 0x19, 0x0e, 0x00} // ø
	GlyphARing   = Glyph{0x0e, 0x0a, 0x0e, 0x01, 0x0f, 0x11, 0x0f, 0x00} // å
	GlyphAE      = Glyph{0x0f, 0x14, 0x14, 0x1f, 0x14, 0x14, 0x17, 0x00} // Æ
	GlyphOSlashU = Glyph{0x0e, 0x13, 0x15, 0x15, 0x15, 0x19, 0x0e, 0x00} // Ø
	GlyphARingU  = Glyph{0x0e, 0x0a, 0x0e, 0x11, 0x1f, 0x11, 0x11, 0x00} // Å

	GlyphPadlockOpen   = Glyph{0x04, 0x0a, 0x0a, 0x1f, 0x1b, 0x1b, 0x1f, 0x00}
	GlyphPadlockClosed = Glyph{0x1c, 0x10, 0x08, 0x1f, 0x1b, 0x1b, 0x1f, 0x00}

	GlyphPlay         = Glyph{0x18, 0x14, 0x12, 0x11, 0x12, 0x14, 0x18, 0x00} // |>
	GlyphReverse      = Glyph{0x03, 0x05, 0x09, 0x11, 0x09, 0x05, 0x03, 0x00} // <|
	GlyphBar1         = Glyph{0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x00} // |
	GlyphBar2         = Glyph{0x14, 0x14, 0x14, 0x14, 0x14, 0x14, 0x14, 0x00} // ||
	GlyphBar3         = Glyph{0x15, 0x15, 0x15, 0x15, 0x15, 0x15, 0x15, 0x00} // |||
	GlyphEqual        = Glyph{0x00, 0x1f, 0x00, 0x1f, 0x00, 0x1f, 0x00, 0x00}
	GlyphCheckerboard = Glyph{0x15, 0x0a, 0x15, 0x0a, 0x15, 0x0a, 0x15, 0x00}
	GlyphBackslash    = Glyph{0x10, 0x08, 0x04, 0x02, 0x01, 0x00, 0x00, 0x00}

	GlyphDegree = Glyph{0x06, 0x09, 0x09, 0x06, 0x00, 0x00, 0x00, 0x00}
	GlyphTMT    = Glyph{0x1f, 0x04, 0x04, 0x04, 0x00, 0x00, 0x00, 0x00} // left half of ™
	GlyphTMM    = Glyph{0x11, 0x1b, 0x15, 0x11, 0x00, 0x00, 0x00, 0x00} // right half of ™

	GlyphBatteryFull = Glyph{0x0e, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x00}
	GlyphBatteryHalf = Glyph{0x0e, 0x11, 0x11, 0x1f, 0x1f, 0x1f, 0x1f, 0x00}
	GlyphBatteryLow  = Glyph{0x0e, 0x11, 0x11, 0x11, 0x11, 0x1f, 0x1f, 0x00}
	GlyphACPower     = Glyph{0x0a, 0x0a, 0x1f, 0x11, 0x0e, 0x04, 0x04, 0x00}

	GlyphBlock = Glyph{0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f}
)
