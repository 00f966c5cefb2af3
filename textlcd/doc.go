// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package textlcd drives HD44780 family character LCDs: the HD44780 and its
// clones, the WS0010 OLED controller and the ST7036 and ST7032 controllers
// with built-in DC/DC converters.
//
// The panel can be wired to host GPIO pins, to a PCF8574 I²C port expander,
// to a 74HC595 shift register on SPI or to the native serial port of an
// ST7032. Fifteen panel geometries are supported, including the 40x4 panels
// made of two controllers that share every line but the enable.
//
// Dev implements periph.io/x/conn/v3/display.TextDisplay.
//
// # Datasheets
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
//
// https://www.lcd-module.de/eng/pdf/zubehoer/st7036.pdf
//
// https://www.newhavendisplay.com/app_notes/ST7032.pdf
package textlcd
