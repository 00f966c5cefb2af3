// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dashlcd is a container for a character LCD driver and the vehicle
// dashboard built on it.
//
// textlcd drives HD44780-family panels over GPIO, a PCF8574 or 74HC595
// expander, or a native SPI port. textlcd/lcdsim emulates a panel for tests
// and for running without hardware. dashboard is the application and
// cmd/dashboard its executable.
package dashlcd
