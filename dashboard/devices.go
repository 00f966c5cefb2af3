// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// SenseThermometer reads the temperature of any physic.SenseEnv, such as a
// DS18B20.
type SenseThermometer struct {
	s physic.SenseEnv
}

// NewSenseThermometer returns a Thermometer backed by s.
func NewSenseThermometer(s physic.SenseEnv) *SenseThermometer {
	return &SenseThermometer{s: s}
}

// Temperature implements Thermometer.
func (t *SenseThermometer) Temperature() (physic.Temperature, error) {
	var e physic.Env
	if err := t.s.Sense(&e); err != nil {
		return 0, fmt.Errorf("dashboard: %w", err)
	}
	return e.Temperature, nil
}

func (t *SenseThermometer) String() string {
	return fmt.Sprintf("thermometer(%s)", t.s)
}

// DefaultKeys is the legend of the common 4x4 membrane keypad.
var DefaultKeys = [][]rune{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}

// MatrixKeypad scans a keypad matrix. Rows are driven low one at a time and
// the columns, pulled up, read low under a pressed key.
type MatrixKeypad struct {
	mu   sync.Mutex
	rows []gpio.PinOut
	cols []gpio.PinIn
	keys [][]rune
	last rune
}

// NewMatrixKeypad returns a keypad. keys[r][c] is the legend of the key
// joining rows[r] and cols[c]; nil means DefaultKeys.
func NewMatrixKeypad(rows []gpio.PinOut, cols []gpio.PinIn, keys [][]rune) (*MatrixKeypad, error) {
	if keys == nil {
		keys = DefaultKeys
	}
	if len(rows) == 0 || len(rows) != len(keys) {
		return nil, errors.New("dashboard: keypad rows do not match the legend")
	}
	for _, r := range keys {
		if len(r) != len(cols) {
			return nil, errors.New("dashboard: keypad columns do not match the legend")
		}
	}
	for _, c := range cols {
		if err := c.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
	}
	for _, r := range rows {
		if err := r.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
	}
	return &MatrixKeypad{rows: rows, cols: cols, keys: keys}, nil
}

// Scan returns the first pressed key found, if any.
func (k *MatrixKeypad) Scan() (rune, bool, error) {
	for i, r := range k.rows {
		if err := r.Out(gpio.Low); err != nil {
			return 0, false, fmt.Errorf("dashboard: %w", err)
		}
		for j, c := range k.cols {
			if c.Read() == gpio.Low {
				return k.keys[i][j], true, r.Out(gpio.High)
			}
		}
		if err := r.Out(gpio.High); err != nil {
			return 0, false, fmt.Errorf("dashboard: %w", err)
		}
	}
	return 0, false, nil
}

// Key implements Keypad. A key held down is reported once.
func (k *MatrixKeypad) Key() (rune, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, ok, err := k.Scan()
	if err != nil || !ok {
		k.last = 0
		return 0, false
	}
	if r == k.last {
		return 0, false
	}
	k.last = r
	return r, true
}

func (k *MatrixKeypad) String() string {
	return fmt.Sprintf("keypad(%dx%d)", len(k.rows), len(k.cols))
}

// PWMBuzzer drives a piezo buzzer with a square wave.
type PWMBuzzer struct {
	mu  sync.Mutex
	pin gpio.PinOut
	t   *time.Timer
}

// NewPWMBuzzer returns a buzzer on a PWM capable pin.
func NewPWMBuzzer(pin gpio.PinOut) *PWMBuzzer {
	return &PWMBuzzer{pin: pin}
}

// Beep implements Buzzer. It returns immediately; the tone stops after d.
func (b *PWMBuzzer) Beep(f physic.Frequency, d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.t != nil {
		b.t.Stop()
	}
	if err := b.pin.PWM(gpio.DutyHalf, f); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	b.t = time.AfterFunc(d, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = b.pin.Out(gpio.Low)
	})
	return nil
}

func (b *PWMBuzzer) String() string {
	return fmt.Sprintf("buzzer(%s)", b.pin)
}

// Halt implements conn.Resource. It silences the buzzer.
func (b *PWMBuzzer) Halt() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.t != nil {
		b.t.Stop()
	}
	return b.pin.Out(gpio.Low)
}

var _ Thermometer = &SenseThermometer{}
var _ Keypad = &MatrixKeypad{}
var _ Buzzer = &PWMBuzzer{}
var _ conn.Resource = &PWMBuzzer{}
