// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GermanBionicSystems/dashlcd/dashboard"
	"github.com/GermanBionicSystems/dashlcd/textlcd"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ds18b20"
	"periph.io/x/devices/v3/ds248x"
)

// ds18b20Family is the one-wire family code of the DS18B20.
const ds18b20Family = 0x28

// hardware owns the buses opened on the host.
type hardware struct {
	log     logrus.FieldLogger
	i2c     i2c.BusCloser
	spi     spi.PortCloser
	closers []func() error
}

func (h *hardware) close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			h.log.WithError(err).Warn("close")
		}
	}
}

func (h *hardware) i2cBus() (i2c.Bus, error) {
	if h.i2c == nil {
		b, err := i2creg.Open(*i2cName)
		if err != nil {
			return nil, err
		}
		h.i2c = b
		h.closers = append(h.closers, b.Close)
	}
	return h.i2c, nil
}

func (h *hardware) spiConn() (spi.Conn, error) {
	if h.spi == nil {
		p, err := spireg.Open(*spiName)
		if err != nil {
			return nil, err
		}
		h.spi = p
		h.closers = append(h.closers, p.Close)
	}
	return h.spi.Connect(physic.Frequency(*spiHz)*physic.Hertz, spi.Mode0, 8)
}

func (h *hardware) openLCD(opts *textlcd.Opts) (*textlcd.Dev, error) {
	switch *transport {
	case "i2c":
		b, err := h.i2cBus()
		if err != nil {
			return nil, err
		}
		return textlcd.NewI2C(b, uint8(*lcdAddr), opts)
	case "spi":
		c, err := h.spiConn()
		if err != nil {
			return nil, err
		}
		cs, err := optionalPin(*csPin)
		if err != nil {
			return nil, err
		}
		return textlcd.NewSPI(c, cs, opts)
	case "native":
		c, err := h.spiConn()
		if err != nil {
			return nil, err
		}
		cs, err := optionalPin(*csPin)
		if err != nil {
			return nil, err
		}
		bl, err := optionalPin(*blPin)
		if err != nil {
			return nil, err
		}
		rs, err := pin(*rsPin)
		if err != nil {
			return nil, err
		}
		return textlcd.NewNativeSPI(c, cs, rs, bl, opts)
	case "gpio":
		p := &textlcd.GPIOPins{}
		var err error
		if p.RS, err = pin(*rsPin); err != nil {
			return nil, err
		}
		if p.E, err = pin(*ePin); err != nil {
			return nil, err
		}
		if p.E2, err = optionalPin(*e2Pin); err != nil {
			return nil, err
		}
		if p.BL, err = optionalPin(*blPin); err != nil {
			return nil, err
		}
		d := split(*dataPins)
		if len(d) != len(p.D) {
			return nil, fmt.Errorf("-data needs %d pins, got %d", len(p.D), len(d))
		}
		for i, n := range d {
			if p.D[i], err = pin(n); err != nil {
				return nil, err
			}
		}
		return textlcd.NewGPIO(p, opts)
	default:
		return nil, fmt.Errorf("unknown transport %q", *transport)
	}
}

// openThermometer finds the first DS18B20 behind a DS248x bridge.
func (h *hardware) openThermometer(addr uint16) (dashboard.Thermometer, error) {
	b, err := h.i2cBus()
	if err != nil {
		return nil, err
	}
	ow, err := ds248x.New(b, addr, &ds248x.DefaultOpts)
	if err != nil {
		return nil, err
	}
	h.closers = append(h.closers, ow.Halt)
	devs, err := ow.Search(false)
	if err != nil {
		return nil, err
	}
	for _, a := range devs {
		if a&0xff != ds18b20Family {
			continue
		}
		s, err := ds18b20.New(ow, a, 12)
		if err != nil {
			return nil, err
		}
		h.log.WithField("sensor", s).Info("thermometer found")
		return dashboard.NewSenseThermometer(s), nil
	}
	return nil, errors.New("no DS18B20 on the one-wire bus")
}

func (h *hardware) openBuzzer(name string) (*dashboard.PWMBuzzer, error) {
	p, err := pin(name)
	if err != nil {
		return nil, err
	}
	return dashboard.NewPWMBuzzer(p), nil
}

func (h *hardware) openKeypad(rowNames, colNames []string) (*dashboard.MatrixKeypad, error) {
	var rows []gpio.PinOut
	for _, n := range rowNames {
		p, err := pin(n)
		if err != nil {
			return nil, err
		}
		rows = append(rows, p)
	}
	var cols []gpio.PinIn
	for _, n := range colNames {
		p, err := pin(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, p)
	}
	return dashboard.NewMatrixKeypad(rows, cols, nil)
}

func pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no pin %q", name)
	}
	return p, nil
}

func optionalPin(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	return pin(name)
}

// openGPS opens the NMEA source. A regular file is replayed as recorded,
// anything else is opened as a serial port at baud, 8N1.
func openGPS(path string, baud int) (io.ReadCloser, error) {
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return os.Open(path)
	}
	p, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("gps %s: %w", path, err)
	}
	return p, nil
}
