// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dashboard shows GPS time, satellites, speed and water temperature on a
// character LCD and raises an alarm on over-temperature.
//
// Without hardware, -transport sim draws the panel on the console:
//
//	dashboard -transport sim -gps testdata/drive.nmea
//
// On a Raspberry Pi with a PCF8574 backpack and a DS2482 one-wire bridge:
//
//	dashboard -transport i2c -addr 0x4e -gps /dev/serial0 -buzzer GPIO12
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/dashlcd/dashboard"
	"github.com/GermanBionicSystems/dashlcd/textlcd"
	"github.com/GermanBionicSystems/dashlcd/textlcd/lcdsim"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var (
	layoutName = flag.String("layout", "LCD20x4", "panel layout, one of "+layoutNames())
	ctrlName   = flag.String("controller", "HD44780", "controller: HD44780, WS0010, ST7036 or ST7032")
	transport  = flag.String("transport", "i2c", "panel transport: i2c, spi, native, gpio or sim")
	i2cName    = flag.String("i2c", "", "I²C bus name (empty for default)")
	lcdAddr    = flag.Uint("addr", 0x4e, "8-bit address of the PCF8574 backpack")
	spiName    = flag.String("spi", "", "SPI port name (empty for default)")
	spiHz      = flag.Int64("hz", 500000, "SPI clock in Hz")
	csPin      = flag.String("cs", "", "chip select pin when not driven by the SPI port")
	rsPin      = flag.String("rs", "GPIO17", "RS pin for the gpio and native transports")
	ePin       = flag.String("e", "GPIO18", "enable pin for the gpio transport")
	e2Pin      = flag.String("e2", "", "second enable pin of an LCD40x4 on the gpio transport")
	dataPins   = flag.String("data", "GPIO27,GPIO22,GPIO23,GPIO24", "D4..D7 pins for the gpio transport")
	blPin      = flag.String("bl", "", "backlight pin for the gpio and native transports")

	gpsPath   = flag.String("gps", "", "NMEA source: a serial device or a recorded file")
	gpsBaud   = flag.Int("baud", 9600, "baud rate of the GPS serial port")
	owAddr    = flag.Uint("onewire", 0x18, "I²C address of the DS248x one-wire bridge; 0 disables it")
	simTemp   = flag.Float64("temp", 21.5, "water temperature in °C when no one-wire bridge is used")
	threshold = flag.Float64("threshold", 30, "alarm threshold in °C")
	utc       = flag.Duration("utc", -3*time.Hour, "offset of the displayed time from UTC")
	buzzer    = flag.String("buzzer", "", "PWM pin driving the alarm buzzer")
	keyRows   = flag.String("key-rows", "", "keypad row pins, comma separated")
	keyCols   = flag.String("key-cols", "", "keypad column pins, comma separated")

	noIntro  = flag.Bool("nointro", false, "skip the logo")
	snapshot = flag.String("png", "", "with -transport sim, save the last frame to this PNG file")
	verbose  = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if flag.NArg() != 0 {
		log.Fatalf("unexpected argument: %s", flag.Args())
	}
	if err := mainImpl(log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("dashboard")
	}
}

func mainImpl(log *logrus.Logger) error {
	opts := &textlcd.Opts{Logger: log}
	var err error
	if opts.Layout, err = parseLayout(*layoutName); err != nil {
		return err
	}
	if opts.Controller, err = parseController(*ctrlName); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hw *hardware
	var panel *lcdsim.Panel
	var lcd *textlcd.Dev
	if *transport == "sim" {
		panel = lcdsim.New(opts.Layout, opts.Controller)
		panel.SetRecording(false)
		opts.Sleep = func(time.Duration) {}
		if lcd, err = textlcd.New(panel, opts); err != nil {
			return err
		}
		go refresh(ctx, lcdsim.NewTerminal(panel, nil), log)
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		hw = &hardware{log: log}
		defer hw.close()
		if lcd, err = hw.openLCD(opts); err != nil {
			return err
		}
	}
	defer func() {
		if err := lcd.Halt(); err != nil {
			log.WithError(err).Warn("halt")
		}
	}()
	log.WithField("lcd", lcd).Info("panel ready")

	dev := dashboard.Devices{}
	gps := dashboard.NewNMEA(log)
	dev.GPS = gps
	if *gpsPath != "" {
		f, err := openGPS(*gpsPath, *gpsBaud)
		if err != nil {
			return err
		}
		defer f.Close()
		go func() {
			if err := gps.Run(ctx, f); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("gps")
			}
		}()
	}

	if hw != nil && *owAddr != 0 {
		if dev.Thermometer, err = hw.openThermometer(uint16(*owAddr)); err != nil {
			return err
		}
	} else {
		dev.Thermometer = fixedTemperature(celsius(*simTemp))
	}
	if hw != nil && *buzzer != "" {
		b, err := hw.openBuzzer(*buzzer)
		if err != nil {
			return err
		}
		defer b.Halt()
		dev.Buzzer = b
	}
	if hw != nil && *keyRows != "" {
		if dev.Keypad, err = hw.openKeypad(split(*keyRows), split(*keyCols)); err != nil {
			return err
		}
	}

	app := dashboard.New(lcd, dev, &dashboard.Opts{
		Threshold:   celsius(*threshold),
		UTCOffset:   *utc,
		Intro:       dashboard.DefaultOpts.Intro,
		Interval:    dashboard.DefaultOpts.Interval,
		LoadingStep: dashboard.DefaultOpts.LoadingStep,
		BadFixes:    dashboard.DefaultOpts.BadFixes,
		Logger:      log,
	})
	if !*noIntro {
		if err := app.Intro(ctx); err != nil {
			return err
		}
	}
	err = app.Run(ctx)
	if panel != nil && *snapshot != "" {
		if err := panel.SavePNG(*snapshot, nil); err != nil {
			log.WithError(err).Warn("snapshot")
		}
	}
	return err
}

// refresh redraws the simulated panel until ctx is done.
func refresh(ctx context.Context, t *lcdsim.Terminal, log logrus.FieldLogger) {
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := t.Refresh(); err != nil {
				log.WithError(err).Warn("terminal")
				return
			}
		}
	}
}

type fixedTemperature physic.Temperature

func (f fixedTemperature) Temperature() (physic.Temperature, error) {
	return physic.Temperature(f), nil
}

func celsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}

func parseLayout(s string) (textlcd.Layout, error) {
	for _, l := range textlcd.Layouts() {
		if strings.EqualFold(l.String(), s) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layout %q", s)
}

func parseController(s string) (textlcd.Controller, error) {
	for _, c := range []textlcd.Controller{textlcd.HD44780, textlcd.WS0010, textlcd.ST7036, textlcd.ST7032} {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown controller %q", s)
}

func layoutNames() string {
	var n []string
	for _, l := range textlcd.Layouts() {
		n = append(n, l.String())
	}
	return strings.Join(n, ", ")
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
