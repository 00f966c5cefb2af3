// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dashboard is a vehicle dashboard on a 20x4 character LCD: time and
// date, satellites in view, water temperature and speed from a GPS receiver
// and a one-wire thermometer, with a buzzer alarm on over-temperature.
package dashboard

import (
	"context"
	"time"

	"github.com/GermanBionicSystems/dashlcd/textlcd"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

// GPS returns the latest navigation solution.
type GPS interface {
	Fix() (Fix, error)
}

// Thermometer returns the water temperature.
type Thermometer interface {
	Temperature() (physic.Temperature, error)
}

// Keypad returns a newly pressed key, if any. It never blocks.
type Keypad interface {
	Key() (rune, bool)
}

// Buzzer sounds a tone of frequency f for d. It never blocks.
type Buzzer interface {
	Beep(f physic.Frequency, d time.Duration) error
}

// Screen is the part of *textlcd.Dev the dashboard draws with.
type Screen interface {
	Clear() error
	Locate(col, row int) error
	SetGlyph(index byte, g textlcd.Glyph) error
	SetBacklight(on bool) error
	WriteByte(c byte) error
	WriteString(s string) (int, error)
	Printf(format string, a ...any) (int, error)
}

// Devices are the collaborators of an App. Keypad and Buzzer are optional.
type Devices struct {
	GPS         GPS
	Thermometer Thermometer
	Keypad      Keypad
	Buzzer      Buzzer
}

// Opts represents the options of an App.
type Opts struct {
	// Threshold is the water temperature that raises the master alarm.
	Threshold physic.Temperature
	// UTCOffset is added to the GPS time before display.
	UTCOffset time.Duration
	// Intro is how long the logo stays up.
	Intro time.Duration
	// Interval is the pause between two status updates.
	Interval time.Duration
	// LoadingStep is the pace of the dots on the loading screen.
	LoadingStep time.Duration
	// BadFixes is the number of consecutive updates without a fix before
	// the loading screen replaces the status screen.
	BadFixes int
	Logger   logrus.FieldLogger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Threshold:   physic.ZeroCelsius + 30*physic.Celsius,
	Intro:       5 * time.Second,
	Interval:    200 * time.Millisecond,
	LoadingStep: time.Second,
	BadFixes:    3,
}

const (
	degreeSign = 0xdf // in the A00 character ROM
	logoGlyph  = 0
	alarmTone  = 1000 * physic.Hertz
	alarmBeep  = 500 * time.Millisecond
)

var logo = [...]string{
	"  (_)___ ___ ____ \n",
	"  | / -_) -_)  _ \x00\n",
	" _/ \x00___\x00___| .__/\n",
	"|__/        |_|   \n",
}

// App draws the dashboard.
type App struct {
	screen Screen
	dev    Devices
	opts   Opts
	log    logrus.FieldLogger

	// Consecutive updates without a fix. It starts saturated so the loading
	// screen shows until the first fix.
	bad      int
	first    bool
	onStatus bool
	alarm    bool
	acked    bool
}

// New returns an App drawing on screen. opts may be nil.
func New(screen Screen, dev Devices, opts *Opts) *App {
	if opts == nil {
		opts = &DefaultOpts
	}
	l := opts.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	a := &App{
		screen:   screen,
		dev:      dev,
		opts:     *opts,
		log:      l.WithField("app", "dashboard"),
		first:    true,
		onStatus: true,
	}
	if a.opts.BadFixes <= 0 {
		a.opts.BadFixes = 1
	}
	a.bad = a.opts.BadFixes
	return a
}

// Intro turns the backlight on and shows the logo for opts.Intro.
func (a *App) Intro(ctx context.Context) error {
	a.check(a.screen.SetBacklight(true))
	a.check(a.screen.SetGlyph(logoGlyph, textlcd.GlyphBackslash))
	a.check(a.screen.Locate(0, 0))
	for _, l := range logo {
		_, err := a.screen.WriteString(l)
		a.check(err)
	}
	return wait(ctx, a.opts.Intro)
}

// Run updates the dashboard until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.check(a.screen.Clear())
	for {
		if err := a.Step(ctx); err != nil {
			return err
		}
		if err := wait(ctx, a.opts.Interval); err != nil {
			return err
		}
	}
}

// Step runs one update: the status screen, or the loading screen while the
// GPS has no fix, and the alarm. It only fails when ctx is done.
func (a *App) Step(ctx context.Context) error {
	if k, ok := a.key(); ok {
		a.log.WithField("key", string(k)).Info("key pressed")
		if a.alarm && !a.acked {
			a.acked = true
			a.log.Info("alarm acknowledged")
		}
	}
	fix, err := a.dev.GPS.Fix()
	if err != nil {
		a.log.WithError(err).Debug("no GPS data")
	}
	if !fix.Valid() {
		a.bad++
	} else if !a.first {
		a.bad = 0
		if !a.onStatus {
			a.check(a.screen.Clear())
		}
		a.onStatus = true
	}
	if a.bad >= a.opts.BadFixes {
		if a.onStatus {
			a.check(a.screen.Clear())
		}
		a.onStatus = false
		a.first = false
		return a.loading(ctx)
	}
	a.status(&fix)
	return ctx.Err()
}

func (a *App) status(fix *Fix) {
	temp, tempErr := a.dev.Thermometer.Temperature()
	if tempErr != nil {
		a.log.WithError(tempErr).Warn("thermometer")
	}
	over := tempErr == nil && temp > a.opts.Threshold
	if a.alarm && !over {
		a.log.WithField("temp", temp).Info("alarm cleared")
		a.alarm, a.acked = false, false
		a.check(a.screen.Clear())
	}
	if a.alarm {
		a.masterAlarm()
		return
	}

	t := fix.Time.Add(a.opts.UTCOffset)
	a.check(a.screen.Locate(0, 0))
	a.printf("%02d:%02d:%02d %02d/%02d/%04d\n", t.Hour(), t.Minute(), t.Second(), t.Day(), int(t.Month()), t.Year())
	a.check(a.screen.Locate(0, 1))
	a.printf("Sat:%d", fix.Satellites)
	a.check(a.screen.Locate(0, 2))
	if tempErr != nil {
		a.printf("H2O Temp: --.-")
	} else {
		a.printf("H2O Temp: %.1f", temp.Celsius())
	}
	a.check(a.screen.WriteByte(degreeSign))
	a.check(a.screen.Locate(0, 3))
	a.printf("Sp:%.2fkn Cp:%.2f", fix.SpeedKnots, fix.CourseMag)

	if over {
		a.log.WithField("temp", temp).Warn("water temperature high")
		a.masterAlarm()
	}
}

// masterAlarm shows the alarm screen and beeps until acknowledged.
func (a *App) masterAlarm() {
	if !a.alarm {
		a.check(a.screen.Clear())
	}
	a.alarm = true
	a.check(a.screen.Locate(4, 1))
	a.printf("MASTER ALARM.")
	if a.dev.Buzzer != nil && !a.acked {
		a.check(a.dev.Buzzer.Beep(alarmTone, alarmBeep))
	}
	a.check(a.screen.Locate(2, 0))
	a.printf("Water Temp HI")
}

func (a *App) loading(ctx context.Context) error {
	a.check(a.screen.Locate(0, 1))
	a.printf("Loading Gps data   ")
	a.check(a.screen.Locate(0, 2))
	a.printf("     - No Fix -  ")
	for _, dots := range []string{".  ", ".. ", "..."} {
		a.check(a.screen.Locate(0, 1))
		a.printf("Loading Gps data%s", dots)
		if err := wait(ctx, a.opts.LoadingStep); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) key() (rune, bool) {
	if a.dev.Keypad == nil {
		return 0, false
	}
	return a.dev.Keypad.Key()
}

func (a *App) printf(format string, args ...any) {
	_, err := a.screen.Printf(format, args...)
	a.check(err)
}

// check logs screen errors. The panel keeps going without acknowledgement
// so a glitch on the bus only costs a frame.
func (a *App) check(err error) {
	if err != nil {
		a.log.WithError(err).Warn("screen")
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ Screen = &textlcd.Dev{}
