// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/sirupsen/logrus"
)

// ErrNoFix is returned by a GPS that has not received a position yet.
var ErrNoFix = errors.New("dashboard: no GPS data")

// Fix is the latest navigation solution of a GPS receiver.
type Fix struct {
	// Time is UTC.
	Time time.Time
	// Quality is the GGA fix quality; 0 means no fix.
	Quality    int
	Satellites int
	// Latitude and Longitude are in degrees, south and west negative.
	Latitude   float64
	Longitude  float64
	SpeedKnots float64
	CourseTrue float64
	CourseMag  float64
}

// Valid reports whether the receiver has a position fix.
func (f *Fix) Valid() bool {
	return f.Quality > 0
}

// NMEA tracks the NMEA 0183 output of a GPS receiver. It uses the RMC, GGA
// and VTG sentences of any talker.
type NMEA struct {
	mu   sync.Mutex
	fix  Fix
	date nmea.Date
	seen bool
	log  logrus.FieldLogger
}

// NewNMEA returns a decoder. log may be nil.
func NewNMEA(log logrus.FieldLogger) *NMEA {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NMEA{log: log.WithField("gps", "nmea")}
}

// Fix implements GPS.
func (n *NMEA) Fix() (Fix, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.seen {
		return Fix{}, ErrNoFix
	}
	return n.fix, nil
}

// Run decodes sentences from r until r is exhausted or ctx is done. Close r
// to stop a blocked read. Malformed sentences are logged and skipped.
func (n *NMEA) Run(ctx context.Context, r io.Reader) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.Parse(s.Text()); err != nil {
			n.log.WithError(err).Debug("skipped sentence")
		}
	}
	if err := s.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard: reading NMEA: %w", err)
	}
	return ctx.Err()
}

// Parse decodes one sentence. Sentence types other than RMC, GGA and VTG
// are ignored. A sentence that fails to decode leaves the fix untouched.
func (n *NMEA) Parse(line string) error {
	s, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	switch m := s.(type) {
	case nmea.RMC:
		n.rmc(&m)
	case nmea.GGA:
		if err := n.gga(&m); err != nil {
			return fmt.Errorf("dashboard: %s: %w", m.Prefix(), err)
		}
	case nmea.VTG:
		n.fix.CourseTrue = m.TrueTrack
		n.fix.CourseMag = m.MagneticTrack
		n.fix.SpeedKnots = m.GroundSpeedKnots
	default:
		return nil
	}
	n.seen = true
	return nil
}

func (n *NMEA) rmc(m *nmea.RMC) {
	if m.Date.Valid {
		n.date = m.Date
	}
	n.stamp(m.Time)
	if m.Validity != nmea.ValidRMC {
		// Void: keep the time, drop the fix.
		n.fix.Quality = 0
		return
	}
	n.fix.Latitude = m.Latitude
	n.fix.Longitude = m.Longitude
	n.fix.SpeedKnots = m.Speed
	n.fix.CourseTrue = m.Course
}

func (n *NMEA) gga(m *nmea.GGA) error {
	q, err := strconv.Atoi(m.FixQuality)
	if err != nil {
		return err
	}
	n.stamp(m.Time)
	n.fix.Quality = q
	n.fix.Satellites = int(m.NumSatellites)
	if q != 0 {
		n.fix.Latitude = m.Latitude
		n.fix.Longitude = m.Longitude
	}
	return nil
}

// stamp combines t with the last RMC date.
func (n *NMEA) stamp(t nmea.Time) {
	if !t.Valid {
		return
	}
	y, mo, d := 0, time.January, 1
	if n.date.Valid {
		y, mo, d = 2000+n.date.YY, time.Month(n.date.MM), n.date.DD
	}
	n.fix.Time = time.Date(y, mo, d, t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}

var _ GPS = &NMEA{}
