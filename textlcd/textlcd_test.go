// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textlcd

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// latch is one nibble or byte clocked into a controller.
type latch struct {
	ctrl Ctrl
	rs   bool
	v    byte
}

// fakeBus records what the controllers would latch.
type fakeBus struct {
	rs      bool
	data    byte
	en      [2]bool
	bl      bool
	latches []latch
	err     error
	calls   int
}

func (f *fakeBus) SetEnable(c Ctrl, on bool) error {
	f.calls++
	if f.en[c] && !on {
		f.latches = append(f.latches, latch{ctrl: c, rs: f.rs, v: f.data})
	}
	f.en[c] = on
	return f.err
}

func (f *fakeBus) SetRS(data bool) error {
	f.calls++
	f.rs = data
	return f.err
}

func (f *fakeBus) SetBacklight(on bool) error {
	f.calls++
	f.bl = on
	return f.err
}

func (f *fakeBus) SetData(nibble byte) error {
	f.calls++
	f.data = nibble
	return f.err
}

// bytes pairs the recorded nibbles into bytes.
func (f *fakeBus) bytes(t *testing.T) []latch {
	t.Helper()
	if len(f.latches)%2 != 0 {
		t.Fatalf("odd number of nibbles: %d", len(f.latches))
	}
	var out []latch
	for i := 0; i < len(f.latches); i += 2 {
		hi, lo := f.latches[i], f.latches[i+1]
		if hi.ctrl != lo.ctrl || hi.rs != lo.rs {
			t.Fatalf("torn byte at nibble %d: %+v %+v", i, hi, lo)
		}
		out = append(out, latch{ctrl: hi.ctrl, rs: hi.rs, v: hi.v<<4 | lo.v})
	}
	return out
}

func (f *fakeBus) reset() {
	f.latches = nil
	f.calls = 0
}

// recordSleep replaces sleep for the duration of the test.
func recordSleep(t *testing.T) *[]time.Duration {
	var slept []time.Duration
	old := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = old })
	return &slept
}

func newTestDev(t *testing.T, l Layout, c Controller) (*Dev, *fakeBus) {
	t.Helper()
	recordSleep(t)
	logger, _ := test.NewNullLogger()
	f := &fakeBus{}
	d, err := New(f, &Opts{Layout: l, Controller: c, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	f.reset()
	return d, f
}

func cmds(ctrl Ctrl, b ...byte) []latch {
	out := make([]latch, len(b))
	for i, v := range b {
		out[i] = latch{ctrl: ctrl, v: v}
	}
	return out
}

func data(ctrl Ctrl, b ...byte) []latch {
	out := cmds(ctrl, b...)
	for i := range out {
		out[i].rs = true
	}
	return out
}

func concat(l ...[]latch) []latch {
	var out []latch
	for _, x := range l {
		out = append(out, x...)
	}
	return out
}

func TestNewInvalid(t *testing.T) {
	recordSleep(t)
	if _, err := New(&fakeBus{}, &Opts{Layout: Layout(99)}); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("layout: got %v", err)
	}
	if _, err := New(&fakeBus{}, &Opts{Layout: LCD16x2, Controller: Controller(-1)}); !errors.Is(err, ErrInvalidController) {
		t.Errorf("controller: got %v", err)
	}
}

func TestInitSequence(t *testing.T) {
	slept := recordSleep(t)
	logger, _ := test.NewNullLogger()
	f := &fakeBus{}
	d, err := New(f, &Opts{Layout: LCD16x2, Controller: HD44780, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	handshake := []latch{{v: 3}, {v: 3}, {v: 3}, {v: 2}}
	if diff := cmp.Diff(handshake, f.latches[:4], cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("handshake (-want +got):\n%s", diff)
	}
	f.latches = f.latches[4:]
	want := cmds(Primary, 0x28, 0x06, 0x0c, 0x0c, 0x01)
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("init (-want +got):\n%s", diff)
	}
	if col, row := d.Position(); col != 0 || row != 0 {
		t.Errorf("cursor (%d,%d) after init", col, row)
	}
	if (*slept)[0] != delayPowerUp {
		t.Errorf("first delay %s", (*slept)[0])
	}
}

func TestInitDelays(t *testing.T) {
	ms := time.Millisecond
	for _, tc := range []struct {
		ctrl Controller
		want []time.Duration
	}{
		{HD44780, []time.Duration{20 * ms, 15 * ms, 15 * ms, 15 * ms, 10 * ms}},
		{WS0010, []time.Duration{20 * ms, 15 * ms, 15 * ms, 15 * ms, 10 * ms, 10 * ms}},
		{ST7036, []time.Duration{20 * ms, 15 * ms, 15 * ms, 15 * ms, 30 * ms, 30 * ms, 30 * ms, 200 * ms, 30 * ms, 50 * ms, 10 * ms}},
		{ST7032, []time.Duration{20 * ms, 15 * ms, 15 * ms, 15 * ms, 10 * ms}},
	} {
		t.Run(tc.ctrl.String(), func(t *testing.T) {
			slept := recordSleep(t)
			logger, _ := test.NewNullLogger()
			if _, err := New(&fakeBus{}, &Opts{Layout: LCD20x4, Controller: tc.ctrl, Logger: logger}); err != nil {
				t.Fatal(err)
			}
			var long []time.Duration
			for _, d := range *slept {
				if d >= 10*ms {
					long = append(long, d)
				}
			}
			if diff := cmp.Diff(tc.want, long); diff != "" {
				t.Errorf("delays (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInitBringUp(t *testing.T) {
	for _, tc := range []struct {
		ctrl Controller
		want []byte
	}{
		{ST7036, []byte{0x29, 0x14, 0x55, 0x6d, 0x78, 0x28, 0x28, 0x06, 0x0c, 0x0c, 0x01}},
		{ST7032, []byte{0x1c, 0x73, 0x57, 0x6c, 0x0c, 0x28, 0x06, 0x0c, 0x0c, 0x01}},
		{WS0010, []byte{0x17, 0x28, 0x06, 0x0c, 0x0c, 0x01}},
	} {
		t.Run(tc.ctrl.String(), func(t *testing.T) {
			recordSleep(t)
			logger, _ := test.NewNullLogger()
			f := &fakeBus{}
			if _, err := New(f, &Opts{Layout: LCD16x2, Controller: tc.ctrl, Logger: logger}); err != nil {
				t.Fatal(err)
			}
			f.latches = f.latches[4:]
			var got []byte
			for _, b := range f.bytes(t) {
				got = append(got, b.v)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestInitFunctionSet(t *testing.T) {
	for _, tc := range []struct {
		layout Layout
		want   []byte
	}{
		{LCD8x1, []byte{0x20}},
		{LCD8x2B, []byte{0x20}},
		{LCD24x4, []byte{0x2a, 0x2e, 0x09, 0x2a}},
		{LCD20x4, []byte{0x28}},
	} {
		t.Run(tc.layout.String(), func(t *testing.T) {
			recordSleep(t)
			logger, _ := test.NewNullLogger()
			f := &fakeBus{}
			if _, err := New(f, &Opts{Layout: tc.layout, Logger: logger}); err != nil {
				t.Fatal(err)
			}
			f.latches = f.latches[4:]
			var got []byte
			for _, b := range f.bytes(t)[:len(tc.want)] {
				got = append(got, b.v)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestInitDual(t *testing.T) {
	recordSleep(t)
	logger, _ := test.NewNullLogger()
	f := &fakeBus{}
	d, err := New(f, &Opts{Layout: LCD40x4, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	// The secondary is brought up first.
	if f.latches[0].ctrl != Secondary {
		t.Errorf("first latch on %s", f.latches[0].ctrl)
	}
	if last := f.latches[len(f.latches)-1]; last.ctrl != Primary {
		t.Errorf("last latch on %s", last.ctrl)
	}
	if d.Active() != Primary {
		t.Errorf("active %s after init", d.Active())
	}
}

func TestWriteByte(t *testing.T) {
	d, f := newTestDev(t, LCD16x2, HD44780)
	if err := d.WriteByte('A'); err != nil {
		t.Fatal(err)
	}
	want := concat(data(Primary, 'A'), cmds(Primary, 0x81))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestWrap(t *testing.T) {
	for _, l := range Layouts() {
		t.Run(l.String(), func(t *testing.T) {
			d, _ := newTestDev(t, l, HD44780)
			n := l.Cols() * l.Rows()
			for i := 0; i < n; i++ {
				if err := d.WriteByte('x'); err != nil {
					t.Fatal(err)
				}
			}
			if col, row := d.Position(); col != 0 || row != 0 {
				t.Errorf("after %d chars: (%d,%d)", n, col, row)
			}
			for i := 0; i < l.Cols(); i++ {
				_ = d.WriteByte('x')
			}
			wantRow := 1 % l.Rows()
			if col, row := d.Position(); col != 0 || row != wantRow {
				t.Errorf("after one more row: (%d,%d)", col, row)
			}
		})
	}
}

func TestNewline(t *testing.T) {
	d, f := newTestDev(t, LCD20x4, HD44780)
	if err := d.Locate(5, 3); err != nil {
		t.Fatal(err)
	}
	f.reset()
	if err := d.WriteByte('\n'); err != nil {
		t.Fatal(err)
	}
	// No data write, only the DDRAM address of (0,0).
	if diff := cmp.Diff(cmds(Primary, 0x80), f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if col, row := d.Position(); col != 0 || row != 0 {
		t.Errorf("(%d,%d)", col, row)
	}
}

func TestSetAddressClamps(t *testing.T) {
	d, f := newTestDev(t, LCD20x4, HD44780)
	if err := d.SetAddress(25, 7); err != nil {
		t.Fatal(err)
	}
	if col, row := d.Position(); col != 19 || row != 3 {
		t.Errorf("(%d,%d)", col, row)
	}
	if err := d.SetAddress(-3, -1); err != nil {
		t.Fatal(err)
	}
	if col, row := d.Position(); col != 0 || row != 0 {
		t.Errorf("(%d,%d)", col, row)
	}
	if diff := cmp.Diff(cmds(Primary, 0x80|(0x54+19), 0x80), f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	d, f := newTestDev(t, LCD16x2, HD44780)
	_ = d.Locate(3, 1)
	f.reset()
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cmds(Primary, 0x01), f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if col, row := d.Position(); col != 0 || row != 0 {
		t.Errorf("(%d,%d)", col, row)
	}
}

func TestSetGlyph(t *testing.T) {
	d, f := newTestDev(t, LCD16x2, HD44780)
	_ = d.Locate(4, 1)
	f.reset()
	// Index 9 is index 1.
	if err := d.SetGlyph(9, GlyphDegree); err != nil {
		t.Fatal(err)
	}
	want := concat(cmds(Primary, 0x48), data(Primary, GlyphDegree[:]...), cmds(Primary, 0x80|0x44))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if col, row := d.Position(); col != 4 || row != 1 {
		t.Errorf("cursor moved to (%d,%d)", col, row)
	}
}

func TestSetModeAndCursor(t *testing.T) {
	d, f := newTestDev(t, LCD16x2, HD44780)
	if err := d.SetCursor(CursorOnBlinkOn); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(DisplayOff); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMode(DisplayOn); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cmds(Primary, 0x0f, 0x0b, 0x0f), f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestAddress(t *testing.T) {
	d, f := newTestDev(t, LCD20x4, HD44780)
	a, err := d.Address(3, 2)
	if err != nil || a != 0x17 {
		t.Errorf("Address(3,2) = %#x, %v", a, err)
	}
	if len(f.latches) != 0 {
		t.Errorf("single controller Address wrote %d nibbles", len(f.latches))
	}
	if _, err := d.Address(20, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got %v", err)
	}
}

func TestDualController(t *testing.T) {
	d, f := newTestDev(t, LCD40x4, HD44780)
	_ = d.SetCursor(CursorOnBlinkOff)
	f.reset()

	if err := d.Locate(5, 2); err != nil {
		t.Fatal(err)
	}
	want := concat(cmds(Primary, 0x0c), cmds(Secondary, 0x0e, 0x85))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("switch (-want +got):\n%s", diff)
	}
	if d.Active() != Secondary {
		t.Errorf("active %s", d.Active())
	}

	f.reset()
	if err := d.WriteByte('Z'); err != nil {
		t.Fatal(err)
	}
	want = concat(data(Secondary, 'Z'), cmds(Secondary, 0x86))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("write (-want +got):\n%s", diff)
	}

	// Row 3 stays on the secondary, at offset 0x40.
	f.reset()
	_ = d.Locate(0, 3)
	if diff := cmp.Diff(cmds(Secondary, 0xc0), f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("row 3 (-want +got):\n%s", diff)
	}

	// Newline from the last row returns to the primary.
	f.reset()
	_ = d.WriteByte('\n')
	want = concat(cmds(Secondary, 0x0c), cmds(Primary, 0x0e, 0x80))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("newline (-want +got):\n%s", diff)
	}
}

// Address may leave the other controller selected; the next character still
// lands on the cursor cell.
func TestDualAddressThenWrite(t *testing.T) {
	d, f := newTestDev(t, LCD40x4, HD44780)
	if _, err := d.Address(0, 2); err != nil {
		t.Fatal(err)
	}
	if d.Active() != Secondary {
		t.Fatalf("active %s", d.Active())
	}
	f.reset()
	if err := d.WriteByte('X'); err != nil {
		t.Fatal(err)
	}
	want := concat(cmds(Secondary, 0x0c), cmds(Primary, 0x0c, 0x80), data(Primary, 'X'), cmds(Primary, 0x81))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if col, row := d.Position(); col != 1 || row != 0 {
		t.Errorf("(%d,%d)", col, row)
	}
}

func TestOptsSleep(t *testing.T) {
	old := sleep
	sleep = func(time.Duration) { t.Error("package sleep used") }
	t.Cleanup(func() { sleep = old })
	var slept []time.Duration
	logger, _ := test.NewNullLogger()
	opts := &Opts{Layout: LCD16x2, Logger: logger, Sleep: func(d time.Duration) { slept = append(slept, d) }}
	d, err := New(&fakeBus{}, opts)
	if err != nil {
		t.Fatal(err)
	}
	_ = d.WriteByte('a')
	if len(slept) == 0 || slept[0] != delayPowerUp {
		t.Errorf("slept %v", slept)
	}
}

func TestDualClear(t *testing.T) {
	d, f := newTestDev(t, LCD40x4, HD44780)
	_ = d.SetCursor(CursorOnBlinkOn)
	_ = d.Locate(1, 3)
	f.reset()
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	want := concat(cmds(Secondary, 0x0c, 0x01), cmds(Primary, 0x01, 0x0f))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if d.Active() != Primary {
		t.Errorf("active %s", d.Active())
	}
}

func TestDualSetMode(t *testing.T) {
	d, f := newTestDev(t, LCD40x4, HD44780)
	_ = d.SetCursor(CursorOffBlinkOn)
	_ = d.Locate(0, 2)
	f.reset()
	if err := d.SetMode(DisplayOff); err != nil {
		t.Fatal(err)
	}
	want := concat(cmds(Primary, 0x08), cmds(Secondary, 0x09))
	if diff := cmp.Diff(want, f.bytes(t), cmp.AllowUnexported(latch{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if d.Active() != Secondary {
		t.Errorf("active %s", d.Active())
	}
}

func TestDualSetGlyph(t *testing.T) {
	d, f := newTestDev(t, LCD40x4, HD44780)
	_ = d.Locate(2, 1)
	f.reset()
	if err := d.SetGlyph(0, GlyphBlock); err != nil {
		t.Fatal(err)
	}
	var got [2]int
	for _, b := range f.bytes(t) {
		if b.rs {
			got[b.ctrl]++
		}
	}
	if got[Primary] != 8 || got[Secondary] != 8 {
		t.Errorf("glyph bytes per controller: %v", got)
	}
	bs := f.bytes(t)
	if last := bs[len(bs)-1]; last.ctrl != Primary || last.v != 0x80|0x42 {
		t.Errorf("last command %+v", last)
	}
	if d.Active() != Primary {
		t.Errorf("active %s", d.Active())
	}
}

func TestBusErrorIsSticky(t *testing.T) {
	d, f := newTestDev(t, LCD16x2, HD44780)
	boom := errors.New("nack")
	f.err = boom
	_, err := d.WriteString("hi")
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if err.Error() != "textlcd: nack" {
		t.Errorf("message %q", err)
	}
	// The sequence ran to completion and the cursor moved.
	if col, _ := d.Position(); col != 2 {
		t.Errorf("col %d", col)
	}
	if len(f.latches) != 8 {
		t.Errorf("latched %d nibbles", len(f.latches))
	}
	f.err = nil
	if err := d.WriteByte('!'); err != nil {
		t.Errorf("error not cleared: %v", err)
	}
}

func TestBusErrorLogged(t *testing.T) {
	recordSleep(t)
	logger, hook := test.NewNullLogger()
	f := &fakeBus{err: errors.New("nack")}
	d, err := New(f, &Opts{Layout: LCD16x2, Logger: logger})
	if err == nil {
		t.Fatal("expected error")
	}
	if d == nil {
		t.Fatal("Dev must be usable after a failed init")
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("no warning logged: %v", e)
	}
}

func TestBacklight(t *testing.T) {
	d, f := newTestDev(t, LCD16x2, HD44780)
	if err := d.SetBacklight(true); err != nil {
		t.Fatal(err)
	}
	if !f.bl {
		t.Error("backlight off")
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if f.bl {
		t.Error("backlight on after Halt")
	}
	if d.Mode() != DisplayOff {
		t.Error("display on after Halt")
	}
}

func TestPrintf(t *testing.T) {
	d, f := newTestDev(t, LCD20x4, HD44780)
	n, err := d.Printf("%02d:%02d", 7, 5)
	if err != nil || n != 5 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	var text []byte
	for _, b := range f.bytes(t) {
		if b.rs {
			text = append(text, b.v)
		}
	}
	if string(text) != "07:05" {
		t.Errorf("%q", text)
	}
}
