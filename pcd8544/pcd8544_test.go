// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcd8544

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"
)

// event is a pin level change; ops is the number of SPI transfers done
// before it.
type event struct {
	Pin   string
	Level gpio.Level
	Duty  gpio.Duty
	Ops   int
}

type recordingPin struct {
	gpiotest.Pin
	events *[]event
	ops    func() int
	fail   error
}

func (p *recordingPin) Out(l gpio.Level) error {
	if p.fail != nil {
		return p.fail
	}
	*p.events = append(*p.events, event{Pin: p.N, Level: l, Ops: p.ops()})
	return p.Pin.Out(l)
}

func (p *recordingPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	*p.events = append(*p.events, event{Pin: p.N, Duty: duty, Ops: p.ops()})
	return nil
}

type harness struct {
	rec    *spitest.Record
	events []event
	sce    *recordingPin
	rst    *recordingPin
	dc     *recordingPin
	bl     *recordingPin
}

func newHarness() *harness {
	h := &harness{rec: &spitest.Record{}}
	ops := func() int { return len(h.rec.Ops) }
	pin := func(name string) *recordingPin {
		return &recordingPin{Pin: gpiotest.Pin{N: name}, events: &h.events, ops: ops}
	}
	h.sce = pin("SCE")
	h.rst = pin("RST")
	h.dc = pin("DC")
	h.bl = pin("BL")
	return h
}

func (h *harness) open(t *testing.T, opts *Opts) *Dev {
	t.Helper()
	d, err := New(h.rec, h.sce, h.rst, h.dc, h.bl, opts)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// reset forgets what was recorded so far.
func (h *harness) reset() {
	h.rec.Ops = nil
	h.events = nil
}

// framed returns the expected pin events and transfers for bytes sent one by
// one, starting after start transfers.
func framed(start int, dc gpio.Level, b ...byte) ([]event, []conntest.IO) {
	var events []event
	var ios []conntest.IO
	for i, v := range b {
		n := start + i
		events = append(events,
			event{Pin: "DC", Level: dc, Ops: n},
			event{Pin: "SCE", Level: gpio.Low, Ops: n},
			event{Pin: "SCE", Level: gpio.High, Ops: n + 1},
		)
		ios = append(ios, conntest.IO{W: []byte{v}})
	}
	return events, ios
}

func TestNew(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if d.opts != DefaultOpts {
		t.Errorf("opts = %+v, want DefaultOpts", d.opts)
	}
	if d.frame != Splash {
		t.Error("a new device must start with the splash image")
	}
	if len(h.rec.Ops) != 0 || len(h.events) != 0 {
		t.Error("New must not talk to the display")
	}
	if s := d.String(); s == "" {
		t.Error("String() is empty")
	}
	if d.Bounds() != image.Rect(0, 0, 84, 48) {
		t.Errorf("Bounds() = %v", d.Bounds())
	}
	if d.ColorModel() != image1bit.BitModel {
		t.Error("ColorModel() is not image1bit.BitModel")
	}
}

func TestNewInvalidPins(t *testing.T) {
	h := newHarness()
	if _, err := New(h.rec, h.sce, nil, h.dc, h.bl, nil); !errors.Is(err, ErrPin) {
		t.Errorf("nil rst: got %v", err)
	}
	if _, err := New(h.rec, h.sce, h.rst, gpio.INVALID, h.bl, nil); !errors.Is(err, ErrPin) {
		t.Errorf("invalid dc: got %v", err)
	}
	if _, err := NewBitBang(h.sce, h.rst, h.dc, nil, h.bl, nil, nil); !errors.Is(err, ErrPin) {
		t.Errorf("nil clk: got %v", err)
	}
}

func TestNewDefault(t *testing.T) {
	if rpi.Present() {
		t.Skip("running on a Raspberry Pi")
	}
	h := newHarness()
	if _, err := NewDefault(h.rec, nil); !errors.Is(err, ErrPin) {
		t.Errorf("NewDefault() off a Raspberry Pi = %v, want ErrPin", err)
	}
	if len(h.rec.Ops) != 0 || len(h.events) != 0 {
		t.Error("NewDefault() must not touch the bus when failing")
	}
}

func TestInit(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)

	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	wantEvents := []event{
		{Pin: "SCE", Level: gpio.High},
		{Pin: "RST", Level: gpio.High},
		{Pin: "DC", Level: gpio.Low},
		{Pin: "BL", Level: gpio.Low},
		{Pin: "BL", Level: gpio.High},
		{Pin: "RST", Level: gpio.Low},
		{Pin: "RST", Level: gpio.High},
	}
	ev, wantOps := framed(0, gpio.Low, 0x21, 0xB0, 0x04, 0x14, 0x20, 0x0C, 0x21, 0xAD, 0x20)
	wantEvents = append(wantEvents, ev...)

	if diff := cmp.Diff(h.rec.Ops, wantOps, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Init() transfers (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(h.events, wantEvents); diff != "" {
		t.Errorf("Init() pins (-got +want):\n%s", diff)
	}
}

func TestInitOpts(t *testing.T) {
	h := newHarness()
	d := h.open(t, &Opts{Contrast: 0x7F, Backlight: gpio.DutyHalf, BacklightFreq: 2 * physic.KiloHertz, Speed: physic.MegaHertz})

	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	if got := h.rec.Ops[len(h.rec.Ops)-2].W; !bytes.Equal(got, []byte{0xFF}) {
		t.Errorf("contrast byte = %#v, want 0xff", got)
	}
	if diff := cmp.Diff(h.events[4], event{Pin: "BL", Duty: gpio.DutyHalf}); diff != "" {
		t.Errorf("backlight (-got +want):\n%s", diff)
	}
}

func TestInitError(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	h.rst.fail = errors.New("boom")

	if err := d.Init(); err == nil || !errors.Is(err, h.rst.fail) {
		t.Fatalf("Init() = %v, want boom", err)
	}
	if len(h.rec.Ops) != 0 {
		t.Errorf("Init() sent %d bytes after a failure", len(h.rec.Ops))
	}
	if err := d.Update(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Update() after failed Init = %v", err)
	}
}

func TestNotInitialized(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)

	if err := d.Update(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Update() = %v", err)
	}
	if err := d.SetContrast(10); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetContrast() = %v", err)
	}
	if err := d.Invert(true); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Invert() = %v", err)
	}
	if err := d.Draw(d.Bounds(), image.Black, image.Point{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Draw() = %v", err)
	}
	if _, err := d.Write(make([]byte, FrameSize)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Write() = %v", err)
	}
	if len(h.rec.Ops) != 0 {
		t.Errorf("%d bytes sent before Init", len(h.rec.Ops))
	}
}

func TestUpdate(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	d.Clear(false)
	d.SetPixel(0, 0, true)
	d.SetPixel(83, 47, true)
	d.SetPixel(84, 0, true)
	d.SetPixel(-1, 3, true)
	h.reset()

	if err := d.Update(); err != nil {
		t.Fatal(err)
	}

	cmdEvents, cmdOps := framed(0, gpio.Low, 0x80, 0x40)
	dataEvents, dataOps := framed(2, gpio.High, d.frame[:]...)
	if len(h.rec.Ops) != 2+FrameSize {
		t.Fatalf("Update() did %d transfers, want %d", len(h.rec.Ops), 2+FrameSize)
	}
	if diff := cmp.Diff(h.rec.Ops, append(cmdOps, dataOps...), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Update() transfers (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(h.events, append(cmdEvents, dataEvents...)); diff != "" {
		t.Errorf("Update() pins (-got +want):\n%s", diff)
	}
	if h.rec.Ops[2].W[0] != 0x01 || h.rec.Ops[len(h.rec.Ops)-1].W[0] != 0x80 {
		t.Errorf("corner pixels not in the first and last data bytes")
	}
}

func TestUpdateHardwareCE(t *testing.T) {
	h := newHarness()
	d, err := New(h.rec, nil, h.rst, h.dc, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	h.reset()

	if err := d.Update(); err != nil {
		t.Fatal(err)
	}
	for _, e := range h.events {
		if e.Pin != "DC" {
			t.Fatalf("unexpected pin event %+v", e)
		}
	}
	if len(h.rec.Ops) != 2+FrameSize {
		t.Errorf("Update() did %d transfers", len(h.rec.Ops))
	}
}

func TestSetContrastDev(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		in   uint8
		want byte
	}{
		{0, 0x80},
		{45, 0xAD},
		{127, 0xFF},
		{128, 0x80},
		{200, 0x80 | (200 & 0x7F)},
	} {
		h.reset()
		if err := d.SetContrast(tc.in); err != nil {
			t.Fatal(err)
		}
		_, want := framed(0, gpio.Low, 0x21, tc.want, 0x20)
		if diff := cmp.Diff(h.rec.Ops, want, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("SetContrast(%d) (-got +want):\n%s", tc.in, diff)
		}
		if d.opts.Contrast != tc.in&0x7F {
			t.Errorf("SetContrast(%d) stored %d", tc.in, d.opts.Contrast)
		}
	}
}

func TestWrite(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write(make([]byte, 10)); err == nil {
		t.Error("Write() accepted a short buffer")
	}
	pix := bytes.Repeat([]byte{0xAA}, FrameSize)
	h.reset()

	n, err := d.Write(pix)
	if err != nil || n != FrameSize {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if !bytes.Equal(d.frame[:], pix) {
		t.Error("Write() did not replace the frame")
	}
	if len(h.rec.Ops) != 2+FrameSize {
		t.Errorf("Write() did %d transfers", len(h.rec.Ops))
	}
}

func TestDraw(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	d.Clear(false)
	h.reset()

	if err := d.Draw(image.Rect(0, 8, 84, 16), &image.Uniform{image1bit.On}, image.Point{}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < FrameSize; i++ {
		want := byte(0)
		if i >= Width && i < 2*Width {
			want = 0xFF
		}
		if d.frame[i] != want {
			t.Fatalf("byte %d = %#02x, want %#02x", i, d.frame[i], want)
		}
	}
	if len(h.rec.Ops) != 2+FrameSize {
		t.Errorf("Draw() did %d transfers, want a full frame", len(h.rec.Ops))
	}
}

func TestInvert(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	h.reset()
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	_, want := framed(0, gpio.Low, 0x0D, 0x0C)
	if diff := cmp.Diff(h.rec.Ops, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Invert() (-got +want):\n%s", diff)
	}
}

func TestHalt(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	h.reset()

	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}

	_, want := framed(0, gpio.Low, 0x24, 0x20, 0x0C)
	if diff := cmp.Diff(h.rec.Ops, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Halt() then Invert() (-got +want):\n%s", diff)
	}
	if h.events[0] != (event{Pin: "BL", Level: gpio.Low}) {
		t.Errorf("Halt() did not turn the backlight off: %+v", h.events[0])
	}
}

func TestWakeFailure(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}

	h.dc.fail = errors.New("boom")
	if err := d.Update(); !errors.Is(err, h.dc.fail) {
		t.Fatalf("Update() = %v, want boom", err)
	}
	if !d.halted {
		t.Fatal("a failed wake up must leave the device halted")
	}

	// Once the line recovers, the next write wakes the controller again.
	h.dc.fail = nil
	h.reset()
	if err := d.Update(); err != nil {
		t.Fatal(err)
	}
	if len(h.rec.Ops) != 3+FrameSize {
		t.Fatalf("Update() did %d transfers, want %d", len(h.rec.Ops), 3+FrameSize)
	}
	_, want := framed(0, gpio.Low, 0x20, 0x80, 0x40)
	if diff := cmp.Diff(h.rec.Ops[:3], want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Update() after a failed wake up (-got +want):\n%s", diff)
	}
	if d.halted {
		t.Error("device still halted after a successful wake up")
	}
}

func TestSetBacklight(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)

	for _, duty := range []gpio.Duty{0, gpio.DutyHalf, gpio.DutyMax} {
		if err := d.SetBacklight(duty); err != nil {
			t.Fatal(err)
		}
	}
	want := []event{
		{Pin: "BL", Level: gpio.Low},
		{Pin: "BL", Duty: gpio.DutyHalf},
		{Pin: "BL", Level: gpio.High},
	}
	if diff := cmp.Diff(h.events, want); diff != "" {
		t.Errorf("SetBacklight() (-got +want):\n%s", diff)
	}

	d, err := New(&spitest.Record{}, h.sce, h.rst, h.dc, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetBacklight(gpio.DutyMax); err != nil {
		t.Errorf("SetBacklight() without a backlight = %v", err)
	}
}

func TestPixelAccessors(t *testing.T) {
	h := newHarness()
	d := h.open(t, nil)

	d.Clear(true)
	if !bytes.Equal(d.Frame()[:], bytes.Repeat([]byte{0xFF}, FrameSize)) {
		t.Error("Clear(true) did not set every byte to 0xff")
	}
	d.SetPixel(7, 7, false)
	if d.Pixel(7, 7) || !d.Pixel(7, 6) {
		t.Error("SetPixel(7, 7, false) cleared the wrong pixel")
	}
	d.Clear(false)
	if *d.Frame() != (Frame{}) {
		t.Error("Clear(false) did not zero the frame")
	}
}
