// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcd8544

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"
)

var (
	// ErrNotInitialized is returned by operations that talk to the
	// controller before Init succeeded.
	ErrNotInitialized = errors.New("pcd8544: Init must be called first")
	// ErrPin is returned when a required control line is missing.
	ErrPin = errors.New("pcd8544: invalid GPIO pin")
)

// Opts defines the options for the device.
type Opts struct {
	// Contrast is the Vop applied by Init, 0..127.
	Contrast uint8
	// Backlight is the backlight level applied by Init.
	Backlight gpio.Duty
	// BacklightFreq is the PWM frequency used for partial backlight levels.
	BacklightFreq physic.Frequency
	// Speed is the SPI clock. The PCD8544 accepts up to 4MHz.
	Speed physic.Frequency
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Contrast:      DefaultContrast,
	Backlight:     gpio.DutyMax,
	BacklightFreq: physic.KiloHertz,
	Speed:         4 * physic.MegaHertz,
}

// Dev is an open handle to the display controller.
type Dev struct {
	// Communication
	c   conn.Conn
	sce gpio.PinOut
	rst gpio.PinOut
	dc  gpio.PinOut
	bl  gpio.PinOut

	opts Opts

	// Mutable
	frame       Frame
	initialized bool
	halted      bool
}

// New returns a Dev that communicates over a hardware SPI port to a PCD8544
// display controller.
//
// # Wiring
//
// Connect DIN to SPI_MOSI and CLK to SPI_CLK. sce is the chip enable line;
// pass nil when SCE is wired to the port's own CS. bl is the backlight LED
// and may be nil. rst and dc are required.
//
// Init must be called before anything is sent to the display.
func New(p spi.Port, sce, rst, dc, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := checkPins(rst, dc); err != nil {
		return nil, err
	}
	c, err := p.Connect(opts.Speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("pcd8544: %w", err)
	}
	return newDev(c, sce, rst, dc, bl, opts), nil
}

// NewBitBang returns a Dev that clocks data out on two GPIO pins, for boards
// where the display is not wired to a SPI port.
//
// The six arguments are the six control lines of the module: chip enable,
// reset, data/command, serial data, serial clock and backlight. bl may be
// nil.
func NewBitBang(sce, rst, dc, din, clk, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := checkPins(sce, rst, dc, din, clk); err != nil {
		return nil, err
	}
	return newDev(&bitBang{din: din, clk: clk}, sce, rst, dc, bl, opts), nil
}

// NewDefault returns a Dev using the default wiring on a Raspberry Pi
// header: SCE on P1_24 (CE0), RST on P1_22, DC on P1_18 and the backlight on
// P1_12 (PWM0).
//
// host.Init must have been called. It returns ErrPin when not running on a
// Raspberry Pi.
func NewDefault(p spi.Port, opts *Opts) (*Dev, error) {
	if !rpi.Present() {
		return nil, ErrPin
	}
	sce := rpi.P1_24
	rst := rpi.P1_22
	dc := rpi.P1_18
	bl := rpi.P1_12
	return New(p, sce, rst, dc, bl, opts)
}

func checkPins(pins ...gpio.PinOut) error {
	for _, p := range pins {
		if p == nil || p == gpio.INVALID {
			return ErrPin
		}
	}
	return nil
}

func newDev(c conn.Conn, sce, rst, dc, bl gpio.PinOut, opts *Opts) *Dev {
	if bl == gpio.INVALID {
		bl = nil
	}
	if sce == gpio.INVALID {
		sce = nil
	}
	return &Dev{
		c:     c,
		sce:   sce,
		rst:   rst,
		dc:    dc,
		bl:    bl,
		opts:  *opts,
		frame: Splash,
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("pcd8544.Dev{%s, DC:%s, RST:%s}", d.c, d.dc, d.rst)
}

// Init resets the controller and sends the power-up configuration: extended
// instruction set, Vop, temperature coefficient, bias 1:48, then back to the
// basic instruction set in normal display mode. It ends by applying
// Opts.Contrast.
//
// The content of the display RAM is undefined until the first Update.
func (d *Dev) Init() error {
	eh := errorHandler{d: d}
	d.halted = false
	initDisplay(&eh, &eh, d.opts.Backlight, d.opts.Contrast)
	if eh.err != nil {
		return fmt.Errorf("pcd8544: init: %w", eh.err)
	}
	d.initialized = true
	return nil
}

// SetPixel turns the pixel at (x, y) on (dark) or off in the frame buffer.
// Pixels outside the display are ignored.
//
// Update must be called for the change to show.
func (d *Dev) SetPixel(x, y int, on bool) {
	d.frame.SetPixel(x, y, on)
}

// Pixel reports whether the pixel at (x, y) is on in the frame buffer.
func (d *Dev) Pixel(x, y int) bool {
	return d.frame.Pixel(x, y)
}

// Clear sets all pixels of the frame buffer to on (dark) or off.
func (d *Dev) Clear(on bool) {
	d.frame.Fill(on)
}

// Frame returns the frame buffer. It can be drawn on directly, it is an
// image/draw.Image.
func (d *Dev) Frame() *Frame {
	return &d.frame
}

// Update sends the whole frame buffer to the display.
func (d *Dev) Update() error {
	if !d.initialized {
		return ErrNotInitialized
	}
	eh := errorHandler{d: d}
	updateDisplay(&eh, &d.frame)
	return eh.err
}

// Write replaces the frame buffer with pixels and updates the display.
//
// The format is the one of Frame: each byte is 8 vertical pixels, in
// horizontal bands of 8 pixels high.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != FrameSize {
		return 0, fmt.Errorf("pcd8544: invalid pixel stream length; expected %d bytes, got %d bytes", FrameSize, len(pixels))
	}
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	copy(d.frame[:], pixels)
	if err := d.Update(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.frame.Bounds()
}

// Draw implements display.Drawer.
//
// src is composed into the frame buffer and the whole frame is sent; the
// controller has no partial update.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	draw.Src.Draw(&d.frame, r, src, sp)
	return d.Update()
}

// SetContrast changes the operating voltage (Vop), which sets the contrast.
//
// Only the low 7 bits are used; larger values wrap around.
func (d *Dev) SetContrast(level uint8) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	eh := errorHandler{d: d}
	setContrast(&eh, level)
	if eh.err == nil {
		d.opts.Contrast = level & vopMask
	}
	return eh.err
}

// Invert the display (white on black vs black on white).
func (d *Dev) Invert(inverse bool) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	eh := errorHandler{d: d}
	if inverse {
		eh.writeCommand(displayInverse)
	} else {
		eh.writeCommand(displayNormal)
	}
	return eh.err
}

// SetBacklight changes the backlight level. It does nothing when the
// backlight is not wired.
func (d *Dev) SetBacklight(level gpio.Duty) error {
	eh := errorHandler{d: d}
	eh.setBacklight(level)
	return eh.err
}

// Halt turns off the backlight and puts the controller in power-down mode.
// The display RAM is kept.
//
// Sending any other command afterward wakes the controller.
func (d *Dev) Halt() error {
	eh := errorHandler{d: d}
	eh.setBacklight(0)
	if d.initialized && !d.halted {
		eh.writeCommand(functionSet | powerDown)
		if eh.err == nil {
			d.halted = true
		}
	}
	return eh.err
}

var _ display.Drawer = &Dev{}
