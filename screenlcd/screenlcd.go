// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screenlcd emulates a PCD8544 LCD controller and renders it to the
// terminal (stdout) using ANSI color codes.
//
// The emulator is a spi.Port with three control lines (DC, SCE, RST), so the
// pcd8544 driver can run unmodified against it. Useful while you are waiting
// for your Nokia 5110 module to come by mail.
package screenlcd

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Display geometry of the PCD8544.
const (
	Width  = 84
	Height = 48
	Banks  = Height / 8

	maxSpeed = 4 * physic.MegaHertz
)

// Opts represents the options available for this display.
type Opts struct {
	// W receives the rendering. Defaults to stdout.
	W io.Writer
	// Palette used to render. Defaults to ansi256.Default.
	Palette *ansi256.Palette
	// Ink and Paper are the colors of on and off pixels.
	Ink, Paper color.Color
	// Manual disables rendering on frame completion; call Render instead.
	Manual bool

	_ struct{}
}

// Dev is a PCD8544 emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	ink     color.NRGBA
	paper   color.NRGBA
	manual  bool

	dc  *line
	sce *line
	rst *line

	s        state
	ram      [Width * Banks]byte
	buf      bytes.Buffer
	rendered bool
}

// New returns a Dev in its power-on state: powered down, display blank.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       opts.W,
		palette: *p,
		ink:     color.NRGBA{0x1B, 0x2B, 0x1B, 0xFF},
		paper:   color.NRGBA{0x9B, 0xBC, 0x8F, 0xFF},
		manual:  opts.Manual,
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
	}
	if opts.Ink != nil {
		d.ink = color.NRGBAModel.Convert(opts.Ink).(color.NRGBA)
	}
	if opts.Paper != nil {
		d.paper = color.NRGBAModel.Convert(opts.Paper).(color.NRGBA)
	}
	d.dc = &line{Pin: gpiotest.Pin{N: "DC", L: gpio.Low}}
	d.sce = &line{Pin: gpiotest.Pin{N: "SCE", L: gpio.Low}}
	d.rst = &line{Pin: gpiotest.Pin{N: "RST", L: gpio.High}, onChange: d.resetLine}
	d.s.reset()
	return d
}

func (d *Dev) String() string {
	return "ScreenLCD"
}

// DC returns the data/command line. Low selects commands.
func (d *Dev) DC() gpio.PinOut {
	return d.dc
}

// SCE returns the chip enable line. Bytes sent while it is high are
// ignored. It starts low, so it can be left unconnected.
func (d *Dev) SCE() gpio.PinOut {
	return d.sce
}

// RST returns the reset line. Driving it low resets the controller, which
// ignores the bus until it is released.
func (d *Dev) RST() gpio.PinOut {
	return d.rst
}

// Connect implements spi.Port.
func (d *Dev) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if f > maxSpeed {
		return nil, fmt.Errorf("screenlcd: %s is above the %s the controller accepts", f, maxSpeed)
	}
	if mode != spi.Mode0 && mode != spi.Mode3 {
		return nil, fmt.Errorf("screenlcd: unsupported mode %d", mode)
	}
	if bits != 8 {
		return nil, fmt.Errorf("screenlcd: unsupported bits per word %d", bits)
	}
	return d, nil
}

// Tx implements conn.Conn.
func (d *Dev) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("screenlcd: the controller is write only")
	}
	// The controller ignores the bus while deselected or held in reset.
	if d.sce.Read() == gpio.High || d.rst.Read() == gpio.Low {
		return nil
	}
	isData := d.dc.Read() == gpio.High
	for _, b := range w {
		if isData {
			d.ram[d.s.y*Width+d.s.x] = b
			if d.s.advance() && !d.s.powerDown {
				if err := d.autoRender(); err != nil {
					return err
				}
			}
		} else if d.s.command(b) {
			if err := d.autoRender(); err != nil {
				return err
			}
		}
	}
	return nil
}

// TxPackets implements spi.Conn.
func (d *Dev) TxPackets(p []spi.Packet) error {
	for _, pkt := range p {
		if err := d.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// Duplex implements conn.Conn.
func (d *Dev) Duplex() conn.Duplex {
	return conn.Half
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m"))
	return err
}

// RAM returns a copy of the display RAM, in controller order.
func (d *Dev) RAM() []byte {
	out := make([]byte, len(d.ram))
	copy(out, d.ram[:])
	return out
}

// Pixel reports whether the pixel at (x, y) is dark on the glass, taking the
// display mode and power-down into account.
func (d *Dev) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height || d.s.powerDown {
		return false
	}
	switch d.s.mode {
	case AllOn:
		return true
	case Normal:
		return d.ram[y/8*Width+x]&(1<<uint(y&7)) != 0
	case Inverse:
		return d.ram[y/8*Width+x]&(1<<uint(y&7)) == 0
	default:
		return false
	}
}

// Cursor returns the address counter: column and bank.
func (d *Dev) Cursor() (x, bank int) {
	return d.s.x, d.s.y
}

// Vop returns the operating voltage register, which sets the contrast.
func (d *Dev) Vop() uint8 {
	return d.s.vop
}

// Bias returns the bias system register.
func (d *Dev) Bias() uint8 {
	return d.s.bias
}

// TempCoeff returns the temperature coefficient register.
func (d *Dev) TempCoeff() uint8 {
	return d.s.tc
}

// Mode returns the display configuration.
func (d *Dev) Mode() Mode {
	return d.s.mode
}

// PoweredDown reports whether the controller is in power-down mode.
func (d *Dev) PoweredDown() bool {
	return d.s.powerDown
}

// Extended reports whether the extended instruction set is selected.
func (d *Dev) Extended() bool {
	return d.s.extended
}

// Render draws the glass to the output.
func (d *Dev) Render() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	if d.rendered {
		// Redraw over the previous rendering.
		fmt.Fprintf(&d.buf, "\033[%dA", Height)
	}
	for y := 0; y < Height; y++ {
		_, _ = d.buf.WriteString("\r\033[0m")
		for x := 0; x < Width; x++ {
			c := d.paper
			if d.Pixel(x, y) {
				c = d.ink
			}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.rendered = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

func (d *Dev) autoRender() error {
	if d.manual {
		return nil
	}
	return d.Render()
}

func (d *Dev) resetLine(l gpio.Level) {
	if l == gpio.Low {
		d.s.reset()
	}
}

// line is a control line input of the controller.
type line struct {
	gpiotest.Pin
	onChange func(gpio.Level)
}

// Out implements gpio.PinOut.
func (l *line) Out(v gpio.Level) error {
	if err := l.Pin.Out(v); err != nil {
		return err
	}
	if l.onChange != nil {
		l.onChange(v)
	}
	return nil
}

var _ spi.Port = &Dev{}
var _ spi.Conn = &Dev{}
var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
