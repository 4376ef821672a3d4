// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcd8544

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Display geometry.
const (
	Width  = 84
	Height = 48
	// Banks is the number of 8 pixel high horizontal bands the controller
	// addresses with its Y command.
	Banks = Height / 8
	// FrameSize is the number of bytes in the display RAM.
	FrameSize = Width * Height / 8
)

// Frame is the content of the display RAM.
//
// Each byte holds 8 vertically stacked pixels, least significant bit at the
// top. Bytes are ordered column first then bank, which is the order in which
// the controller increments its address counter in horizontal addressing
// mode. Streaming a Frame in index order therefore fills the screen.
type Frame [FrameSize]byte

// byteIndex returns the index of the byte holding pixel (x, y).
func byteIndex(x, y int) int {
	return x + (y/8)*Width
}

// bitMask returns the mask of pixel row y within its byte.
func bitMask(y int) byte {
	return 1 << uint(y%8)
}

func inBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// SetPixel turns the pixel at (x, y) on (dark) or off.
//
// Coordinates outside the display are ignored, so shapes can be drawn
// across the edges without clipping.
func (f *Frame) SetPixel(x, y int, on bool) {
	if !inBounds(x, y) {
		return
	}
	if on {
		f[byteIndex(x, y)] |= bitMask(y)
	} else {
		f[byteIndex(x, y)] &^= bitMask(y)
	}
}

// Pixel reports whether the pixel at (x, y) is on. It returns false outside
// the display.
func (f *Frame) Pixel(x, y int) bool {
	if !inBounds(x, y) {
		return false
	}
	return f[byteIndex(x, y)]&bitMask(y) != 0
}

// Fill sets every pixel to on or off.
func (f *Frame) Fill(on bool) {
	var v byte
	if on {
		v = 0xFF
	}
	for i := range f {
		f[i] = v
	}
}

// ColorModel implements image.Image.
//
// It is a one bit color model, as implemented by image1bit.Bit. image1bit.On
// is a dark pixel on the glass.
func (f *Frame) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	return image1bit.Bit(f.Pixel(x, y))
}

// Set implements draw.Image.
func (f *Frame) Set(x, y int, c color.Color) {
	f.SetPixel(x, y, bool(image1bit.BitModel.Convert(c).(image1bit.Bit)))
}

var _ draw.Image = &Frame{}
