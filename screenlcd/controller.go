// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screenlcd

// Mode is the display configuration selected with the display control
// instruction.
type Mode uint8

// Display modes, by D and E bits.
const (
	Blank   Mode = 0 // D=0 E=0
	AllOn   Mode = 1 // D=0 E=1
	Normal  Mode = 4 // D=1 E=0
	Inverse Mode = 5 // D=1 E=1
)

func (m Mode) String() string {
	switch m {
	case Blank:
		return "blank"
	case AllOn:
		return "all segments on"
	case Normal:
		return "normal"
	case Inverse:
		return "inverse"
	default:
		return "invalid"
	}
}

// state is the controller register file.
type state struct {
	powerDown bool
	vertical  bool
	extended  bool
	mode      Mode
	x, y      int
	vop       uint8
	bias      uint8
	tc        uint8
}

// reset puts the registers in their state after RST, see datasheet 8.1.
// The RAM content is not cleared.
func (s *state) reset() {
	*s = state{powerDown: true, mode: Blank}
}

// command executes one instruction. It returns true if the display
// configuration changed.
func (s *state) command(c byte) bool {
	switch {
	case c == 0x00:
		// NOP.
	case c&0xF8 == 0x20:
		// Function set 0010 0PVH, valid in both instruction sets.
		pd := c&0x04 != 0
		changed := pd != s.powerDown
		s.powerDown = pd
		s.vertical = c&0x02 != 0
		s.extended = c&0x01 != 0
		return changed
	case s.extended:
		switch {
		case c&0x80 != 0:
			s.vop = c & 0x7F
		case c&0xF8 == 0x10:
			s.bias = c & 0x07
		case c&0xFC == 0x04:
			s.tc = c & 0x03
		}
	default:
		switch {
		case c&0x80 != 0:
			if x := int(c & 0x7F); x < Width {
				s.x = x
			}
		case c&0xF8 == 0x40:
			if y := int(c & 0x07); y < Banks {
				s.y = y
			}
		case c&0xFA == 0x08:
			m := Mode(c & 0x05)
			changed := m != s.mode
			s.mode = m
			return changed
		}
	}
	return false
}

// advance moves the address counter after a data write and reports whether
// it wrapped back to the origin.
func (s *state) advance() bool {
	if s.vertical {
		if s.y++; s.y == Banks {
			s.y = 0
			if s.x++; s.x == Width {
				s.x = 0
			}
		}
	} else {
		if s.x++; s.x == Width {
			s.x = 0
			if s.y++; s.y == Banks {
				s.y = 0
			}
		}
	}
	return s.x == 0 && s.y == 0
}
