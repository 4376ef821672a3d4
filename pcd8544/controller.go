// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcd8544

import "periph.io/x/conn/v3/gpio"

// Commands. See the PCD8544 datasheet, table 1 (instruction set).
const (
	// Function set: 0010 0PVH.
	functionSet        byte = 0x20
	extendedInstrs     byte = 0x01 // H
	verticalAddressing byte = 0x02 // V
	powerDown          byte = 0x04 // PD

	// Basic instruction set (H=0).
	displayControl byte = 0x08 // 0000 1D0E
	displayBlank   byte = displayControl
	displayNormal  byte = displayControl | 0x04
	displayAllOn   byte = displayControl | 0x01
	displayInverse byte = displayControl | 0x05
	setYAddress    byte = 0x40 // 0100 0yyy, bank 0..5
	setXAddress    byte = 0x80 // 1xxx xxxx, column 0..83

	// Extended instruction set (H=1).
	tempControl byte = 0x04 // 0000 01TT
	biasSystem  byte = 0x10 // 0001 0bbb
	setVop      byte = 0x80 // 1vvv vvvv
)

const (
	// DefaultContrast is the Vop applied at the end of Init unless Opts says
	// otherwise.
	DefaultContrast = 45

	vopMask = 0x7F
)

// initSequence is sent verbatim by Init after the reset pulse.
var initSequence = []byte{
	functionSet | extendedInstrs, // extended instruction set
	setVop | 0x30,                // Vop, overwritten by the contrast that follows
	tempControl | 0,              // temperature coefficient 0
	biasSystem | 4,               // bias 1:48
	functionSet,                  // basic set, required before display control
	displayNormal,                // normal (non inverted) display
}

// controller is the byte level transport to the PCD8544.
type controller interface {
	writeCommand(byte)
	writeData(byte)
}

// pinController drives the control lines that are not part of the byte
// transfer.
type pinController interface {
	configureOutputs()
	setBacklight(gpio.Duty)
	pulseReset()
}

func initDisplay(pins pinController, ctrl controller, backlight gpio.Duty, contrast uint8) {
	pins.configureOutputs()
	pins.setBacklight(backlight)
	pins.pulseReset()
	for _, c := range initSequence {
		ctrl.writeCommand(c)
	}
	setContrast(ctrl, contrast)
}

func setContrast(ctrl controller, contrast uint8) {
	ctrl.writeCommand(functionSet | extendedInstrs)
	ctrl.writeCommand(setVop | contrast&vopMask)
	ctrl.writeCommand(functionSet)
}

// gotoXY moves the address counter. bank is a group of 8 rows (0..5), not a
// pixel row.
func gotoXY(ctrl controller, column, bank int) {
	ctrl.writeCommand(setXAddress | byte(column))
	ctrl.writeCommand(setYAddress | byte(bank))
}

func updateDisplay(ctrl controller, f *Frame) {
	gotoXY(ctrl, 0, 0)
	for _, b := range f {
		ctrl.writeData(b)
	}
}
