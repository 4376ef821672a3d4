// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcd8544

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// resetPulse is how long RST is held low. The datasheet minimum is 100ns.
var resetPulse = time.Microsecond

// errorHandler is a wrapper for error management. Once an operation fails,
// all following ones are skipped and err holds the first failure.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil || p == nil {
		return
	}
	eh.err = p.Out(l)
}

func (eh *errorHandler) cTx(w []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.c.Tx(w, nil)
}

// transfer sends one byte, waking the controller first if Halt put it in
// power-down.
func (eh *errorHandler) transfer(dc gpio.Level, b byte) {
	if eh.err != nil {
		return
	}
	if eh.d.halted {
		// Any instruction wakes the controller; leave power-down first.
		eh.send(gpio.Low, functionSet)
		if eh.err != nil {
			return
		}
		eh.d.halted = false
	}
	eh.send(dc, b)
}

// send sends one byte framed by SCE, with DC selecting command (Low) or data
// (High).
func (eh *errorHandler) send(dc gpio.Level, b byte) {
	eh.out(eh.d.dc, dc)
	eh.out(eh.d.sce, gpio.Low)
	eh.cTx([]byte{b})
	eh.out(eh.d.sce, gpio.High)
}

func (eh *errorHandler) writeCommand(c byte) {
	eh.transfer(gpio.Low, c)
}

func (eh *errorHandler) writeData(b byte) {
	eh.transfer(gpio.High, b)
}

// configureOutputs drives every control line to its idle level, which also
// makes it an output.
func (eh *errorHandler) configureOutputs() {
	eh.out(eh.d.sce, gpio.High)
	eh.out(eh.d.rst, gpio.High)
	eh.out(eh.d.dc, gpio.Low)
	if bb, ok := eh.d.c.(*bitBang); ok {
		eh.out(bb.din, gpio.Low)
		eh.out(bb.clk, gpio.Low)
	}
	eh.out(eh.d.bl, gpio.Low)
}

func (eh *errorHandler) setBacklight(duty gpio.Duty) {
	if eh.err != nil || eh.d.bl == nil {
		return
	}
	switch {
	case duty >= gpio.DutyMax:
		eh.err = eh.d.bl.Out(gpio.High)
	case duty <= 0:
		eh.err = eh.d.bl.Out(gpio.Low)
	default:
		eh.err = eh.d.bl.PWM(duty, eh.d.opts.BacklightFreq)
	}
}

func (eh *errorHandler) pulseReset() {
	eh.out(eh.d.rst, gpio.Low)
	if eh.err != nil {
		return
	}
	time.Sleep(resetPulse)
	eh.out(eh.d.rst, gpio.High)
}
