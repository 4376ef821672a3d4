// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcd8544

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// bitBang is a write only SPI mode 0 bus clocked over two GPIO pins, most
// significant bit first. The PCD8544 samples SDIN on the rising edge of SCLK.
//
// The pace is whatever the GPIO driver achieves, which on a Raspberry Pi
// stays well under the 4MHz the controller accepts.
type bitBang struct {
	din gpio.PinOut
	clk gpio.PinOut
}

func (b *bitBang) String() string {
	return fmt.Sprintf("bitbang{%s, %s}", b.din, b.clk)
}

// Tx implements conn.Conn.
func (b *bitBang) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("pcd8544: the bus is write only")
	}
	for _, v := range w {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if err := b.din.Out(gpio.Level(v&mask != 0)); err != nil {
				return err
			}
			if err := b.clk.Out(gpio.High); err != nil {
				return err
			}
			if err := b.clk.Out(gpio.Low); err != nil {
				return err
			}
		}
	}
	return nil
}

// Duplex implements conn.Conn.
func (b *bitBang) Duplex() conn.Duplex {
	return conn.Half
}

var _ conn.Conn = &bitBang{}
