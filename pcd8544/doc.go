// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcd8544 controls a 84x48 monochrome LCD driven by a Philips
// PCD8544 controller, as found on the Nokia 5110 / 3310 display modules.
//
// The driver keeps the whole display in a 504 bytes frame buffer. Drawing
// only touches the buffer; Update streams the full buffer to the controller.
// There is no differential update: the controller is write only, so the
// driver cannot know what is on the glass.
//
// The bus is write only SPI mode 0 with a data/command line (DC). Every byte
// is framed by the chip enable line (SCE). A hardware SPI port can be used
// with New, or any two GPIO pins with NewBitBang.
//
// The driver is not safe for concurrent use.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/Monochrome/Nokia5110.pdf
package pcd8544
