// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd5110 is a container for the Nokia 5110 (PCD8544) display
// driver and its terminal emulator.
//
// See package pcd8544 for the driver, screenlcd for the emulator and
// cmd/pcd8544-demo for a program exercising both.
package lcd5110
