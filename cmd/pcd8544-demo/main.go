// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// pcd8544-demo draws a few screens on a Nokia 5110 display, or on a terminal
// emulation of one.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/GermanBionicSystems/lcd5110/pcd8544"
	"github.com/GermanBionicSystems/lcd5110/screenlcd"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

func main() {
	emulateFlag := flag.Bool("emulate", false, "Render to the terminal instead of a display")
	spiFlag := flag.String("spi", "", "SPI port (default: use first available)")
	sceFlag := flag.String("sce", "", "Chip enable GPIO pin, empty when wired to the port's CS")
	rstFlag := flag.String("rst", "GPIO25", "Reset GPIO pin")
	dcFlag := flag.String("dc", "GPIO24", "Data/Command GPIO pin")
	blFlag := flag.String("bl", "GPIO18", "Backlight GPIO pin, empty for none")
	dinFlag := flag.String("din", "", "Serial data GPIO pin, bit-bangs the bus with -clk")
	clkFlag := flag.String("clk", "", "Serial clock GPIO pin, bit-bangs the bus with -din")
	contrastFlag := flag.Uint("contrast", pcd8544.DefaultContrast, "Contrast (Vop), 0-127")
	textFlag := flag.String("text", "periph", "Text to show")
	framesFlag := flag.Int("frames", 0, "Stop after this many animation frames, 0 runs until interrupted")
	intervalFlag := flag.Duration("interval", 100*time.Millisecond, "Delay between animation frames")
	flag.Parse()

	if *contrastFlag > 127 {
		fatal(fmt.Errorf("contrast %d is out of range", *contrastFlag))
	}
	opts := pcd8544.DefaultOpts
	opts.Contrast = uint8(*contrastFlag)

	var (
		dev     *pcd8544.Dev
		closeFn func() error
		err     error
	)
	if *emulateFlag {
		dev, closeFn, err = openEmulator(&opts)
	} else {
		dev, closeFn, err = openHardware(&opts, *spiFlag, *sceFlag, *rstFlag, *dcFlag, *blFlag, *dinFlag, *clkFlag)
	}
	if err != nil {
		fatal(err)
	}
	defer closeFn()
	if !*emulateFlag {
		log.Printf("using %s", dev)
	}

	if err = dev.Init(); err != nil {
		fatal(err)
	}
	// The splash loaded in the frame buffer.
	if err = dev.Update(); err != nil {
		fatal(err)
	}
	time.Sleep(2 * time.Second)

	img, err := vectorScreen(*textFlag)
	if err != nil {
		fatal(err)
	}
	if err = dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		fatal(err)
	}
	time.Sleep(2 * time.Second)

	if err = textScreen(dev, *textFlag, opts.Contrast); err != nil {
		fatal(err)
	}
	time.Sleep(2 * time.Second)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	if err = animate(dev, *framesFlag, *intervalFlag, stop); err != nil {
		fatal(err)
	}
	if err = dev.Halt(); err != nil {
		fatal(err)
	}
}

func openEmulator(opts *pcd8544.Opts) (*pcd8544.Dev, func() error, error) {
	emu := screenlcd.New(nil)
	dev, err := pcd8544.New(emu, emu.SCE(), emu.RST(), emu.DC(), nil, opts)
	if err != nil {
		return nil, nil, err
	}
	return dev, emu.Halt, nil
}

func openHardware(opts *pcd8544.Opts, port, sce, rst, dc, bl, din, clk string) (*pcd8544.Dev, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	pins := map[string]gpio.PinIO{}
	for _, name := range []string{sce, rst, dc, bl, din, clk} {
		if name == "" {
			continue
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, nil, fmt.Errorf("unknown pin %q", name)
		}
		pins[name] = p
	}
	if (din == "") != (clk == "") {
		return nil, nil, errors.New("-din and -clk must be used together")
	}
	if din != "" {
		dev, err := pcd8544.NewBitBang(pins[sce], pins[rst], pins[dc], pins[din], pins[clk], pins[bl], opts)
		if err != nil {
			return nil, nil, err
		}
		return dev, func() error { return nil }, nil
	}

	p, err := spireg.Open(port)
	if err != nil {
		return nil, nil, err
	}
	dev, err := pcd8544.New(p, pins[sce], pins[rst], pins[dc], pins[bl], opts)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return dev, p.Close, nil
}

// vectorScreen renders text and a few shapes with gg. Light pixels end up
// dark on the glass.
func vectorScreen(text string) (image.Image, error) {
	const w, h = pcd8544.Width, pcd8544.Height
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, w-1, h-1)
	dc.Stroke()
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 14}))
	dc.DrawStringAnchored(text, w/2, h/2-6, 0.5, 0.5)
	for i := 0; i < 5; i++ {
		dc.DrawCircle(float64(18+12*i), h-10, 4)
	}
	dc.Fill()
	return dc.Image(), nil
}

// textScreen writes straight into the frame buffer with a bitmap font.
func textScreen(dev *pcd8544.Dev, text string, contrast uint8) error {
	dev.Clear(false)
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  dev.Frame(),
		Src:  &image.Uniform{image1bit.On},
		Face: face,
		Dot:  fixed.P(1, face.Ascent+1),
	}
	d.DrawString(text)
	for i, line := range []string{
		fmt.Sprintf("%dx%d", pcd8544.Width, pcd8544.Height),
		fmt.Sprintf("vop %d", contrast),
	} {
		d.Dot = fixed.P(1, face.Ascent+1+(i+1)*face.Height)
		d.DrawString(line)
	}
	return dev.Update()
}

// animate sweeps a vertical bar across the display.
func animate(dev *pcd8544.Dev, frames int, interval time.Duration, stop <-chan os.Signal) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	dev.Clear(false)
	prev := -1
	for i := 0; frames == 0 || i < frames; i++ {
		x := i % pcd8544.Width
		for y := 0; y < pcd8544.Height; y++ {
			if prev >= 0 {
				dev.SetPixel(prev, y, false)
			}
			dev.SetPixel(x, y, true)
		}
		prev = x
		if err := dev.Update(); err != nil {
			return err
		}
		select {
		case <-stop:
			return nil
		case <-t.C:
		}
	}
	return nil
}

func fatal(err error) {
	log.Fatalf("pcd8544-demo: %v", err)
}
