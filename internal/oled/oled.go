// Package oled drives the Adafruit PiOLED, a 128x32 SSD1306 panel on I2C,
// through a local 1-bit canvas.
package oled

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// PiOLED geometry and bus address.
const (
	Width       = 128
	Height      = 32
	DefaultAddr = 0x3C
)

// Panel is the part of ssd1306.Dev the display needs.
type Panel interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// PiOLED pairs a canvas with the panel it is shown on.
type PiOLED struct {
	panel  Panel
	canvas *Canvas
}

// New wraps panel with a blank canvas of the PiOLED size.
func New(panel Panel) *PiOLED {
	return &PiOLED{panel: panel, canvas: NewCanvas(Width, Height)}
}

// OpenI2C initialises an SSD1306 128x32 at addr on bus and clears it.
func OpenI2C(bus i2c.Bus, addr uint16) (*PiOLED, error) {
	if addr != 0 && addr != DefaultAddr {
		bus = &addrBus{Bus: bus, addr: addr}
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: Width, H: Height, Sequential: true})
	if err != nil {
		return nil, fmt.Errorf("oled: open: %w", err)
	}
	o := New(dev)
	if err := o.Clear(true); err != nil {
		return nil, err
	}
	return o, nil
}

// Canvas exposes the drawing surface.
func (o *PiOLED) Canvas() *Canvas { return o.canvas }

// Text draws s with its top-left corner at pt.
func (o *PiOLED) Text(s string, pt image.Point) { o.canvas.Text(s, pt) }

// Line draws a line on the canvas.
func (o *PiOLED) Line(p0, p1 image.Point) { o.canvas.Line(p0, p1) }

// Clear blanks the canvas and, when show is set, the panel too.
func (o *PiOLED) Clear(show bool) error {
	o.canvas.Clear()
	if !show {
		return nil
	}
	return o.Show()
}

// Show sends the canvas to the panel.
func (o *PiOLED) Show() error {
	if err := o.panel.Draw(o.canvas.Bounds(), o.canvas.Image(), image.Point{}); err != nil {
		return fmt.Errorf("oled: show: %w", err)
	}
	return nil
}

// Halt turns the panel off.
func (o *PiOLED) Halt() error {
	return o.panel.Halt()
}

// addrBus sends every transaction to a fixed address, for panels strapped
// away from the driver's default.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}
