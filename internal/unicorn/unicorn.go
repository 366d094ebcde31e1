// Package unicorn drives a Pimoroni Unicorn HAT HD, a 16x16 RGB LED matrix
// behind a microcontroller that accepts whole frames over SPI.
//
// Dev implements draw.Image: drawing only changes the local buffer, and Show
// pushes the buffer to the matrix.
package unicorn

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Matrix geometry.
const (
	Width  = 16
	Height = 16
)

const (
	startOfFrame = 0x72
	frameBytes   = 1 + Width*Height*3
	busSpeed     = 9 * physic.MegaHertz
)

// ErrBrightness is returned for a brightness outside [0,1].
var ErrBrightness = errors.New("brightness out of range")

// ErrRotation is returned for a rotation that is not a quarter turn.
var ErrRotation = errors.New("rotation must be 0, 90, 180 or 270")

// Opts configures the matrix. A zero Brightness takes DefaultOpts.Brightness;
// call SetBrightness(0) to dim the matrix fully.
type Opts struct {
	Brightness float64
	Rotation   int
}

// DefaultOpts matches the Pimoroni library defaults.
var DefaultOpts = Opts{Brightness: 0.5}

// Dev is a Unicorn HAT HD.
type Dev struct {
	c          conn.Conn
	port       io.Closer
	buf        [Width * Height]color.RGBA
	brightness float64
	rotation   int
	tx         [frameBytes]byte
}

// Open connects to the matrix on the named SPI port, e.g. "SPI0.0".
func Open(name string, opts *Opts) (*Dev, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unicorn: open %s: %w", name, err)
	}
	c, err := p.Connect(busSpeed, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("unicorn: connect %s: %w", name, err)
	}
	d, err := New(c, opts)
	if err != nil {
		p.Close()
		return nil, err
	}
	d.port = p
	return d, nil
}

// New wraps an already connected SPI conn.
func New(c conn.Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{c: c}
	b := opts.Brightness
	if b == 0 {
		b = DefaultOpts.Brightness
	}
	if err := d.SetBrightness(b); err != nil {
		return nil, err
	}
	if err := d.SetRotation(opts.Rotation); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("UnicornHATHD{%s}", d.c)
}

// ColorModel implements image.Image.
func (d *Dev) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (d *Dev) Bounds() image.Rectangle { return image.Rect(0, 0, Width, Height) }

// At implements image.Image.
func (d *Dev) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(d.Bounds())) {
		return color.RGBA{}
	}
	return d.buf[y*Width+x]
}

// Set implements draw.Image. Points outside the matrix are ignored.
func (d *Dev) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(d.Bounds())) {
		return
	}
	d.buf[y*Width+x] = color.RGBAModel.Convert(c).(color.RGBA)
}

// SetBrightness scales every channel on the next Show.
func (d *Dev) SetBrightness(b float64) error {
	if b < 0 || b > 1 {
		return fmt.Errorf("unicorn: %w: %v", ErrBrightness, b)
	}
	d.brightness = b
	return nil
}

// SetRotation rotates the image clockwise by deg on the next Show.
func (d *Dev) SetRotation(deg int) error {
	switch deg {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("unicorn: %w: %d", ErrRotation, deg)
	}
	d.rotation = deg
	return nil
}

// Clear blanks the buffer without sending it.
func (d *Dev) Clear() {
	for i := range d.buf {
		d.buf[i] = color.RGBA{}
	}
}

// Show sends the buffer. The matrix expects the start-of-frame byte followed
// by RGB triples in column-major order.
func (d *Dev) Show() error {
	d.tx[0] = startOfFrame
	i := 1
	for px := 0; px < Width; px++ {
		for py := 0; py < Height; py++ {
			x, y := d.source(px, py)
			c := d.buf[y*Width+x]
			d.tx[i] = d.scale(c.R)
			d.tx[i+1] = d.scale(c.G)
			d.tx[i+2] = d.scale(c.B)
			i += 3
		}
	}
	if err := d.c.Tx(d.tx[:], nil); err != nil {
		return fmt.Errorf("unicorn: show: %w", err)
	}
	return nil
}

// Off blanks the matrix.
func (d *Dev) Off() error {
	d.Clear()
	return d.Show()
}

// Close blanks the matrix and releases the SPI port when Open created it.
func (d *Dev) Close() error {
	return errors.Join(d.Off(), d.Release())
}

// Release closes the SPI port when Open created it and leaves the last frame
// lit.
func (d *Dev) Release() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

// source maps a physical LED to the buffer pixel shown on it.
func (d *Dev) source(px, py int) (x, y int) {
	switch d.rotation {
	case 90:
		return py, Width - 1 - px
	case 180:
		return Width - 1 - px, Height - 1 - py
	case 270:
		return Height - 1 - py, px
	}
	return px, py
}

func (d *Dev) scale(v uint8) byte {
	return byte(float64(v) * d.brightness)
}
