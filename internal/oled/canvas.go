package oled

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Canvas is a 1-bit drawing surface sized for the panel.
type Canvas struct {
	img  *image1bit.VerticalLSB
	face font.Face
}

// NewCanvas returns a blank w x h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{
		img:  image1bit.NewVerticalLSB(image.Rect(0, 0, w, h)),
		face: basicfont.Face7x13,
	}
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Image returns the backing image, in the layout the SSD1306 expects.
func (c *Canvas) Image() image.Image { return c.img }

// Lit reports whether the pixel at (x, y) is on.
func (c *Canvas) Lit(x, y int) bool {
	if !(image.Point{x, y}.In(c.img.Rect)) {
		return false
	}
	return c.img.BitAt(x, y) == image1bit.On
}

// Clear turns every pixel off.
func (c *Canvas) Clear() {
	for i := range c.img.Pix {
		c.img.Pix[i] = 0
	}
}

// LineHeight is the vertical advance of one text row.
func (c *Canvas) LineHeight() int {
	return c.face.Metrics().Height.Ceil()
}

// Text draws s with its top-left corner at pt.
func (c *Canvas) Text(s string, pt image.Point) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(image1bit.On),
		Face: c.face,
		Dot:  fixed.P(pt.X, pt.Y+c.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// Line draws a one pixel wide line from p0 to p1 inclusive. Pixels off the
// canvas are skipped.
func (c *Canvas) Line(p0, p1 image.Point) {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	err := dx + dy
	x, y := p0.X, p0.Y
	for {
		c.set(x, y)
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func (c *Canvas) set(x, y int) {
	if image.Pt(x, y).In(c.img.Rect) {
		c.img.SetBit(x, y, image1bit.On)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
