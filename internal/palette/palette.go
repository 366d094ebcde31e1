// Package palette maps fractions onto colour gradients and blends four corner
// colours across a surface.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"image/draw"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrUnknown is returned by ByName for a palette that is not registered.
var ErrUnknown = errors.New("unknown palette")

var black = color.RGBA{A: 0xff}

// Gradient is an ordered list of colour stops spread evenly over [0,1].
type Gradient []colorful.Color

// New builds a Gradient from 8-bit stops.
func New(stops ...color.RGBA) Gradient {
	g := make(Gradient, len(stops))
	for i, s := range stops {
		g[i] = fromRGBA(s)
	}
	return g
}

// Thermal runs from deep purple through blue, cyan, yellow and red to dark red.
var Thermal = New(
	color.RGBA{36, 0, 79, 0xff},
	color.RGBA{125, 0, 255, 0xff},
	color.RGBA{0, 0, 255, 0xff},
	color.RGBA{0, 255, 255, 0xff},
	color.RGBA{255, 255, 0, 0xff},
	color.RGBA{255, 125, 0, 0xff},
	color.RGBA{255, 0, 0, 0xff},
	color.RGBA{79, 0, 0, 0xff},
)

// Classic is Thermal without the darkened ends.
var Classic = New(
	color.RGBA{125, 0, 255, 0xff},
	color.RGBA{0, 0, 255, 0xff},
	color.RGBA{0, 255, 255, 0xff},
	color.RGBA{255, 255, 0, 0xff},
	color.RGBA{255, 125, 0, 0xff},
	color.RGBA{255, 0, 0, 0xff},
)

var registry = map[string]Gradient{
	"thermal": Thermal,
	"classic": Classic,
}

// ByName returns a registered gradient.
func ByName(name string) (Gradient, error) {
	g, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %v)", ErrUnknown, name, Names())
	}
	return g, nil
}

// Names lists the registered gradients in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// At returns the colour at fraction f. NaN maps to black and f is clamped
// to [0,1]. Between two stops the channels are blended linearly.
func (g Gradient) At(f float64) color.RGBA {
	if len(g) == 0 || math.IsNaN(f) {
		return black
	}
	if len(g) == 1 {
		return toRGBA(g[0])
	}
	f = math.Max(0, math.Min(1, f))

	i := f * float64(len(g)-1)
	low := int(math.Floor(i))
	high := int(math.Ceil(i))
	return toRGBA(g[low].BlendRgb(g[high], i-float64(low)))
}

// Corners are the four colours blended by Bilinear.
type Corners struct {
	TopLeft, TopRight, BottomLeft, BottomRight color.RGBA
}

// DefaultCorners is red, green, yellow and blue clockwise from the top left.
var DefaultCorners = Corners{
	TopLeft:     color.RGBA{255, 0, 0, 0xff},
	TopRight:    color.RGBA{0, 255, 0, 0xff},
	BottomLeft:  color.RGBA{255, 255, 0, 0xff},
	BottomRight: color.RGBA{0, 0, 255, 0xff},
}

// Bilinear blends the corners at vertical fraction vf and horizontal
// fraction hf, both in [0,1] with (0,0) at the top left.
func Bilinear(vf, hf float64, c Corners) color.RGBA {
	top := fromRGBA(c.TopLeft).BlendRgb(fromRGBA(c.TopRight), hf)
	bottom := fromRGBA(c.BottomLeft).BlendRgb(fromRGBA(c.BottomRight), hf)
	return toRGBA(top.BlendRgb(bottom, vf))
}

// Swatch fills dst with the bilinear blend of c. The corner pixels of dst
// take the corner colours exactly.
func Swatch(dst draw.Image, c Corners) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		vf := fraction(y-b.Min.Y, b.Dy())
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, Bilinear(vf, fraction(x-b.Min.X, b.Dx()), c))
		}
	}
}

func fraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

func fromRGBA(c color.RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 0xff}
}
