// Package thermal resamples sensor frames and renders them through a colour
// gradient.
package thermal

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/thermcam/internal/palette"
)

// ErrShape reports a pixel count or destination size that does not match
// the frame dimensions.
var ErrShape = errors.New("frame shape mismatch")

// Frame is a row-major grid of temperatures.
type Frame struct {
	W, H int
	Pix  []float64
}

// NewFrame wraps pix as a w x h frame.
func NewFrame(w, h int, pix []float64) (Frame, error) {
	if w <= 0 || h <= 0 || len(pix) != w*h {
		return Frame{}, fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(pix), w, h)
	}
	return Frame{W: w, H: h, Pix: pix}, nil
}

// At returns the value at column x, row y.
func (f Frame) At(x, y int) float64 {
	return f.Pix[y*f.W+x]
}

// Stats returns the minimum, maximum and mean of the frame.
func (f Frame) Stats() (min, max, mean float64) {
	if len(f.Pix) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	return floats.Min(f.Pix), floats.Max(f.Pix), stat.Mean(f.Pix, nil)
}

// Normalize maps every value to (v-min)/(max-min). A flat frame has no range
// and normalises to NaN everywhere.
func (f Frame) Normalize() Frame {
	min, max, _ := f.Stats()
	out := Frame{W: f.W, H: f.H, Pix: make([]float64, len(f.Pix))}
	span := max - min
	for i, v := range f.Pix {
		if span > 0 {
			out.Pix[i] = (v - min) / span
		} else {
			out.Pix[i] = math.NaN()
		}
	}
	return out
}

// Resize resamples the frame to w x h with a Catmull-Rom kernel. Values are
// quantised to 16 bits over the frame's own range while resampling, so the
// result stays within [min,max] of the source.
func (f Frame) Resize(w, h int) (Frame, error) {
	if w <= 0 || h <= 0 {
		return Frame{}, fmt.Errorf("%w: cannot resize to %dx%d", ErrShape, w, h)
	}
	min, max, _ := f.Stats()
	span := max - min

	out := Frame{W: w, H: h, Pix: make([]float64, w*h)}
	if !(span > 0) {
		for i := range out.Pix {
			out.Pix[i] = min
		}
		return out, nil
	}

	src := image.NewGray16(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			q := (f.At(x, y) - min) / span * math.MaxUint16
			src.SetGray16(x, y, color.Gray16{Y: uint16(q + 0.5)})
		}
	}

	dst := image.NewGray16(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			q := float64(dst.Gray16At(x, y).Y) / math.MaxUint16
			out.Pix[y*w+x] = min + q*span
		}
	}
	return out, nil
}

// Render normalises the frame and writes g.At(fraction) for each pixel into
// dst. dst must have the frame's dimensions.
func Render(f Frame, g palette.Gradient, dst draw.Image) error {
	b := dst.Bounds()
	if b.Dx() != f.W || b.Dy() != f.H {
		return fmt.Errorf("%w: %dx%d frame onto %dx%d image", ErrShape, f.W, f.H, b.Dx(), b.Dy())
	}
	n := f.Normalize()
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			dst.Set(b.Min.X+x, b.Min.Y+y, g.At(n.At(x, y)))
		}
	}
	return nil
}
