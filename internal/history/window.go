// Package history keeps a fixed-length rolling window of frame means and turns
// it into line-graph segments and LED levels.
package history

import (
	"image"
	"math"
)

// Window is a fixed-length series. Slots not yet written hold NaN.
type Window struct {
	vals []float64
}

// NewWindow returns a window of n NaN slots. n is raised to 2, the fewest
// points that still form a line.
func NewWindow(n int) *Window {
	if n < 2 {
		n = 2
	}
	w := &Window{vals: make([]float64, n)}
	for i := range w.vals {
		w.vals[i] = math.NaN()
	}
	return w
}

// Len returns the window length.
func (w *Window) Len() int { return len(w.vals) }

// Push drops the oldest value and appends v.
func (w *Window) Push(v float64) {
	copy(w.vals, w.vals[1:])
	w.vals[len(w.vals)-1] = v
}

// Values returns a copy of the window, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.vals))
	copy(out, w.vals)
	return out
}

// MinMax returns the smallest and largest non-NaN values. ok is false when
// the window holds no values yet.
func (w *Window) MinMax() (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range w.vals {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if !ok {
		return math.NaN(), math.NaN(), false
	}
	return min, max, true
}

// Level places v within the window's range as a fraction in [0,1]. Without
// a range (empty or flat window) the level is full.
func (w *Window) Level(v float64) float64 {
	min, max, ok := w.MinMax()
	if !ok || !(max > min) || math.IsNaN(v) {
		return 1.0
	}
	return math.Max(0, math.Min(1, (v-min)/(max-min)))
}

// Segment is one line of the history graph.
type Segment struct {
	From, To image.Point
}

// Segments lays the window out as a line graph starting at column x0 with one
// column per value, scaled so the window's min sits at height and its max at 0.
// Segments touching an unwritten slot are left out; a flat window is drawn
// across the middle.
func (w *Window) Segments(x0, height int) []Segment {
	min, max, ok := w.MinMax()
	if !ok {
		return nil
	}
	y := func(v float64) int {
		if !(max > min) {
			return height / 2
		}
		return int((1.0 - (v-min)/(max-min)) * float64(height))
	}

	var segs []Segment
	for i := 0; i < len(w.vals)-1; i++ {
		m0, m1 := w.vals[i], w.vals[i+1]
		if math.IsNaN(m0) || math.IsNaN(m1) {
			continue
		}
		segs = append(segs, Segment{
			From: image.Pt(x0+i, y(m0)),
			To:   image.Pt(x0+i+1, y(m1)),
		})
	}
	return segs
}
