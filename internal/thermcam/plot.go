package thermcam

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/palette"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("thermcam: no samples to plot")

// WritePlot charts the min, mean and max of each sample against seconds since
// the first one and writes the chart as PNG.
func WritePlot(fs fsutil.FileSystem, path string, samples []Sample) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = "Thermal camera session"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Temperature (°C)"
	p.Add(plotter.NewGrid())

	t0 := samples[0].Time
	series := []struct {
		name  string
		value func(Sample) float64
		color color.Color
	}{
		{"Min", func(s Sample) float64 { return s.Min }, palette.Thermal.At(0.25)},
		{"Mean", func(s Sample) float64 { return s.Mean }, palette.Thermal.At(0.6)},
		{"Max", func(s Sample) float64 { return s.Max }, palette.Thermal.At(0.9)},
	}
	for _, sr := range series {
		pts := make(plotter.XYs, len(samples))
		for i, s := range samples {
			pts[i].X = s.Time.Sub(t0).Seconds()
			pts[i].Y = sr.value(s)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot %s: %w", sr.name, err)
		}
		line.Color = sr.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(sr.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if err := fs.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
