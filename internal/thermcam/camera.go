// Package thermcam runs the thermal camera loop: read the IR array, paint it
// on the LED matrix, chart the running mean on the OLED and show the mean's
// position in its recent range on a bar of LEDs.
package thermcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/banshee-data/thermcam/internal/amg88xx"
	"github.com/banshee-data/thermcam/internal/history"
	"github.com/banshee-data/thermcam/internal/monitoring"
	"github.com/banshee-data/thermcam/internal/oled"
	"github.com/banshee-data/thermcam/internal/palette"
	"github.com/banshee-data/thermcam/internal/thermal"
	"github.com/banshee-data/thermcam/internal/timeutil"
	"github.com/banshee-data/thermcam/internal/units"
)

// Sensor produces one frame of temperatures per call.
type Sensor interface {
	Pixels() ([]float64, error)
}

// Matrix is an RGB LED matrix that shows its buffer on demand.
type Matrix interface {
	draw.Image
	Show() error
	Off() error
}

// Display is a small monochrome text and line display.
type Display interface {
	Clear(show bool) error
	Text(s string, pt image.Point)
	Line(p0, p1 image.Point)
	Show() error
}

// Scale is a bar graph driven by a level in [0,1].
type Scale interface {
	Set(level float64) error
	Clear() error
}

// Text rows on the display, top edge of each line.
var textRows = [3]int{0, 10, 20}

// Options configures a Camera. Only Sensor is required; each output is
// skipped when nil.
type Options struct {
	Sensor       Sensor
	SensorWidth  int // default amg88xx.Width
	SensorHeight int // default amg88xx.Height

	Matrix      Matrix
	Display     Display
	DisplaySize image.Point // default 128x32
	Scale       Scale

	Gradient          palette.Gradient // default palette.Thermal
	Units             string           // display units, default units.Celsius
	HistoryLength     int              // default half the display width
	Interval          time.Duration    // pause between steps in Run
	MaxSessionSamples int              // default 3600
	Clock             timeutil.Clock
}

// Sample summarises one frame.
type Sample struct {
	Time           time.Time
	Min, Max, Mean float64
	Level          float64
}

// Camera owns the loop state.
type Camera struct {
	sensor        Sensor
	width, height int

	matrix   Matrix
	display  Display
	dispSize image.Point
	scale    Scale

	gradient   palette.Gradient
	units      string
	window     *history.Window
	interval   time.Duration
	maxSession int
	clock      timeutil.Clock

	session []Sample
	steps   int
	logf    func(string, ...interface{})
}

// New validates opts and fills in defaults.
func New(opts Options) (*Camera, error) {
	if opts.Sensor == nil {
		return nil, errors.New("thermcam: a sensor is required")
	}
	c := &Camera{
		sensor:     opts.Sensor,
		width:      opts.SensorWidth,
		height:     opts.SensorHeight,
		matrix:     opts.Matrix,
		display:    opts.Display,
		dispSize:   opts.DisplaySize,
		scale:      opts.Scale,
		gradient:   opts.Gradient,
		units:      opts.Units,
		interval:   opts.Interval,
		maxSession: opts.MaxSessionSamples,
		clock:      opts.Clock,
		logf:       monitoring.Named("thermcam"),
	}
	if c.width == 0 {
		c.width = amg88xx.Width
	}
	if c.height == 0 {
		c.height = amg88xx.Height
	}
	if c.dispSize == (image.Point{}) {
		c.dispSize = image.Pt(oled.Width, oled.Height)
	}
	if c.gradient == nil {
		c.gradient = palette.Thermal
	}
	if c.units == "" {
		c.units = units.Celsius
	}
	if !units.IsValid(c.units) {
		return nil, fmt.Errorf("thermcam: units must be one of %s", units.GetValidUnitsString())
	}
	if c.maxSession <= 0 {
		c.maxSession = 3600
	}
	if c.clock == nil {
		c.clock = timeutil.RealClock{}
	}
	if c.interval < 0 {
		return nil, fmt.Errorf("thermcam: negative interval %s", c.interval)
	}

	n := opts.HistoryLength
	if n == 0 {
		n = c.dispSize.X / 2
	}
	c.window = history.NewWindow(n)
	return c, nil
}

// Step reads one frame and updates every output.
func (c *Camera) Step() (Sample, error) {
	px, err := c.sensor.Pixels()
	if err != nil {
		return Sample{}, fmt.Errorf("read sensor: %w", err)
	}
	frame, err := thermal.NewFrame(c.width, c.height, px)
	if err != nil {
		return Sample{}, err
	}
	min, max, mean := frame.Stats()

	if c.matrix != nil {
		if err := c.showMatrix(frame); err != nil {
			return Sample{}, err
		}
	}

	c.window.Push(mean)

	if c.display != nil {
		if err := c.showDisplay(min, max, mean); err != nil {
			return Sample{}, err
		}
	}

	level := c.window.Level(mean)
	if c.scale != nil {
		if err := c.scale.Set(level); err != nil {
			return Sample{}, fmt.Errorf("led scale: %w", err)
		}
	}

	s := Sample{Time: c.clock.Now(), Min: min, Max: max, Mean: mean, Level: level}
	c.record(s)
	c.steps++
	return s, nil
}

func (c *Camera) showMatrix(frame thermal.Frame) error {
	b := c.matrix.Bounds()
	resized, err := frame.Resize(b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	if err := thermal.Render(resized, c.gradient, c.matrix); err != nil {
		return err
	}
	if err := c.matrix.Show(); err != nil {
		return fmt.Errorf("matrix: %w", err)
	}
	return nil
}

func (c *Camera) showDisplay(min, max, mean float64) error {
	if err := c.display.Clear(false); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	t := func(v float64) float64 { return units.ConvertTemperature(v, c.units) }
	// Celsius readouts stay bare; other units carry their symbol.
	sym := ""
	if c.units != units.Celsius {
		sym = units.Symbol(c.units)
	}
	c.display.Text(fmt.Sprintf("Min: %.1f%s", t(min), sym), image.Pt(0, textRows[0]))
	c.display.Text(fmt.Sprintf("Max: %.1f%s", t(max), sym), image.Pt(0, textRows[1]))
	c.display.Text(fmt.Sprintf("Mean: %.1f%s", t(mean), sym), image.Pt(0, textRows[2]))
	for _, seg := range c.window.Segments(c.dispSize.X/2, c.dispSize.Y) {
		c.display.Line(seg.From, seg.To)
	}
	if err := c.display.Show(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

func (c *Camera) record(s Sample) {
	if len(c.session) == c.maxSession {
		copy(c.session, c.session[1:])
		c.session = c.session[:len(c.session)-1]
	}
	c.session = append(c.session, s)
}

// Run steps until ctx is cancelled or a step fails. With a positive
// interval, steps are paced by a ticker on the camera's clock.
func (c *Camera) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if c.interval > 0 {
		t := c.clock.NewTicker(c.interval)
		defer t.Stop()
		tick = t.C()
	}
	c.logf("running: %dx%d sensor, history %d, interval %s", c.width, c.height, c.window.Len(), c.interval)

	for {
		select {
		case <-ctx.Done():
			c.logf("stopped after %d steps", c.steps)
			return ctx.Err()
		default:
		}

		if _, err := c.Step(); err != nil {
			return fmt.Errorf("thermcam: step %d: %w", c.steps+1, err)
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				c.logf("stopped after %d steps", c.steps)
				return ctx.Err()
			case <-tick:
			}
		}
	}
}

// Close blanks the matrix, clears the LED bar and clears the display. It
// attempts every output and reports all failures.
func (c *Camera) Close() error {
	var errs []error
	if c.matrix != nil {
		errs = append(errs, c.matrix.Off())
	}
	if c.scale != nil {
		errs = append(errs, c.scale.Clear())
	}
	if c.display != nil {
		errs = append(errs, c.display.Clear(true))
	}
	return errors.Join(errs...)
}

// Steps returns how many steps have completed.
func (c *Camera) Steps() int { return c.steps }

// History returns the rolling window of means, oldest first.
func (c *Camera) History() []float64 { return c.window.Values() }

// Session returns the recorded samples, oldest first.
func (c *Camera) Session() []Sample {
	return append([]Sample(nil), c.session...)
}
