// Package webcam grabs low resolution snapshots with fswebcam and paints them
// onto an LED matrix.
package webcam

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"math"
	"os/exec"

	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/monitoring"
)

// Runner runs an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and includes its output in any error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(out))
	}
	return nil
}

// Matrix is the display a snapshot is painted onto.
type Matrix interface {
	draw.Image
	Show() error
}

// Capturer takes snapshots at the matrix's resolution.
type Capturer struct {
	Runner  Runner
	FS      fsutil.FileSystem
	Command string // default "fswebcam"
	Path    string // default "image.jpg"
	Width   int    // default 16
	Height  int    // default 16
}

func (c *Capturer) defaults() (cmd, path string, w, h int) {
	cmd, path, w, h = c.Command, c.Path, c.Width, c.Height
	if cmd == "" {
		cmd = "fswebcam"
	}
	if path == "" {
		path = "image.jpg"
	}
	if w <= 0 {
		w = 16
	}
	if h <= 0 {
		h = 16
	}
	return
}

// Capture runs the capture command and decodes the file it writes.
func (c *Capturer) Capture(ctx context.Context) (image.Image, error) {
	cmd, path, w, h := c.defaults()
	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	fs := c.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}

	res := fmt.Sprintf("%dx%d", w, h)
	if err := runner.Run(ctx, cmd, "-r", res, "--no-banner", path); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if !fs.Exists(path) {
		return nil, fmt.Errorf("capture: %s wrote no frame to %s", cmd, path)
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	monitoring.Logf("webcam: captured %s %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// Sample copies src onto dst by nearest lookup. Destination pixel (x,y) of a
// w x h target reads source pixel (round(x/w*sw), round(y/h*sh)), clamped to
// the source bounds.
func Sample(src image.Image, dst draw.Image) {
	sb, db := src.Bounds(), dst.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	dw, dh := db.Dx(), db.Dy()
	if sw == 0 || sh == 0 {
		return
	}
	for y := 0; y < dh; y++ {
		iy := nearest(y, dh, sh)
		for x := 0; x < dw; x++ {
			ix := nearest(x, dw, sw)
			dst.Set(db.Min.X+x, db.Min.Y+y, src.At(sb.Min.X+ix, sb.Min.Y+iy))
		}
	}
}

func nearest(i, n, size int) int {
	j := int(math.RoundToEven(float64(i) / float64(n) * float64(size)))
	if j >= size {
		j = size - 1
	}
	return j
}

// Show captures one frame and paints it on m.
func (c *Capturer) Show(ctx context.Context, m Matrix) error {
	img, err := c.Capture(ctx)
	if err != nil {
		return err
	}
	Sample(img, m)
	return m.Show()
}

// Run shows one frame, or with loop keeps showing frames until ctx is
// cancelled.
func (c *Capturer) Run(ctx context.Context, m Matrix, loop bool) error {
	for {
		if err := c.Show(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if !loop {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
