// Package preview stands in for the matrix and the OLED when the demos run
// without hardware. Every Show writes a PNG into a per-run directory.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/monitoring"
)

// Dir is a run directory for preview images.
type Dir struct {
	fs   fsutil.FileSystem
	path string
}

// NewRunDir creates root/<random id>.
func NewRunDir(fs fsutil.FileSystem, root string) (*Dir, error) {
	path := filepath.Join(root, uuid.NewString())
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("preview: create run dir: %w", err)
	}
	monitoring.Named("preview")("writing previews to %s", path)
	return &Dir{fs: fs, path: path}, nil
}

// Path returns the run directory.
func (d *Dir) Path() string { return d.path }

// WritePNG writes img enlarged scale times with nearest-neighbour sampling,
// so individual LEDs and OLED pixels stay visible.
func (d *Dir) WritePNG(name string, img image.Image, scale int) error {
	if scale < 1 {
		scale = 1
	}
	b := img.Bounds()
	big := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(big, big.Bounds(), img, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, big); err != nil {
		return fmt.Errorf("preview: encode %s: %w", name, err)
	}
	if err := d.fs.WriteFile(filepath.Join(d.path, name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("preview: write %s: %w", name, err)
	}
	return nil
}

// Matrix is an in-memory LED matrix.
type Matrix struct {
	*image.RGBA
	dir    *Dir
	name   string
	frames int
}

// NewMatrix returns a blank w x h matrix that writes name on Show.
func NewMatrix(dir *Dir, name string, w, h int) *Matrix {
	return &Matrix{RGBA: image.NewRGBA(image.Rect(0, 0, w, h)), dir: dir, name: name}
}

// Show writes the current frame.
func (m *Matrix) Show() error {
	m.frames++
	return m.dir.WritePNG(m.name, m.RGBA, 16)
}

// Off blanks the matrix and writes the blank frame.
func (m *Matrix) Off() error {
	draw.Draw(m.RGBA, m.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return m.Show()
}

// Frames returns how many times Show was called.
func (m *Matrix) Frames() int { return m.frames }

// Panel is an in-memory OLED panel.
type Panel struct {
	dir   *Dir
	name  string
	draws int
}

// NewPanel returns a panel that writes name on every Draw.
func NewPanel(dir *Dir, name string) *Panel {
	return &Panel{dir: dir, name: name}
}

// Draw writes src.
func (p *Panel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	p.draws++
	return p.dir.WritePNG(p.name, src, 4)
}

// Halt is a no-op.
func (p *Panel) Halt() error { return nil }

// Draws returns how many frames were drawn.
func (p *Panel) Draws() int { return p.draws }
