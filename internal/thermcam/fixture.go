package thermcam

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/banshee-data/thermcam/internal/fsutil"
)

// ErrNoFrames is returned when a fixture file holds no frames.
var ErrNoFrames = errors.New("thermcam: no fixture frames")

// LoadFixtures reads a JSON array of frames, each a flat row-major slice of
// w*h temperatures.
func LoadFixtures(fs fsutil.FileSystem, path string, w, h int) ([][]float64, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var frames [][]float64
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	for i, f := range frames {
		if len(f) != w*h {
			return nil, fmt.Errorf("fixture frame %d: got %d pixels, want %d", i, len(f), w*h)
		}
	}
	return frames, nil
}

// FixtureSensor replays frames in order, cycling forever.
type FixtureSensor struct {
	mu     sync.Mutex
	frames [][]float64
	next   int
}

// NewFixtureSensor returns a sensor over frames.
func NewFixtureSensor(frames [][]float64) (*FixtureSensor, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return &FixtureSensor{frames: frames}, nil
}

// Pixels returns a copy of the next frame.
func (s *FixtureSensor) Pixels() ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.frames[s.next]
	s.next = (s.next + 1) % len(s.frames)
	return append([]float64(nil), f...), nil
}

// SyntheticFrames builds n frames of a warm blob circling over a room
// temperature background. It stands in for a fixture file in dev mode.
func SyntheticFrames(w, h, n int) [][]float64 {
	const (
		ambient = 21.0
		peak    = 12.0
		sigma   = 1.5
	)
	frames := make([][]float64, n)
	cx, cy := float64(w-1)/2, float64(h-1)/2
	r := math.Min(cx, cy) * 0.6
	for i := range frames {
		a := 2 * math.Pi * float64(i) / float64(n)
		bx, by := cx+r*math.Cos(a), cy+r*math.Sin(a)
		// Slow ambient drift so the history graph has something to show.
		base := ambient + math.Sin(a)
		px := make([]float64, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dx, dy := float64(x)-bx, float64(y)-by
				px[y*w+x] = base + peak*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			}
		}
		frames[i] = px
	}
	return frames
}
