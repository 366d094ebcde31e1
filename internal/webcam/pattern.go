package webcam

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/palette"
)

// PatternRunner stands in for fswebcam when there is no camera. It writes a
// four-corner colour swatch of the requested resolution to the output path.
type PatternRunner struct {
	FS fsutil.FileSystem
}

// Run reads the "-r WxH" resolution and the trailing output path from args.
func (r PatternRunner) Run(_ context.Context, _ string, args ...string) error {
	if len(args) == 0 {
		return fmt.Errorf("pattern: no output path")
	}
	w, h := 16, 16
	for i := 0; i+1 < len(args); i++ {
		if args[i] != "-r" {
			continue
		}
		var err error
		if w, h, err = parseResolution(args[i+1]); err != nil {
			return err
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	palette.Swatch(img, palette.DefaultCorners)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	return r.FS.WriteFile(args[len(args)-1], buf.Bytes(), 0644)
}

func parseResolution(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(s, "x")
	if ok {
		w, err = strconv.Atoi(ws)
		if err == nil {
			h, err = strconv.Atoi(hs)
		}
	}
	if !ok || err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("pattern: bad resolution %q", s)
	}
	return w, h, nil
}
