package webcam

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

type call struct {
	name string
	args []string
}

// fakeRunner records calls and writes img to the path argument.
type fakeRunner struct {
	fs    fsutil.FileSystem
	img   image.Image
	calls []call
	err   error
	after func(n int)
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.calls = append(r.calls, call{name, args})
	if r.after != nil {
		defer r.after(len(r.calls))
	}
	if r.err != nil {
		return r.err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.img); err != nil {
		return err
	}
	return r.fs.WriteFile(args[len(args)-1], buf.Bytes(), 0644)
}

type fakeMatrix struct {
	*image.RGBA
	shows int
}

func (m *fakeMatrix) Show() error { m.shows++; return nil }

func newMatrix() *fakeMatrix {
	return &fakeMatrix{RGBA: image.NewRGBA(image.Rect(0, 0, 16, 16))}
}

// gridImage paints pixel (x,y) as R=x, G=y.
func gridImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

func TestCapture_RunsFswebcam(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRunner{fs: fs, img: gridImage(16, 16)}
	c := &Capturer{Runner: r, FS: fs}

	img, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())

	require.Len(t, r.calls, 1)
	assert.Equal(t, "fswebcam", r.calls[0].name)
	assert.Equal(t, []string{"-r", "16x16", "--no-banner", "image.jpg"}, r.calls[0].args)
}

func TestCapture_DecodesJPEG(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gridImage(16, 16), nil))
	require.NoError(t, fs.WriteFile("snap.jpg", buf.Bytes(), 0644))

	c := &Capturer{Runner: runnerFunc(func() error { return nil }), FS: fs, Path: "snap.jpg"}
	img, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

type runnerFunc func() error

func (f runnerFunc) Run(context.Context, string, ...string) error { return f() }

func TestCapture_Errors(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	boom := errors.New("no camera")

	c := &Capturer{Runner: &fakeRunner{fs: fs, err: boom}, FS: fs}
	_, err := c.Capture(context.Background())
	assert.ErrorIs(t, err, boom)

	// Command succeeded but wrote nothing.
	c = &Capturer{Runner: runnerFunc(func() error { return nil }), FS: fs, Path: "none.jpg"}
	_, err = c.Capture(context.Background())
	assert.ErrorContains(t, err, "fswebcam wrote no frame to none.jpg")

	require.NoError(t, fs.WriteFile("junk.jpg", []byte("not an image"), 0644))
	c.Path = "junk.jpg"
	_, err = c.Capture(context.Background())
	assert.ErrorContains(t, err, "decode junk.jpg")
}

func TestSample_SameSize(t *testing.T) {
	src := gridImage(16, 16)
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	Sample(src, dst)
	assert.Equal(t, src.Pix, dst.Pix)
}

func TestSample_Rounding(t *testing.T) {
	// A 24 wide source: x=1 reads round(1.5)=2, x=3 reads round(4.5)=4.
	src := gridImage(24, 8)
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	Sample(src, dst)

	assert.Equal(t, uint8(2), dst.RGBAAt(1, 0).R)
	assert.Equal(t, uint8(4), dst.RGBAAt(3, 0).R)
	// x=15 reads round(22.5), which rounds half to even.
	assert.Equal(t, uint8(22), dst.RGBAAt(15, 0).R)
	// y=15 of an 8 high source reads round(7.5)=8, clamped to 7.
	assert.Equal(t, uint8(7), dst.RGBAAt(0, 15).G)
	assert.Equal(t, uint8(4), dst.RGBAAt(0, 8).G)
}

func TestSample_EmptySource(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 2, 2))
	Sample(image.NewRGBA(image.Rectangle{}), dst)
	assert.Equal(t, make([]byte, 16), dst.Pix)
}

func TestRun_Once(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRunner{fs: fs, img: gridImage(16, 16)}
	c := &Capturer{Runner: r, FS: fs}
	m := newMatrix()

	require.NoError(t, c.Run(context.Background(), m, false))
	assert.Equal(t, 1, m.shows)
	assert.Equal(t, color.RGBA{R: 5, G: 9, A: 255}, m.RGBAAt(5, 9))
}

func TestRun_LoopUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRunner{fs: fs, img: gridImage(16, 16)}
	r.after = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	c := &Capturer{Runner: r, FS: fs}
	m := newMatrix()

	err := c.Run(ctx, m, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, r.calls, 3)
	assert.Equal(t, 3, m.shows)
}

func TestPatternRunner(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	c := &Capturer{Runner: PatternRunner{FS: fs}, FS: fs, Width: 8, Height: 4}

	img, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())

	// Red top left, blue bottom right, within a step of rounding.
	near := func(want color.RGBA, x, y int) {
		got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
		assert.InDelta(t, want.R, got.R, 1)
		assert.InDelta(t, want.G, got.G, 1)
		assert.InDelta(t, want.B, got.B, 1)
	}
	near(color.RGBA{255, 0, 0, 255}, 0, 0)
	near(color.RGBA{0, 0, 255, 255}, 7, 3)
}

func TestPatternRunner_BadArgs(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := PatternRunner{FS: fs}
	assert.Error(t, r.Run(context.Background(), "fswebcam"))
	assert.Error(t, r.Run(context.Background(), "fswebcam", "-r", "16by16", "out.jpg"))
	assert.Error(t, r.Run(context.Background(), "fswebcam", "-r", "0x16", "out.jpg"))
	assert.False(t, fs.Exists("out.jpg"))
}
