package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"

	"github.com/banshee-data/thermcam/internal/config"
	"github.com/banshee-data/thermcam/internal/device"
	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/monitoring"
	"github.com/banshee-data/thermcam/internal/timeutil"
	"github.com/banshee-data/thermcam/internal/unicorn"
)

func init() {
	monitoring.SetLogger(nil)
}

type stubRunner struct {
	fs    fsutil.FileSystem
	calls [][]string
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return r.fs.WriteFile(args[len(args)-1], buf.Bytes(), 0644)
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-loop"})
	require.NoError(t, err)
	assert.True(t, o.loop)

	o, err = parseFlags(nil)
	require.NoError(t, err)
	assert.False(t, o.loop)

	_, err = parseFlags([]string{"--loop", "now"})
	assert.Error(t, err)
}

func TestRun_Once(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	env, err := device.Open(nil, fs, true)
	require.NoError(t, err)
	defer env.Close()

	r := &stubRunner{fs: fs}
	require.NoError(t, run(context.Background(), env, r, false))

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"fswebcam", "-r", "16x16", "--no-banner", "image.jpg"}, r.calls[0])
	assert.True(t, fs.Exists(filepath.Join(env.PreviewDir().Path(), "webcam.png")))
}

// recordConn stands in for the SPI link to the matrix.
type recordConn struct {
	writes [][]byte
}

func (r *recordConn) String() string      { return "record" }
func (r *recordConn) Duplex() conn.Duplex { return conn.Half }
func (r *recordConn) Tx(w, _ []byte) error {
	r.writes = append(r.writes, append([]byte(nil), w...))
	return nil
}

func (r *recordConn) lit() bool {
	if len(r.writes) == 0 {
		return false
	}
	for _, b := range r.writes[len(r.writes)-1][1:] {
		if b != 0 {
			return true
		}
	}
	return false
}

func matrixEnv(fs fsutil.FileSystem, rec *recordConn) *device.Env {
	return &device.Env{
		Config: config.Empty(),
		FS:     fs,
		Clock:  timeutil.RealClock{},
		OpenUnicorn: func(_ string, o *unicorn.Opts) (*unicorn.Dev, error) {
			return unicorn.New(rec, o)
		},
	}
}

func TestRun_OnceLeavesFrameLit(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	rec := &recordConn{}
	env := matrixEnv(fs, rec)

	require.NoError(t, run(context.Background(), env, &stubRunner{fs: fs}, false))
	require.NoError(t, env.Close())

	assert.True(t, rec.lit(), "last frame sent should still show the snapshot")
}

func TestRun_LoopBlanksOnInterrupt(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	rec := &recordConn{}
	env := matrixEnv(fs, rec)

	ctx, cancel := context.WithCancel(context.Background())
	r := &cancelAfter{stubRunner: stubRunner{fs: fs}, n: 2, cancel: cancel}
	err := run(ctx, env, r, true)
	assert.ErrorIs(t, err, context.Canceled)
	require.True(t, rec.lit())

	require.NoError(t, env.Close())
	assert.False(t, rec.lit(), "matrix should be blank after an interrupted loop")
}

// cancelAfter cancels the context once n frames have been captured.
type cancelAfter struct {
	stubRunner
	n      int
	cancel context.CancelFunc
}

func (r *cancelAfter) Run(ctx context.Context, name string, args ...string) error {
	if err := r.stubRunner.Run(ctx, name, args...); err != nil {
		return err
	}
	if len(r.calls) >= r.n {
		r.cancel()
	}
	return nil
}
