package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/monitoring"
)

func newDir(t *testing.T) (*fsutil.MemoryFileSystem, *Dir) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	fs := fsutil.NewMemoryFileSystem()
	dir, err := NewRunDir(fs, "previews")
	require.NoError(t, err)
	return fs, dir
}

func decode(t *testing.T, fs *fsutil.MemoryFileSystem, path string) image.Image {
	t.Helper()
	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestNewRunDir(t *testing.T) {
	fs, dir := newDir(t)
	assert.True(t, strings.HasPrefix(dir.Path(), "previews"+string(filepath.Separator)))
	assert.True(t, fs.Exists(dir.Path()))

	_, other := newDir(t)
	assert.NotEqual(t, dir.Path(), other.Path())
}

func TestMatrix_Show(t *testing.T) {
	fs, dir := newDir(t)
	m := NewMatrix(dir, "matrix.png", 16, 16)

	m.Set(0, 0, color.RGBA{255, 0, 0, 255})
	require.NoError(t, m.Show())
	assert.Equal(t, 1, m.Frames())

	img := decode(t, fs, filepath.Join(dir.Path(), "matrix.png"))
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())

	r, g, b, _ := img.At(15, 15).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})
	r, _, _, _ = img.At(16, 16).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestMatrix_Off(t *testing.T) {
	fs, dir := newDir(t)
	m := NewMatrix(dir, "matrix.png", 16, 16)

	m.Set(3, 3, color.White)
	require.NoError(t, m.Off())

	img := decode(t, fs, filepath.Join(dir.Path(), "matrix.png"))
	r, _, _, _ := img.At(3*16, 3*16).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestPanel_Draw(t *testing.T) {
	fs, dir := newDir(t)
	p := NewPanel(dir, "oled.png")

	src := image.NewGray(image.Rect(0, 0, 128, 32))
	require.NoError(t, p.Draw(src.Bounds(), src, image.Point{}))
	require.NoError(t, p.Halt())
	assert.Equal(t, 1, p.Draws())

	img := decode(t, fs, filepath.Join(dir.Path(), "oled.png"))
	assert.Equal(t, image.Rect(0, 0, 512, 128), img.Bounds())
}
