package oled

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

type fakePanel struct {
	draws  int
	last   image.Image
	halted bool
	err    error
}

func (p *fakePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if p.err != nil {
		return p.err
	}
	p.draws++
	p.last = src
	return nil
}

func (p *fakePanel) Halt() error {
	p.halted = true
	return nil
}

func litCount(c *Canvas, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c.Lit(x, y) {
				n++
			}
		}
	}
	return n
}

func TestCanvas_Line(t *testing.T) {
	c := NewCanvas(Width, Height)

	c.Line(image.Pt(0, 0), image.Pt(4, 0))
	for x := 0; x <= 4; x++ {
		assert.True(t, c.Lit(x, 0), "x=%d", x)
	}
	assert.False(t, c.Lit(5, 0))

	c.Clear()
	c.Line(image.Pt(10, 10), image.Pt(7, 7))
	for i := 7; i <= 10; i++ {
		assert.True(t, c.Lit(i, i), "diagonal %d", i)
	}
	assert.Equal(t, 4, litCount(c, c.Bounds()))

	c.Clear()
	c.Line(image.Pt(64, 5), image.Pt(65, 20))
	assert.True(t, c.Lit(64, 5))
	assert.True(t, c.Lit(65, 20))
	for y := 5; y <= 20; y++ {
		assert.True(t, c.Lit(64, y) || c.Lit(65, y), "y=%d has a pixel", y)
	}
}

func TestCanvas_LineClipped(t *testing.T) {
	c := NewCanvas(Width, Height)
	c.Line(image.Pt(126, 30), image.Pt(130, 34))
	assert.True(t, c.Lit(126, 30))
	assert.True(t, c.Lit(127, 31))
	assert.Equal(t, 2, litCount(c, c.Bounds()))
}

func TestCanvas_Text(t *testing.T) {
	c := NewCanvas(Width, Height)
	c.Text("Min: 21.5", image.Pt(0, 0))

	row := image.Rect(0, 0, Width, c.LineHeight())
	assert.Greater(t, litCount(c, row), 20)
	assert.Equal(t, 0, litCount(c, image.Rect(0, c.LineHeight(), Width, Height)))

	// Text placed on the bottom row stays inside the panel.
	c.Clear()
	c.Text("Mean: 23.0", image.Pt(0, 20))
	assert.Equal(t, 0, litCount(c, image.Rect(0, 0, Width, 20)))
	assert.Greater(t, litCount(c, image.Rect(0, 20, Width/2, Height)), 20)
}

func TestPiOLED_ShowAndClear(t *testing.T) {
	p := &fakePanel{}
	o := New(p)

	o.Line(image.Pt(0, 0), image.Pt(10, 0))
	require.NoError(t, o.Show())
	assert.Equal(t, 1, p.draws)
	assert.Equal(t, image.Rect(0, 0, Width, Height), p.last.Bounds())

	require.NoError(t, o.Clear(false))
	assert.Equal(t, 1, p.draws, "Clear(false) leaves the panel alone")
	assert.False(t, o.Canvas().Lit(0, 0))

	o.Text("x", image.Pt(0, 0))
	require.NoError(t, o.Clear(true))
	assert.Equal(t, 2, p.draws)
	assert.Equal(t, 0, litCount(o.Canvas(), o.Canvas().Bounds()))

	require.NoError(t, o.Halt())
	assert.True(t, p.halted)
}

func TestPiOLED_ShowError(t *testing.T) {
	o := New(&fakePanel{err: errors.New("nack")})
	err := o.Show()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oled: show")
}

func TestAddrBus(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x3D, W: []byte{0x00, 0xAE}}},
		DontPanic: true,
	}
	b := &addrBus{Bus: pb, addr: 0x3D}
	require.NoError(t, b.Tx(DefaultAddr, []byte{0x00, 0xAE}, nil))
	assert.NoError(t, pb.Close())
}
