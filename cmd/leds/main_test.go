package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgpio "periph.io/x/conn/v3/gpio"

	"github.com/banshee-data/thermcam/internal/device"
	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/gpio"
	"github.com/banshee-data/thermcam/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"b", "on"})
	require.NoError(t, err)
	assert.Equal(t, "b", o.led)
	assert.True(t, o.on)

	o, err = parseFlags([]string{"-dev", "all", "off"})
	require.NoError(t, err)
	assert.Equal(t, "all", o.led)
	assert.False(t, o.on)

	o, err = parseFlags([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, o.version)

	for _, args := range [][]string{nil, {"a"}, {"a", "dim"}, {"a", "on", "x"}} {
		_, err := parseFlags(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestRun(t *testing.T) {
	env, err := device.Open(nil, fsutil.NewMemoryFileSystem(), true)
	require.NoError(t, err)
	defer env.Close()
	board := env.Board()

	require.NoError(t, run(env, "b", true))
	assert.Equal(t, pgpio.High, board.Pin("GPIO13").Level())
	assert.Equal(t, pgpio.Low, board.Pin("GPIO12").Level())

	require.NoError(t, run(env, "all", true))
	for _, name := range []string{"GPIO12", "GPIO13", "GPIO16", "GPIO19"} {
		assert.Equal(t, pgpio.High, board.Pin(name).Level(), name)
	}

	require.NoError(t, run(env, "all", false))
	for _, name := range []string{"GPIO12", "GPIO13", "GPIO16", "GPIO19"} {
		assert.Equal(t, pgpio.Low, board.Pin(name).Level(), name)
	}

	assert.ErrorIs(t, run(env, "e", true), gpio.ErrUnknownLED)
}
