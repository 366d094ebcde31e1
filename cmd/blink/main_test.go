package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgpio "periph.io/x/conn/v3/gpio"

	"github.com/banshee-data/thermcam/internal/device"
	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/gpio"
	"github.com/banshee-data/thermcam/internal/monitoring"
	"github.com/banshee-data/thermcam/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		pin     int
		wantErr bool
	}{
		{"default pin", nil, 21, false},
		{"explicit pin", []string{"17"}, 17, false},
		{"dev with pin", []string{"-dev", "4"}, 4, false},
		{"not a number", []string{"led"}, 0, true},
		{"too many", []string{"4", "5"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pin, o.pin)
		})
	}
}

func TestRun(t *testing.T) {
	env, err := device.Open(nil, fsutil.NewMemoryFileSystem(), true)
	require.NoError(t, err)
	defer env.Close()
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	env.Clock = clock

	require.NoError(t, run(env, 21))
	assert.Equal(t, []pgpio.Level{pgpio.High, pgpio.Low}, env.Board().Pin("GPIO21").Levels())
	assert.Equal(t, []time.Duration{time.Second}, clock.Sleeps())

	assert.ErrorIs(t, run(env, 40), gpio.ErrUnknownPin)
}
