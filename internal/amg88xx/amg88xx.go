// Package amg88xx drives the Panasonic AMG8833 8x8 infrared array over I2C.
package amg88xx

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/banshee-data/thermcam/internal/timeutil"
)

// Sensor geometry.
const (
	Width  = 8
	Height = 8
	Pixels = Width * Height
)

// I2C addresses. The AD_SELECT pin chooses between them.
const (
	DefaultAddr   uint16 = 0x69
	AlternateAddr uint16 = 0x68
)

// Registers.
const (
	regPCTL       = 0x00 // power control
	regRST        = 0x01 // reset
	regFPSC       = 0x02 // frame rate
	regINTC       = 0x03 // interrupt control
	regThermistor = 0x0E // TTHL, TTHH
	regPixels     = 0x80 // T01L .. T64H
)

const (
	modeNormal   = 0x00
	modeSleep    = 0x10
	initialReset = 0x3F
	fps10        = 0x00
	intDisabled  = 0x00

	pixelScale      = 0.25
	thermistorScale = 0.0625

	settleTime = 100 * time.Millisecond
)

// Opts configures New.
type Opts struct {
	Addr  uint16
	Clock timeutil.Clock
}

// DefaultOpts uses the default address and the real clock.
var DefaultOpts = Opts{Addr: DefaultAddr, Clock: timeutil.RealClock{}}

// Dev is an AMG8833 on an I2C bus.
type Dev struct {
	c i2c.Dev
}

// New wakes the sensor, resets it, selects 10 frames per second with
// interrupts off and waits for the first frame to settle.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	d := &Dev{c: i2c.Dev{Bus: bus, Addr: addr}}
	for _, w := range [][2]byte{
		{regPCTL, modeNormal},
		{regRST, initialReset},
		{regFPSC, fps10},
		{regINTC, intDisabled},
	} {
		if err := d.writeReg(w[0], w[1]); err != nil {
			return nil, fmt.Errorf("amg88xx: init: %w", err)
		}
	}
	clock.Sleep(settleTime)
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("AMG8833{%s}", &d.c)
}

// Pixels reads one frame in °C, row-major from the top left as seen by the
// sensor.
func (d *Dev) Pixels() ([]float64, error) {
	var raw [Pixels * 2]byte
	if err := d.c.Tx([]byte{regPixels}, raw[:]); err != nil {
		return nil, fmt.Errorf("amg88xx: read pixels: %w", err)
	}
	out := make([]float64, Pixels)
	for i := range out {
		out[i] = float64(twosComplement12(raw[2*i], raw[2*i+1])) * pixelScale
	}
	return out, nil
}

// Thermistor reads the on-board thermistor in °C.
func (d *Dev) Thermistor() (float64, error) {
	var raw [2]byte
	if err := d.c.Tx([]byte{regThermistor}, raw[:]); err != nil {
		return 0, fmt.Errorf("amg88xx: read thermistor: %w", err)
	}
	return float64(signMagnitude12(raw[0], raw[1])) * thermistorScale, nil
}

// Halt puts the sensor into sleep mode.
func (d *Dev) Halt() error {
	if err := d.writeReg(regPCTL, modeSleep); err != nil {
		return fmt.Errorf("amg88xx: halt: %w", err)
	}
	return nil
}

func (d *Dev) writeReg(reg, val byte) error {
	return d.c.Tx([]byte{reg, val}, nil)
}

// twosComplement12 decodes the pixel registers: 12 bits, little endian,
// two's complement.
func twosComplement12(lo, hi byte) int {
	v := int(uint16(lo)|uint16(hi)<<8) & 0x0FFF
	if v&0x0800 != 0 {
		v -= 0x1000
	}
	return v
}

// signMagnitude12 decodes the thermistor register: 11 bits of magnitude with
// bit 11 as the sign.
func signMagnitude12(lo, hi byte) int {
	v := int(uint16(lo)|uint16(hi)<<8) & 0x0FFF
	if v&0x0800 != 0 {
		return -(v & 0x07FF)
	}
	return v
}
