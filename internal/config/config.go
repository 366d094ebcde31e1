package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/palette"
	"github.com/banshee-data/thermcam/internal/units"
)

// Config holds the wiring and display constants for the demos. Every field
// is optional: a nil field falls back to the value the hardware was originally
// wired with, so running without a config file reproduces the stock build.
type Config struct {
	// Thermal camera outputs
	LEDPins       []int    `json:"led_pins,omitempty"`
	Palette       *string  `json:"palette,omitempty"`
	Brightness    *float64 `json:"brightness,omitempty"`
	Rotation      *int     `json:"rotation,omitempty"`
	HistoryLength *int     `json:"history_length,omitempty"`
	Units         *string  `json:"units,omitempty"` // OLED readout: c, f or k

	// Buses and addresses
	I2CBus     *string `json:"i2c_bus,omitempty"`
	SensorAddr *int    `json:"sensor_addr,omitempty"`
	OLEDAddr   *int    `json:"oled_addr,omitempty"`
	SPIPort    *string `json:"spi_port,omitempty"`

	// Loop pacing
	Interval          *string `json:"interval,omitempty"` // duration string like "100ms"
	MaxSessionSamples *int    `json:"max_session_samples,omitempty"`

	// GPIO demos
	LEDGroup      map[string]int `json:"led_group,omitempty"`
	BlinkDuration *string        `json:"blink_duration,omitempty"`

	// Webcam demo
	WebcamCommand *string `json:"webcam_command,omitempty"`
	WebcamImage   *string `json:"webcam_image,omitempty"`
}

// Default wiring used when a field is not set.
var (
	DefaultLEDPins  = []int{5, 6, 12, 13, 16, 19, 20, 21, 26}
	DefaultLEDGroup = map[string]int{"a": 12, "b": 13, "c": 16, "d": 19}
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file on fsys.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the JSON keep their defaults.
func Load(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is non-empty and returns an empty Config
// otherwise.
func LoadOrDefault(fsys fsutil.FileSystem, path string) (*Config, error) {
	if path == "" {
		return Empty(), nil
	}
	return Load(fsys, path)
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.LEDPins != nil {
		if err := validatePins("led_pins", c.LEDPins); err != nil {
			return err
		}
	}

	if c.Palette != nil {
		if _, err := palette.ByName(*c.Palette); err != nil {
			return fmt.Errorf("palette: %w", err)
		}
	}

	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("units must be one of %s, got %q", units.GetValidUnitsString(), *c.Units)
	}

	if c.Brightness != nil {
		if *c.Brightness <= 0 || *c.Brightness > 1 {
			return fmt.Errorf("brightness must be above 0 and at most 1, got %f", *c.Brightness)
		}
	}

	if c.Rotation != nil {
		switch *c.Rotation {
		case 0, 90, 180, 270:
		default:
			return fmt.Errorf("rotation must be 0, 90, 180 or 270, got %d", *c.Rotation)
		}
	}

	if c.HistoryLength != nil && *c.HistoryLength < 2 {
		return fmt.Errorf("history_length must be at least 2, got %d", *c.HistoryLength)
	}

	if c.MaxSessionSamples != nil && *c.MaxSessionSamples < 1 {
		return fmt.Errorf("max_session_samples must be positive, got %d", *c.MaxSessionSamples)
	}

	for _, a := range []struct {
		name string
		v    *int
	}{{"sensor_addr", c.SensorAddr}, {"oled_addr", c.OLEDAddr}} {
		if a.v != nil && (*a.v < 0x03 || *a.v > 0x77) {
			return fmt.Errorf("%s must be a 7-bit I2C address, got %#x", a.name, *a.v)
		}
	}

	for _, d := range []struct {
		name string
		v    *string
	}{{"interval", c.Interval}, {"blink_duration", c.BlinkDuration}} {
		if d.v == nil || *d.v == "" {
			continue
		}
		dur, err := time.ParseDuration(*d.v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", d.name, *d.v, err)
		}
		if dur < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", d.name, *d.v)
		}
	}

	if c.LEDGroup != nil {
		pins := make([]int, 0, len(c.LEDGroup))
		for name, pin := range c.LEDGroup {
			if name == "" || name == "all" {
				return fmt.Errorf("led_group name %q is reserved", name)
			}
			pins = append(pins, pin)
		}
		if err := validatePins("led_group", pins); err != nil {
			return err
		}
	}

	return nil
}

// validatePins checks BCM numbers are on the 40-pin header and not repeated.
func validatePins(field string, pins []int) error {
	if len(pins) == 0 {
		return fmt.Errorf("%s must not be empty", field)
	}
	seen := make(map[int]bool, len(pins))
	for _, p := range pins {
		if p < 0 || p > 27 {
			return fmt.Errorf("%s: BCM pin %d out of range 0-27", field, p)
		}
		if seen[p] {
			return fmt.Errorf("%s: BCM pin %d listed twice", field, p)
		}
		seen[p] = true
	}
	return nil
}

// GetLEDPins returns the LED scale pins, lowest level first.
func (c *Config) GetLEDPins() []int {
	if c.LEDPins == nil {
		return append([]int(nil), DefaultLEDPins...)
	}
	return append([]int(nil), c.LEDPins...)
}

// GetPalette returns the palette name or the default.
func (c *Config) GetPalette() string {
	if c.Palette == nil {
		return "thermal"
	}
	return *c.Palette
}

// GetUnits returns the OLED temperature units or Celsius.
func (c *Config) GetUnits() string {
	if c.Units == nil {
		return units.Celsius
	}
	return *c.Units
}

// GetBrightness returns the matrix brightness or the default.
func (c *Config) GetBrightness() float64 {
	if c.Brightness == nil {
		return 0.5
	}
	return *c.Brightness
}

// GetRotation returns the matrix rotation in degrees.
func (c *Config) GetRotation() int {
	if c.Rotation == nil {
		return 0
	}
	return *c.Rotation
}

// GetHistoryLength returns the rolling mean window length. The default is
// half the PiOLED width, leaving the left half for text.
func (c *Config) GetHistoryLength() int {
	if c.HistoryLength == nil {
		return 64
	}
	return *c.HistoryLength
}

// GetI2CBus returns the I2C bus name. Empty selects the first bus.
func (c *Config) GetI2CBus() string {
	if c.I2CBus == nil {
		return ""
	}
	return *c.I2CBus
}

// GetSensorAddr returns the AMG8833 address.
func (c *Config) GetSensorAddr() uint16 {
	if c.SensorAddr == nil {
		return 0x69
	}
	return uint16(*c.SensorAddr)
}

// GetOLEDAddr returns the SSD1306 address.
func (c *Config) GetOLEDAddr() uint16 {
	if c.OLEDAddr == nil {
		return 0x3C
	}
	return uint16(*c.OLEDAddr)
}

// GetSPIPort returns the Unicorn HAT HD SPI port name.
func (c *Config) GetSPIPort() string {
	if c.SPIPort == nil || *c.SPIPort == "" {
		return "SPI0.0"
	}
	return *c.SPIPort
}

// GetInterval returns the pause between loop iterations. Zero polls as fast
// as the devices allow.
func (c *Config) GetInterval() time.Duration {
	return parseDuration(c.Interval, 0)
}

// GetMaxSessionSamples returns how many session means are kept for plotting.
func (c *Config) GetMaxSessionSamples() int {
	if c.MaxSessionSamples == nil {
		return 3600
	}
	return *c.MaxSessionSamples
}

// GetLEDGroup returns the named LED wiring used by the leds command.
func (c *Config) GetLEDGroup() map[string]int {
	src := c.LEDGroup
	if src == nil {
		src = DefaultLEDGroup
	}
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// GetBlinkDuration returns how long the blink command holds the pin high.
func (c *Config) GetBlinkDuration() time.Duration {
	return parseDuration(c.BlinkDuration, time.Second)
}

// GetWebcamCommand returns the capture executable.
func (c *Config) GetWebcamCommand() string {
	if c.WebcamCommand == nil || *c.WebcamCommand == "" {
		return "fswebcam"
	}
	return *c.WebcamCommand
}

// GetWebcamImage returns the path the capture command writes to.
func (c *Config) GetWebcamImage() string {
	if c.WebcamImage == nil || *c.WebcamImage == "" {
		return "image.jpg"
	}
	return *c.WebcamImage
}

func parseDuration(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}
