// Package device opens the HATs a command needs, either on the real header
// through periph or, in dev mode, as fixtures and PNG previews.
package device

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/banshee-data/thermcam/internal/amg88xx"
	"github.com/banshee-data/thermcam/internal/config"
	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/gpio"
	"github.com/banshee-data/thermcam/internal/monitoring"
	"github.com/banshee-data/thermcam/internal/oled"
	"github.com/banshee-data/thermcam/internal/preview"
	"github.com/banshee-data/thermcam/internal/security"
	"github.com/banshee-data/thermcam/internal/thermcam"
	"github.com/banshee-data/thermcam/internal/timeutil"
	"github.com/banshee-data/thermcam/internal/unicorn"
)

var logf = monitoring.Named("device")

// PreviewRoot is where dev mode writes its PNG previews.
const PreviewRoot = "previews"

// Env hands out devices and closes them in reverse order.
type Env struct {
	Config *config.Config
	FS     fsutil.FileSystem
	Clock  timeutil.Clock
	Dev    bool

	// KeepMatrixLit leaves the last matrix frame showing after Close.
	KeepMatrixLit bool
	// OpenUnicorn opens the matrix on hardware. Nil means unicorn.Open.
	OpenUnicorn func(port string, opts *unicorn.Opts) (*unicorn.Dev, error)

	bus     i2c.BusCloser
	preview *preview.Dir
	board   *gpio.FakeBoard
	bank    *gpio.Bank
	closers []func() error
}

// Open prepares an environment. Outside dev mode it initialises the periph
// host drivers.
func Open(cfg *config.Config, fs fsutil.FileSystem, dev bool) (*Env, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	e := &Env{Config: cfg, FS: fs, Clock: timeutil.RealClock{}, Dev: dev}
	if dev {
		d, err := preview.NewRunDir(fs, PreviewRoot)
		if err != nil {
			return nil, err
		}
		e.preview = d
		e.board = gpio.NewFakeBoard()
		logf("dev mode, previews in %s", d.Path())
		return e, nil
	}
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	logf("loaded %d host drivers", len(state.Loaded))
	return e, nil
}

// PreviewDir returns the dev mode preview directory, or nil on hardware.
func (e *Env) PreviewDir() *preview.Dir { return e.preview }

// Board returns the fake header used in dev mode, or nil on hardware.
func (e *Env) Board() *gpio.FakeBoard { return e.board }

func (e *Env) i2cBus() (i2c.Bus, error) {
	if e.bus != nil {
		return e.bus, nil
	}
	b, err := i2creg.Open(e.Config.GetI2CBus())
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", e.Config.GetI2CBus(), err)
	}
	e.bus = b
	e.onClose(b.Close)
	return b, nil
}

// Sensor opens the AMG8833. In dev mode it replays fixtures from the given
// JSON file, or synthetic frames when the path is empty.
func (e *Env) Sensor(fixtures string) (thermcam.Sensor, error) {
	if e.Dev {
		var frames [][]float64
		if fixtures == "" {
			frames = thermcam.SyntheticFrames(amg88xx.Width, amg88xx.Height, 64)
		} else {
			var err error
			frames, err = thermcam.LoadFixtures(e.FS, fixtures, amg88xx.Width, amg88xx.Height)
			if err != nil {
				return nil, err
			}
		}
		return thermcam.NewFixtureSensor(frames)
	}

	bus, err := e.i2cBus()
	if err != nil {
		return nil, err
	}
	d, err := amg88xx.New(bus, &amg88xx.Opts{Addr: e.Config.GetSensorAddr(), Clock: e.Clock})
	if err != nil {
		return nil, err
	}
	e.onClose(d.Halt)
	logf("opened %s", d)
	return d, nil
}

// Matrix opens the Unicorn HAT HD with the configured brightness and
// rotation. In dev mode it is a PNG preview named name.
func (e *Env) Matrix(name string) (thermcam.Matrix, error) {
	if e.Dev {
		return preview.NewMatrix(e.preview, security.SanitizeName(name)+".png", unicorn.Width, unicorn.Height), nil
	}
	open := e.OpenUnicorn
	if open == nil {
		open = unicorn.Open
	}
	d, err := open(e.Config.GetSPIPort(), &unicorn.Opts{
		Brightness: e.Config.GetBrightness(),
		Rotation:   e.Config.GetRotation(),
	})
	if err != nil {
		return nil, err
	}
	if e.KeepMatrixLit {
		e.onClose(d.Release)
	} else {
		e.onClose(d.Close)
	}
	logf("opened %s", d)
	return d, nil
}

// Display opens the PiOLED. In dev mode its frames go to a PNG preview.
func (e *Env) Display(name string) (*oled.PiOLED, error) {
	if e.Dev {
		return oled.New(preview.NewPanel(e.preview, security.SanitizeName(name)+".png")), nil
	}
	bus, err := e.i2cBus()
	if err != nil {
		return nil, err
	}
	o, err := oled.OpenI2C(bus, e.Config.GetOLEDAddr())
	if err != nil {
		return nil, err
	}
	e.onClose(o.Halt)
	return o, nil
}

// Bank returns the GPIO pin bank, backed by the fake board in dev mode.
func (e *Env) Bank() *gpio.Bank {
	if e.bank == nil {
		if e.Dev {
			e.bank = gpio.NewBank(e.board.Resolve)
		} else {
			e.bank = gpio.NewBank(gpio.PeriphResolver)
		}
	}
	return e.bank
}

func (e *Env) onClose(f func() error) {
	e.closers = append(e.closers, f)
}

// Close releases every device opened through e, newest first.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	e.bus = nil
	return errors.Join(errs...)
}
