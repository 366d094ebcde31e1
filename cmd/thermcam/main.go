// Command thermcam shows the AMG8833 on the Unicorn HAT HD, charts the mean
// temperature on the PiOLED and lights a bar of LEDs with the mean's place in
// its recent range.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/thermcam/internal/config"
	"github.com/banshee-data/thermcam/internal/device"
	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/gpio"
	"github.com/banshee-data/thermcam/internal/palette"
	"github.com/banshee-data/thermcam/internal/security"
	"github.com/banshee-data/thermcam/internal/thermcam"
	"github.com/banshee-data/thermcam/internal/version"
)

type options struct {
	configPath string
	dev        bool
	fixtures   string
	plotPath   string
	version    bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("thermcam", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.BoolVar(&o.dev, "dev", false, "Run without hardware, writing PNG previews")
	fs.StringVar(&o.fixtures, "fixtures", "", "JSON frames to replay in dev mode (default synthetic)")
	fs.StringVar(&o.plotPath, "plot", "", "Write a PNG chart of the session here on exit")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.plotPath != "" {
		if err := security.ValidateOutputPath(o.plotPath); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(version.String("thermcam"))
		return
	}

	fsys := fsutil.OSFileSystem{}
	cfg, err := config.LoadOrDefault(fsys, opts.configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	env, err := device.Open(cfg, fsys, opts.dev)
	if err != nil {
		log.Fatalf("failed to open devices: %v", err)
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cam, err := build(env, opts)
	if err != nil {
		env.Close()
		log.Fatalf("failed to start: %v", err)
	}
	err = cam.Run(ctx)
	if cerr := cam.Close(); cerr != nil {
		log.Printf("failed to clear outputs: %v", cerr)
	}
	if err != nil && err != context.Canceled {
		log.Printf("thermcam stopped: %v", err)
	}

	if opts.plotPath != "" {
		if err := thermcam.WritePlot(fsys, opts.plotPath, cam.Session()); err != nil {
			log.Printf("failed to write plot: %v", err)
		} else {
			log.Printf("wrote session plot to %s", opts.plotPath)
		}
	}
}

// build wires the sensor, matrix, OLED and LED bar into a camera.
func build(env *device.Env, opts *options) (*thermcam.Camera, error) {
	cfg := env.Config
	sensor, err := env.Sensor(opts.fixtures)
	if err != nil {
		return nil, err
	}
	matrix, err := env.Matrix("matrix")
	if err != nil {
		return nil, err
	}
	display, err := env.Display("oled")
	if err != nil {
		return nil, err
	}
	scale, err := gpio.NewLedScale(env.Bank(), cfg.GetLEDPins())
	if err != nil {
		return nil, err
	}
	grad, err := palette.ByName(cfg.GetPalette())
	if err != nil {
		return nil, err
	}
	return thermcam.New(thermcam.Options{
		Sensor:            sensor,
		Matrix:            matrix,
		Display:           display,
		Scale:             scale,
		Gradient:          grad,
		Units:             cfg.GetUnits(),
		HistoryLength:     cfg.GetHistoryLength(),
		Interval:          cfg.GetInterval(),
		MaxSessionSamples: cfg.GetMaxSessionSamples(),
		Clock:             env.Clock,
	})
}
