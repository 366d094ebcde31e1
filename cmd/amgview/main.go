// Command amgview paints the AMG8833 on the Unicorn HAT HD and nothing else.
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
	"github.com/banshee-data/thermcam/internal/palette"
	"github.com/banshee-data/thermcam/internal/thermcam"
	"github.com/banshee-data/thermcam/internal/version"
)

type options struct {
	configPath string
	dev        bool
	fixtures   string
	palette    string
	version    bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("amgview", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.BoolVar(&o.dev, "dev", false, "Run without hardware, writing PNG previews")
	fs.StringVar(&o.fixtures, "fixtures", "", "JSON frames to replay in dev mode (default synthetic)")
	fs.StringVar(&o.palette, "palette", "classic", fmt.Sprintf("Colour gradient, one of %v", palette.Names()))
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if _, err := palette.ByName(o.palette); err != nil {
		return nil, err
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
		fmt.Println(version.String("amgview"))
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
	// The matrix is switched off however the loop ends.
	defer func() {
		if err := cam.Close(); err != nil {
			log.Printf("failed to switch matrix off: %v", err)
		}
	}()
	if err := cam.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("amgview stopped: %v", err)
	}
}

func build(env *device.Env, opts *options) (*thermcam.Camera, error) {
	sensor, err := env.Sensor(opts.fixtures)
	if err != nil {
		return nil, err
	}
	matrix, err := env.Matrix("matrix")
	if err != nil {
		return nil, err
	}
	grad, err := palette.ByName(opts.palette)
	if err != nil {
		return nil, err
	}
	return thermcam.New(thermcam.Options{
		Sensor:   sensor,
		Matrix:   matrix,
		Gradient: grad,
		Interval: env.Config.GetInterval(),
		Clock:    env.Clock,
	})
}
