// Command webcam grabs a 16x16 snapshot with fswebcam and shows it on the
// Unicorn HAT HD, once or in a loop.
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
	"github.com/banshee-data/thermcam/internal/version"
	"github.com/banshee-data/thermcam/internal/webcam"
)

type options struct {
	configPath string
	dev        bool
	loop       bool
	version    bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("webcam", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.BoolVar(&o.dev, "dev", false, "Use a test pattern instead of fswebcam and write PNG previews")
	fs.BoolVar(&o.loop, "loop", false, "Keep capturing until interrupted")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

// run leaves a one-shot frame lit on the matrix after exit. A loop blanks it
// when interrupted.
func run(ctx context.Context, env *device.Env, runner webcam.Runner, loop bool) error {
	env.KeepMatrixLit = !loop
	m, err := env.Matrix("webcam")
	if err != nil {
		return err
	}
	b := m.Bounds()
	c := &webcam.Capturer{
		Runner:  runner,
		FS:      env.FS,
		Command: env.Config.GetWebcamCommand(),
		Path:    env.Config.GetWebcamImage(),
		Width:   b.Dx(),
		Height:  b.Dy(),
	}
	return c.Run(ctx, m, loop)
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
		fmt.Println(version.String("webcam"))
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

	var runner webcam.Runner = webcam.ExecRunner{}
	if opts.dev {
		runner = webcam.PatternRunner{FS: fsys}
	}
	if err := run(ctx, env, runner, opts.loop); err != nil && err != context.Canceled {
		log.Printf("webcam stopped: %v", err)
	}
}
