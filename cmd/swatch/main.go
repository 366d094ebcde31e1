// Command swatch fills the Unicorn HAT HD with a bilinear blend of four corner
// colours and holds it until interrupted.
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
	"github.com/banshee-data/thermcam/internal/version"
)

type options struct {
	configPath string
	dev        bool
	version    bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("swatch", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.BoolVar(&o.dev, "dev", false, "Write the swatch as a PNG preview and exit")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func show(env *device.Env) error {
	m, err := env.Matrix("swatch")
	if err != nil {
		return err
	}
	palette.Swatch(m, palette.DefaultCorners)
	return m.Show()
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
		fmt.Println(version.String("swatch"))
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

	if err := show(env); err != nil {
		env.Close()
		log.Fatalf("failed to show swatch: %v", err)
	}
	if opts.dev {
		log.Printf("wrote swatch to %s", env.PreviewDir().Path())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Print("showing swatch, interrupt to clear")
	<-ctx.Done()
}
