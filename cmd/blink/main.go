// Command blink switches one GPIO pin on, waits, and switches it off.
//
//	blink [pin]
//
// The pin defaults to 21.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/banshee-data/thermcam/internal/config"
	"github.com/banshee-data/thermcam/internal/device"
	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/gpio"
	"github.com/banshee-data/thermcam/internal/version"
)

const defaultPin = 21

type options struct {
	configPath string
	dev        bool
	version    bool
	pin        int
}

func parseFlags(args []string) (*options, error) {
	o := &options{pin: defaultPin}
	fs := flag.NewFlagSet("blink", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.BoolVar(&o.dev, "dev", false, "Run without hardware, logging pin changes")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		n, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("pin %q is not a number", fs.Arg(0))
		}
		o.pin = n
	default:
		return nil, fmt.Errorf("usage: blink [pin]")
	}
	return o, nil
}

func run(env *device.Env, pin int) error {
	p, err := env.Bank().Pin(pin)
	if err != nil {
		return err
	}
	return gpio.Blink(p, env.Config.GetBlinkDuration(), env.Clock)
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
		fmt.Println(version.String("blink"))
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

	if err := run(env, opts.pin); err != nil {
		log.Printf("blink GPIO%d: %v", opts.pin, err)
		env.Close()
		os.Exit(1)
	}
}
