// Command leds switches one of the named LEDs, or all of them.
//
//	leds <a|b|c|d|all> <on|off>
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/thermcam/internal/config"
	"github.com/banshee-data/thermcam/internal/device"
	"github.com/banshee-data/thermcam/internal/fsutil"
	"github.com/banshee-data/thermcam/internal/gpio"
	"github.com/banshee-data/thermcam/internal/version"
)

type options struct {
	configPath string
	dev        bool
	version    bool
	led        string
	on         bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("leds", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON config file")
	fs.BoolVar(&o.dev, "dev", false, "Run without hardware, logging pin changes")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.version {
		return o, nil
	}
	if fs.NArg() != 2 {
		return nil, fmt.Errorf("usage: leds <name|%s> <on|off>", gpio.All)
	}
	o.led = fs.Arg(0)
	switch fs.Arg(1) {
	case "on":
		o.on = true
	case "off":
	default:
		return nil, fmt.Errorf("action %q must be on or off", fs.Arg(1))
	}
	return o, nil
}

func run(env *device.Env, led string, on bool) error {
	g, err := gpio.NewGroup(env.Bank(), env.Config.GetLEDGroup())
	if err != nil {
		return err
	}
	return g.Set(led, on)
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
		fmt.Println(version.String("leds"))
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

	if err := run(env, opts.led, opts.on); err != nil {
		log.Printf("leds: %v", err)
		env.Close()
		os.Exit(1)
	}
}
