// Package gpio drives LEDs on output pins, addressed by BCM number.
package gpio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/banshee-data/thermcam/internal/timeutil"
)

var (
	// ErrUnknownPin is returned when a BCM number does not resolve to a pin.
	ErrUnknownPin = errors.New("unknown GPIO pin")
	// ErrUnknownLED is returned by Group.Set for a name it does not hold.
	ErrUnknownLED = errors.New("unknown LED")
	// ErrLevelRange is returned by LedScale.Set for a level outside [0,1].
	ErrLevelRange = errors.New("level out of range")
)

// Output is a pin that can be driven. periph's gpio.PinIO satisfies it.
type Output interface {
	Out(l gpio.Level) error
	String() string
}

// Resolver looks a pin up by name and returns nil when there is none.
type Resolver func(name string) Output

// PeriphResolver resolves pins through the periph registry. host.Init must
// have been called.
func PeriphResolver(name string) Output {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil
	}
	return p
}

// Pin is an output pin.
type Pin struct {
	num int
	out Output
}

// Number returns the BCM number.
func (p *Pin) Number() int { return p.num }

// On drives the pin high.
func (p *Pin) On() error {
	if err := p.out.Out(gpio.High); err != nil {
		return fmt.Errorf("GPIO%d on: %w", p.num, err)
	}
	return nil
}

// Off drives the pin low.
func (p *Pin) Off() error {
	if err := p.out.Out(gpio.Low); err != nil {
		return fmt.Errorf("GPIO%d off: %w", p.num, err)
	}
	return nil
}

// Set drives the pin high when on is set and low otherwise.
func (p *Pin) Set(on bool) error {
	if on {
		return p.On()
	}
	return p.Off()
}

// Bank hands out pins and caches them, so each BCM number is resolved once.
type Bank struct {
	resolve Resolver
	pins    map[int]*Pin
}

// NewBank returns a bank backed by r, or by the periph registry when r is nil.
func NewBank(r Resolver) *Bank {
	if r == nil {
		r = PeriphResolver
	}
	return &Bank{resolve: r, pins: make(map[int]*Pin)}
}

// Pin returns the output pin with BCM number n.
func (b *Bank) Pin(n int) (*Pin, error) {
	if p, ok := b.pins[n]; ok {
		return p, nil
	}
	out := b.resolve(fmt.Sprintf("GPIO%d", n))
	if out == nil {
		return nil, fmt.Errorf("%w: GPIO%d", ErrUnknownPin, n)
	}
	p := &Pin{num: n, out: out}
	b.pins[n] = p
	return p, nil
}

// Blink turns p on, waits d and turns it off again.
func Blink(p *Pin, d time.Duration, clock timeutil.Clock) error {
	if err := p.On(); err != nil {
		return err
	}
	clock.Sleep(d)
	return p.Off()
}

// LedScale is a bar graph built from a row of LEDs.
type LedScale struct {
	pins []*Pin
	lit  int
}

// NewLedScale resolves pins from b, lowest level first.
func NewLedScale(b *Bank, pins []int) (*LedScale, error) {
	s := &LedScale{pins: make([]*Pin, 0, len(pins))}
	for _, n := range pins {
		p, err := b.Pin(n)
		if err != nil {
			return nil, err
		}
		s.pins = append(s.pins, p)
	}
	return s, nil
}

// Len returns the number of LEDs.
func (s *LedScale) Len() int { return len(s.pins) }

// Lit returns how many LEDs the last Set turned on.
func (s *LedScale) Lit() int { return s.lit }

// Clear turns every LED off.
func (s *LedScale) Clear() error {
	var errs []error
	for _, p := range s.pins {
		if err := p.Off(); err != nil {
			errs = append(errs, err)
		}
	}
	s.lit = 0
	return errors.Join(errs...)
}

// Set lights the first round(level*n) LEDs, rounding half to even, and turns
// the rest off.
func (s *LedScale) Set(level float64) error {
	if !(level >= 0 && level <= 1) {
		return fmt.Errorf("%w: %v", ErrLevelRange, level)
	}
	if err := s.Clear(); err != nil {
		return err
	}
	n := int(math.RoundToEven(level * float64(len(s.pins))))
	for _, p := range s.pins[:n] {
		if err := p.On(); err != nil {
			return err
		}
	}
	s.lit = n
	return nil
}

// All is the Group name that addresses every LED.
const All = "all"

// Group switches LEDs by name.
type Group struct {
	leds map[string]*Pin
}

// NewGroup resolves the named pins from b.
func NewGroup(b *Bank, leds map[string]int) (*Group, error) {
	g := &Group{leds: make(map[string]*Pin, len(leds))}
	for name, n := range leds {
		p, err := b.Pin(n)
		if err != nil {
			return nil, fmt.Errorf("LED %q: %w", name, err)
		}
		g.leds[name] = p
	}
	return g, nil
}

// Names returns the LED names in sorted order.
func (g *Group) Names() []string {
	names := make([]string, 0, len(g.leds))
	for n := range g.leds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set switches the named LED, or every LED for All.
func (g *Group) Set(name string, on bool) error {
	if name == All {
		var errs []error
		for _, n := range g.Names() {
			if err := g.leds[n].Set(on); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	p, ok := g.leds[name]
	if !ok {
		return fmt.Errorf("%w %q (want one of %v or %q)", ErrUnknownLED, name, g.Names(), All)
	}
	return p.Set(on)
}
