package gpio

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/banshee-data/thermcam/internal/monitoring"
)

// FakeBoard stands in for the header when no hardware is attached. It hands
// out recording pins for GPIO0 to GPIO27 and logs every level change.
type FakeBoard struct {
	mu   sync.Mutex
	pins map[string]*FakePin
}

// NewFakeBoard returns an empty board.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{pins: make(map[string]*FakePin)}
}

// Resolve implements Resolver.
func (b *FakeBoard) Resolve(name string) Output {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int
	if _, err := fmt.Sscanf(name, "GPIO%d", &n); err != nil || n < 0 || n > 27 {
		return nil
	}
	p, ok := b.pins[name]
	if !ok {
		p = &FakePin{name: name}
		b.pins[name] = p
	}
	return p
}

// Pin returns the pin handed out for name, or nil if none was.
func (b *FakeBoard) Pin(name string) *FakePin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[name]
}

// FakePin records the levels written to it.
type FakePin struct {
	mu     sync.Mutex
	name   string
	levels []gpio.Level
	err    error
}

func (p *FakePin) String() string { return p.name }

// Out records l.
func (p *FakePin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, l)
	monitoring.Named("gpio")("%s -> %s", p.name, l)
	return nil
}

// FailWith makes every later Out return err.
func (p *FakePin) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Level returns the last level written, Low if none.
func (p *FakePin) Level() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.levels) == 0 {
		return gpio.Low
	}
	return p.levels[len(p.levels)-1]
}

// Levels returns every level written, in order.
func (p *FakePin) Levels() []gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gpio.Level(nil), p.levels...)
}
