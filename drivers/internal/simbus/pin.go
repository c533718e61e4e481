package simbus

import (
	"sync"

	"clickcode-go/drivers/pins"
)

// Pin is a recorded GPIO line usable as both driver output and input.
type Pin struct {
	mu      sync.Mutex
	level   bool
	History []bool
}

// NewPin returns a line at the given initial level.
func NewPin(level bool) *Pin { return &Pin{level: level} }

func (p *Pin) Output() pins.Output {
	return func(l bool) {
		p.mu.Lock()
		p.level = l
		p.History = append(p.History, l)
		p.mu.Unlock()
	}
}

func (p *Pin) Input() pins.Input {
	return func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.level
	}
}

// Level returns the current level.
func (p *Pin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Drive sets the level from the device side.
func (p *Pin) Drive(l bool) {
	p.mu.Lock()
	p.level = l
	p.mu.Unlock()
}
