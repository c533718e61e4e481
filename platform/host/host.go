// Package host binds the click drivers to Linux buses through periph.io.
//
//	b, err := host.Open()
//	bus, err := b.I2C("1")
//	d := ambient2.New(bus, ambient2.DefaultConfig())
package host

import (
	"io"
	"sync"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	phost "periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Board tracks the buses opened on the host so Close can release them.
type Board struct {
	mu     sync.Mutex
	closer []io.Closer
}

// Open loads the periph host drivers.
func Open() (*Board, error) {
	if _, err := phost.Init(); err != nil {
		return nil, errcode.Wrap(errcode.Error, "host.open", err)
	}
	return &Board{}, nil
}

func (b *Board) track(c io.Closer) {
	b.mu.Lock()
	b.closer = append(b.closer, c)
	b.mu.Unlock()
}

// I2C opens an I2C bus by name ("" picks the first one). periph's Tx
// already has the drivers.I2C shape.
func (b *Board) I2C(name string) (drivers.I2C, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "host.i2c", err)
	}
	b.track(bus)
	return bus, nil
}

// SPI opens an SPI port at hz in the given mode (0..3) with 8-bit words.
func (b *Board) SPI(name string, hz int64, mode int) (drivers.SPI, error) {
	if mode < 0 || mode > 3 || hz <= 0 {
		return nil, errcode.New(errcode.InvalidParams, "host.spi", "bad mode or speed")
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "host.spi", err)
	}
	c, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode(mode), 8)
	if err != nil {
		_ = port.Close()
		return nil, errcode.Wrap(errcode.Error, "host.spi", err)
	}
	b.track(port)
	return NewSPI(c), nil
}

// Output looks up a GPIO by name and drives it to initial.
func (b *Board) Output(name string, initial bool) (pins.Output, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errcode.New(errcode.InvalidParams, "host.output", "unknown pin "+name)
	}
	if err := p.Out(gpio.Level(initial)); err != nil {
		return nil, errcode.Wrap(errcode.Error, "host.output", err)
	}
	return func(level bool) { _ = p.Out(gpio.Level(level)) }, nil
}

// Input looks up a GPIO by name and configures it as an input.
func (b *Board) Input(name string, pull gpio.Pull) (pins.Input, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errcode.New(errcode.InvalidParams, "host.input", "unknown pin "+name)
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return nil, errcode.Wrap(errcode.Error, "host.input", err)
	}
	return func() bool { return bool(p.Read()) }, nil
}

// Close releases every bus opened through b.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for _, c := range b.closer {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	b.closer = nil
	return first
}
