package main

import (
	"clickcode-go/config"
	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

// session is one click opened on the host for the duration of a command.
type session struct {
	hw    Hardware
	click config.Click
	bus   config.Bus
	log   zerolog.Logger
}

// withClick opens the named click's host resources, runs fn and releases
// them again.
func (a *app) withClick(name string, fn func(s *session) error) error {
	k, b, err := a.cfg.Find(name)
	if err != nil {
		return err
	}
	hw, err := a.open()
	if err != nil {
		return err
	}
	defer hw.Close()
	s := &session{
		hw:    hw,
		click: k,
		bus:   b,
		log:   a.log.With().Str("click", k.Name).Str("driver", k.Driver).Logger(),
	}
	s.log.Debug().Str("bus", b.Device).Str("kind", string(b.Kind)).Msg("open")
	return fn(s)
}

func (s *session) i2c() (drivers.I2C, error) {
	if s.bus.Kind != config.I2C {
		return nil, errcode.New(errcode.InvalidParams, "clickctl.i2c", s.bus.Name+" is not an i2c bus")
	}
	return s.hw.I2C(s.bus.Device)
}

func (s *session) spi() (drivers.SPI, error) {
	if s.bus.Kind != config.SPI {
		return nil, errcode.New(errcode.InvalidParams, "clickctl.spi", s.bus.Name+" is not an spi bus")
	}
	return s.hw.SPI(s.bus.Device, s.bus.Hz, s.bus.Mode)
}

// address returns the configured address or def.
func (s *session) address(def uint16) uint16 {
	if s.click.Address != 0 {
		return s.click.Address
	}
	return def
}

// out opens an optional output line; a missing pin entry yields nil.
func (s *session) out(key string, initial bool) (pins.Output, error) {
	name, ok := s.click.Pins[key]
	if !ok {
		return nil, nil
	}
	return s.hw.Output(name, initial)
}

// in opens an optional input line with a pull-up.
func (s *session) in(key string) (pins.Input, error) {
	name, ok := s.click.Pins[key]
	if !ok {
		return nil, nil
	}
	return s.hw.Input(name, gpio.PullUp)
}
