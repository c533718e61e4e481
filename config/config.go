// Package config describes how clicks are wired to a Linux host.
//
// A board file lists named buses (periph bus names plus SPI speed and mode)
// and the clicks sitting on them. Pins are periph GPIO names keyed by the
// driver's line name (int, rst, cs, wp, hold, latch, fault, ready).
package config

import (
	"bytes"
	_ "embed"
	"os"

	"clickcode-go/errcode"

	"gopkg.in/yaml.v3"
)

type BusKind string

const (
	I2C BusKind = "i2c"
	SPI BusKind = "spi"
)

// Drivers maps every driver clickctl can open to the bus it sits on.
var Drivers = map[string]BusKind{
	"accel34":  I2C,
	"ambient2": I2C,
	"color15":  I2C,
	"current3": I2C,
	"eeram":    I2C,
	"rtc12":    I2C,
	"rtc20":    I2C,
	"touchpad": I2C,
	"digiin2":  SPI,
	"eeram3":   SPI,
	"mram":     SPI,
}

type Bus struct {
	Name   string  `yaml:"name"`
	Kind   BusKind `yaml:"kind"`
	Device string  `yaml:"device"`
	Hz     int64   `yaml:"hz,omitempty"`
	Mode   int     `yaml:"mode,omitempty"`
}

type Click struct {
	Name    string            `yaml:"name"`
	Driver  string            `yaml:"driver"`
	Bus     string            `yaml:"bus"`
	Address uint16            `yaml:"address,omitempty"`
	Pins    map[string]string `yaml:"pins,omitempty"`
}

type Config struct {
	Buses  []Bus   `yaml:"buses"`
	Clicks []Click `yaml:"clicks"`
}

// DefaultSPIHz is used when a spi bus omits hz.
const DefaultSPIHz = 1_000_000

//go:embed default.yaml
var defaultYAML []byte

// Default returns the embedded two-socket Raspberry Pi board.
func Default() *Config {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads and validates a board file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errcode.Wrap(errcode.ReadError, "config.load", err)
	}
	return Parse(data)
}

// Parse decodes a board description, rejecting unknown keys.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "config.parse", err)
	}
	for i := range c.Buses {
		if c.Buses[i].Kind == SPI && c.Buses[i].Hz == 0 {
			c.Buses[i].Hz = DefaultSPIHz
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names are unique and every click sits on a bus of the
// kind its driver needs.
func (c *Config) Validate() error {
	const op = "config.validate"
	buses := make(map[string]BusKind, len(c.Buses))
	for _, b := range c.Buses {
		if b.Name == "" {
			return errcode.New(errcode.InvalidParams, op, "bus without name")
		}
		if b.Kind != I2C && b.Kind != SPI {
			return errcode.New(errcode.InvalidParams, op, "bus "+b.Name+": unknown kind "+string(b.Kind))
		}
		if b.Kind == SPI && (b.Mode < 0 || b.Mode > 3) {
			return errcode.New(errcode.InvalidParams, op, "bus "+b.Name+": spi mode out of range")
		}
		if _, dup := buses[b.Name]; dup {
			return errcode.New(errcode.InvalidParams, op, "duplicate bus "+b.Name)
		}
		buses[b.Name] = b.Kind
	}
	seen := make(map[string]bool, len(c.Clicks))
	owner := make(map[string]string)
	for _, k := range c.Clicks {
		if k.Name == "" {
			return errcode.New(errcode.InvalidParams, op, "click without name")
		}
		if seen[k.Name] {
			return errcode.New(errcode.InvalidParams, op, "duplicate click "+k.Name)
		}
		seen[k.Name] = true
		want, ok := Drivers[k.Driver]
		if !ok {
			return errcode.New(errcode.Unsupported, op, "click "+k.Name+": unknown driver "+k.Driver)
		}
		got, ok := buses[k.Bus]
		if !ok {
			return errcode.New(errcode.InvalidParams, op, "click "+k.Name+": unknown bus "+k.Bus)
		}
		if got != want {
			return errcode.New(errcode.InvalidParams, op, "click "+k.Name+": "+k.Driver+" needs an "+string(want)+" bus")
		}
		for role, pin := range k.Pins {
			if other, taken := owner[pin]; taken {
				return errcode.New(errcode.InvalidParams, op, "click "+k.Name+": pin "+role+" "+pin+" already used by "+other)
			}
			owner[pin] = k.Name
		}
	}
	return nil
}

// Find returns a click and the bus it sits on.
func (c *Config) Find(name string) (Click, Bus, error) {
	for _, k := range c.Clicks {
		if k.Name != name {
			continue
		}
		for _, b := range c.Buses {
			if b.Name == k.Bus {
				return k, b, nil
			}
		}
		break
	}
	return Click{}, Bus{}, errcode.New(errcode.InvalidParams, "config.find", "no click "+name)
}
