// Package color15 drives the Color 15 click (Vishay VEML6040), an RGBW light
// sensor, and converts its readings to the HSL colour space.
package color15

import (
	"time"

	"clickcode-go/errcode"
	"clickcode-go/x/mathx"

	"tinygo.org/x/drivers"
)

const Address = 0x10

const (
	regConf  = 0x00
	regRed   = 0x08
	regGreen = 0x09
	regBlue  = 0x0A
	regWhite = 0x0B

	confITShift = 4
	confITMask  = 0x70
	confTrig    = 0x04
	confAF      = 0x02
	confSD      = 0x01
)

// IntegrationTime selects the exposure; each step doubles it from 40 ms.
type IntegrationTime uint8

const (
	IT40ms IntegrationTime = iota
	IT80ms
	IT160ms
	IT320ms
	IT640ms
	IT1280ms
)

// Duration returns the exposure length.
func (it IntegrationTime) Duration() time.Duration {
	return 40 * time.Millisecond << it
}

// greenLuxPerCount at 40 ms; it halves with every doubling of exposure.
const greenLuxPerCount = 0.25168

type RGBW struct {
	Red, Green, Blue, White uint16
}

// HSL holds hue in degrees and saturation and lightness in percent.
type HSL struct {
	Hue, Saturation, Lightness float32
}

type Config struct {
	Address         uint16
	IntegrationTime IntegrationTime
	// ForceMode disables auto mode; measurements then need Trigger.
	ForceMode bool
	Sleep     func(time.Duration)
}

func DefaultConfig() Config {
	return Config{Address: Address, IntegrationTime: IT160ms, Sleep: time.Sleep}
}

type Device struct {
	bus   drivers.I2C
	addr  uint16
	it    IntegrationTime
	force bool
	sleep func(time.Duration)
	w     [3]byte
	r     [2]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{bus: bus, addr: cfg.Address, it: cfg.IntegrationTime, force: cfg.ForceMode, sleep: cfg.Sleep}
}

// WriteReg writes a 16-bit register, low byte first.
func (d *Device) WriteReg(reg byte, v uint16) error {
	d.w[0], d.w[1], d.w[2] = reg, byte(v), byte(v>>8)
	return d.bus.Tx(d.addr, d.w[:3], nil)
}

func (d *Device) ReadReg(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:]); err != nil {
		return 0, err
	}
	return uint16(d.r[1])<<8 | uint16(d.r[0]), nil
}

func (d *Device) conf() uint16 {
	v := uint16(d.it) << confITShift
	if d.force {
		v |= confAF
	}
	return v
}

// DefaultCfg powers the sensor up with the configured exposure.
func (d *Device) DefaultCfg() error {
	return d.WriteReg(regConf, d.conf())
}

// Shutdown disables the sensor.
func (d *Device) Shutdown() error {
	return d.WriteReg(regConf, d.conf()|confSD)
}

func (d *Device) SetIntegrationTime(it IntegrationTime) error {
	if it > IT1280ms {
		return errcode.New(errcode.InvalidParams, "color15.set_integration_time", "out of range")
	}
	d.it = it
	return d.WriteReg(regConf, d.conf())
}

// Trigger starts one measurement in force mode and waits for it.
func (d *Device) Trigger() error {
	if !d.force {
		return errcode.New(errcode.Unsupported, "color15.trigger", "auto mode")
	}
	if err := d.WriteReg(regConf, d.conf()|confTrig); err != nil {
		return err
	}
	d.sleep(d.it.Duration())
	return nil
}

func (d *Device) GetRGBW() (RGBW, error) {
	var c RGBW
	for _, f := range []struct {
		reg byte
		dst *uint16
	}{{regRed, &c.Red}, {regGreen, &c.Green}, {regBlue, &c.Blue}, {regWhite, &c.White}} {
		v, err := d.ReadReg(f.reg)
		if err != nil {
			return RGBW{}, err
		}
		*f.dst = v
	}
	return c, nil
}

// GetAmbientLight returns illuminance derived from the green channel.
func (d *Device) GetAmbientLight() (float32, error) {
	g, err := d.ReadReg(regGreen)
	if err != nil {
		return 0, err
	}
	return float32(g) * greenLuxPerCount / float32(uint(1)<<d.it), nil
}

// GetHSL reads the sensor and converts the sample.
func (d *Device) GetHSL() (HSL, error) {
	c, err := d.GetRGBW()
	if err != nil {
		return HSL{}, err
	}
	return ToHSL(c), nil
}

// ToHSL converts a white-normalised RGB sample to HSL. A zero white channel
// or a zero red channel yields the zero value.
func ToHSL(c RGBW) HSL {
	if c.White == 0 || c.Red == 0 {
		return HSL{}
	}
	w := float32(c.White)
	r, g, b := float32(c.Red)/w, float32(c.Green)/w, float32(c.Blue)/w
	hi, lo := mathx.Max3(r, g, b), mathx.Min3(r, g, b)

	var out HSL
	l := (hi + lo) / 2
	out.Lightness = l * 100
	if hi == lo {
		return out
	}
	delta := hi - lo
	if l > 0.5 {
		out.Saturation = delta / (2 - hi - lo) * 100
	} else {
		out.Saturation = delta / (hi + lo) * 100
	}
	var h float32
	switch hi {
	case r:
		h = (g - b) / delta
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	out.Hue = h * 60
	return out
}
