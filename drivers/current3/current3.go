// Package current3 drives the Current 3 click: a high-side current sense
// amplifier whose output is sampled by an MCP3221 12-bit I2C ADC.
package current3

import (
	"time"

	"clickcode-go/errcode"
	"clickcode-go/x/mathx"

	"tinygo.org/x/drivers"
)

const (
	Address    = 0x4D
	Resolution = 4096
)

type Config struct {
	Address uint16
	// VRefMilliVolts is the ADC reference (the click's supply).
	VRefMilliVolts uint32
	// Gain of the sense amplifier, in V/V.
	Gain uint32
	// ShuntMilliOhms is the sense resistor.
	ShuntMilliOhms uint32
	// Samples averaged by every reading. Zero means one.
	Samples int
	// SampleInterval between averaged conversions.
	SampleInterval time.Duration
	Sleep          func(time.Duration)
}

func DefaultConfig() Config {
	return Config{
		Address:        Address,
		VRefMilliVolts: 3300,
		Gain:           50,
		ShuntMilliOhms: 100,
		Samples:        16,
		Sleep:          time.Sleep,
	}
}

type Device struct {
	bus drivers.I2C
	cfg Config
	r   [2]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.Samples < 1 {
		cfg.Samples = 1
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{bus: bus, cfg: cfg}
}

// GetRaw reads one 12-bit conversion.
func (d *Device) GetRaw() (uint16, error) {
	if err := d.bus.Tx(d.cfg.Address, nil, d.r[:]); err != nil {
		return 0, err
	}
	return uint16(d.r[0]&0x0F)<<8 | uint16(d.r[1]), nil
}

// GetAverage returns the mean of Config.Samples conversions.
func (d *Device) GetAverage() (uint16, error) {
	var sum uint32
	for i := 0; i < d.cfg.Samples; i++ {
		if i > 0 && d.cfg.SampleInterval > 0 {
			d.cfg.Sleep(d.cfg.SampleInterval)
		}
		v, err := d.GetRaw()
		if err != nil {
			return 0, err
		}
		sum += uint32(v)
	}
	return uint16(mathx.RoundDiv(sum, uint32(d.cfg.Samples))), nil
}

// GetVoltage returns the averaged ADC input in mV.
func (d *Device) GetVoltage() (uint32, error) {
	raw, err := d.GetAverage()
	if err != nil {
		return 0, err
	}
	return mathx.MulDiv(uint32(raw), d.cfg.VRefMilliVolts, Resolution), nil
}

// GetCurrent returns the averaged load current in mA.
func (d *Device) GetCurrent() (float32, error) {
	if d.cfg.Gain == 0 || d.cfg.ShuntMilliOhms == 0 {
		return 0, errcode.New(errcode.InvalidParams, "current3.get_current", "gain and shunt must be non-zero")
	}
	raw, err := d.GetAverage()
	if err != nil {
		return 0, err
	}
	return d.current(raw), nil
}

// GetMicroAmps is the integer form of GetCurrent.
func (d *Device) GetMicroAmps() (int64, error) {
	if d.cfg.Gain == 0 || d.cfg.ShuntMilliOhms == 0 {
		return 0, errcode.New(errcode.InvalidParams, "current3.get_current", "gain and shunt must be non-zero")
	}
	raw, err := d.GetAverage()
	if err != nil {
		return 0, err
	}
	return mathx.MulDiv(int64(raw)*int64(d.cfg.VRefMilliVolts), 1_000_000,
		Resolution*int64(d.cfg.Gain)*int64(d.cfg.ShuntMilliOhms)), nil
}

func (d *Device) current(raw uint16) float32 {
	return float32(raw) * float32(d.cfg.VRefMilliVolts) * 1000 /
		(Resolution * float32(d.cfg.Gain) * float32(d.cfg.ShuntMilliOhms))
}
