// Package ambient2 drives the Ambient 2 click (TI OPT3001) ambient light
// sensor. Registers are 16-bit, most significant byte first.
package ambient2

import (
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

const Address = 0x44

const (
	regResult   = 0x00
	regConfig   = 0x01
	regLowLimit = 0x02
	regHighLim  = 0x03
	regMfgID    = 0x7E
	regDeviceID = 0x7F

	ManufacturerID = 0x5449
	DeviceID       = 0x3001
)

// CONFIG fields.
const (
	cfgRangeAuto = 0xC000
	cfgConv800ms = 0x0800
	cfgModeShift = 9
	cfgLatch     = 0x0010

	FlagOverflow = 0x0100
	FlagReady    = 0x0080
	FlagHigh     = 0x0040
	FlagLow      = 0x0020
	flagsMask    = FlagOverflow | FlagReady | FlagHigh | FlagLow
)

type Mode uint8

const (
	ModeShutdown Mode = iota
	ModeSingleShot
	ModeContinuous
)

type Config struct {
	Address uint16
	// LongConversion selects 800 ms instead of 100 ms.
	LongConversion bool
	Mode           Mode
}

func DefaultConfig() Config {
	return Config{Address: Address, LongConversion: true, Mode: ModeContinuous}
}

type Device struct {
	bus drivers.I2C
	cfg Config
	w   [3]byte
	r   [2]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	return &Device{bus: bus, cfg: cfg}
}

func (d *Device) WriteReg(reg byte, v uint16) error {
	d.w[0], d.w[1], d.w[2] = reg, byte(v>>8), byte(v)
	return d.bus.Tx(d.cfg.Address, d.w[:3], nil)
}

func (d *Device) ReadReg(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.cfg.Address, d.w[:1], d.r[:]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

// CheckCommunication verifies the manufacturer and device IDs.
func (d *Device) CheckCommunication() error {
	mfg, err := d.ReadReg(regMfgID)
	if err != nil {
		return err
	}
	dev, err := d.ReadReg(regDeviceID)
	if err != nil {
		return err
	}
	if mfg != ManufacturerID || dev != DeviceID {
		return errcode.New(errcode.BadDeviceID, "ambient2", "unexpected manufacturer or device id")
	}
	return nil
}

// DefaultCfg checks the IDs and starts automatic-range conversions with a
// latched window comparator.
func (d *Device) DefaultCfg() error {
	if err := d.CheckCommunication(); err != nil {
		return err
	}
	return d.SetMode(d.cfg.Mode)
}

func (d *Device) SetMode(m Mode) error {
	if m > ModeContinuous {
		return errcode.New(errcode.InvalidParams, "ambient2.set_mode", "mode")
	}
	v := uint16(cfgRangeAuto | cfgLatch)
	if d.cfg.LongConversion {
		v |= cfgConv800ms
	}
	v |= uint16(m) << cfgModeShift
	d.cfg.Mode = m
	return d.WriteReg(regConfig, v)
}

// Flags returns the overflow, ready, high and low flags of CONFIG. Reading
// clears a latched high/low event.
func (d *Device) Flags() (uint16, error) {
	v, err := d.ReadReg(regConfig)
	return v & flagsMask, err
}

// ConversionReady reports the CRF flag.
func (d *Device) ConversionReady() (bool, error) {
	f, err := d.Flags()
	return f&FlagReady != 0, err
}

// GetMilliLux returns the latest result in millilux.
func (d *Device) GetMilliLux() (uint32, error) {
	v, err := d.ReadReg(regResult)
	if err != nil {
		return 0, err
	}
	return DecodeMilliLux(v), nil
}

// GetLux returns the latest result in lux.
func (d *Device) GetLux() (float32, error) {
	v, err := d.ReadReg(regResult)
	if err != nil {
		return 0, err
	}
	return float32(v&0x0FFF) * 0.01 * float32(uint32(1)<<(v>>12)), nil
}

// SetLimits programs the interrupt window in millilux.
func (d *Device) SetLimits(lowMilliLux, highMilliLux uint32) error {
	if lowMilliLux > highMilliLux {
		return errcode.New(errcode.InvalidParams, "ambient2.set_limits", "low above high")
	}
	if err := d.WriteReg(regLowLimit, EncodeMilliLux(lowMilliLux)); err != nil {
		return err
	}
	return d.WriteReg(regHighLim, EncodeMilliLux(highMilliLux))
}

// DecodeMilliLux converts an exponent/mantissa word: lux = 0.01 * 2^E * M.
func DecodeMilliLux(v uint16) uint32 {
	return 10 * uint32(v&0x0FFF) << (v >> 12)
}

// EncodeMilliLux picks the smallest exponent whose mantissa fits 12 bits.
// Values above the full scale saturate.
func EncodeMilliLux(mlux uint32) uint16 {
	m := mlux / 10
	for e := uint16(0); e < 12; e++ {
		if m>>e <= 0x0FFF {
			return e<<12 | uint16(m>>e)
		}
	}
	return 0xBFFF
}
