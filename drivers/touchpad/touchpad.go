// Package touchpad drives the TouchPad click (Microchip MTCH6102), a
// projected-capacitive controller reporting 12-bit positions and gestures.
package touchpad

import (
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

const Address = 0x25

const (
	regFWMajor      = 0x00
	regFWMinor      = 0x01
	regCmd          = 0x04
	regMode         = 0x05
	regTouchState   = 0x10
	regTouchX       = 0x11
	regTouchY       = 0x12
	regTouchLSB     = 0x13
	regGestureState = 0x14
	regChannelsX    = 0x20
	regChannelsY    = 0x21

	cmdStoreNV  = 0x80
	cmdDefaults = 0x40
	cmdConfig   = 0x20

	stateTouch   = 0x01
	stateGesture = 0x02
	stateLarge   = 0x04
)

type Mode uint8

const (
	ModeStandby Mode = iota
	ModeGesture
	ModeTouch
	ModeFull
	ModeRaw
)

type Gesture uint8

const (
	GestureNone           Gesture = 0x00
	GestureClick          Gesture = 0x10
	GestureClickHold      Gesture = 0x11
	GestureDoubleClick    Gesture = 0x20
	GestureSwipeDown      Gesture = 0x31
	GestureSwipeDownHold  Gesture = 0x32
	GestureSwipeRight     Gesture = 0x41
	GestureSwipeRightHold Gesture = 0x42
	GestureSwipeUp        Gesture = 0x51
	GestureSwipeUpHold    Gesture = 0x52
	GestureSwipeLeft      Gesture = 0x61
	GestureSwipeLeftHold  Gesture = 0x62
)

// Touch is one position sample.
type Touch struct {
	X, Y    uint16
	Pressed bool
	Large   bool
	// Frame counts samples modulo 16.
	Frame uint8
}

type Config struct {
	Address   uint16
	ChannelsX uint8
	ChannelsY uint8
	Mode      Mode
	// Int is the active-high touch/gesture interrupt, optional.
	Int          pins.Input
	PollAttempts int
	Sleep        func(time.Duration)
}

func DefaultConfig() Config {
	return Config{
		Address:      Address,
		ChannelsX:    6,
		ChannelsY:    9,
		Mode:         ModeFull,
		PollAttempts: 100,
		Sleep:        time.Sleep,
	}
}

type Device struct {
	bus drivers.I2C
	cfg Config
	w   [2]byte
	r   [5]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 100
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{bus: bus, cfg: cfg}
}

func (d *Device) WriteReg(reg, v byte) error {
	d.w[0], d.w[1] = reg, v
	return d.bus.Tx(d.cfg.Address, d.w[:2], nil)
}

func (d *Device) ReadRegs(reg byte, buf []byte) error {
	d.w[0] = reg
	return d.bus.Tx(d.cfg.Address, d.w[:1], buf)
}

func (d *Device) ReadReg(reg byte) (byte, error) {
	err := d.ReadRegs(reg, d.r[:1])
	return d.r[0], err
}

// DefaultCfg sets the sensor geometry, applies it and selects the mode.
func (d *Device) DefaultCfg() error {
	if err := d.WriteReg(regChannelsX, d.cfg.ChannelsX); err != nil {
		return err
	}
	if err := d.WriteReg(regChannelsY, d.cfg.ChannelsY); err != nil {
		return err
	}
	if err := d.command(cmdConfig); err != nil {
		return err
	}
	return d.SetMode(d.cfg.Mode)
}

func (d *Device) SetMode(m Mode) error {
	if m > ModeRaw {
		return errcode.New(errcode.InvalidParams, "touchpad.set_mode", "mode")
	}
	return d.WriteReg(regMode, byte(m))
}

// RestoreDefaults reloads the factory parameters.
func (d *Device) RestoreDefaults() error { return d.command(cmdDefaults) }

// StoreToNV saves the parameters to non-volatile memory.
func (d *Device) StoreToNV() error { return d.command(cmdStoreNV) }

// command sets a CMD bit and waits for the controller to clear it.
func (d *Device) command(bit byte) error {
	if err := d.WriteReg(regCmd, bit); err != nil {
		return err
	}
	for i := 0; i < d.cfg.PollAttempts; i++ {
		v, err := d.ReadReg(regCmd)
		if err != nil {
			return err
		}
		if v&bit == 0 {
			return nil
		}
		d.cfg.Sleep(time.Millisecond)
	}
	return errcode.New(errcode.Timeout, "touchpad.command", "command bit not cleared")
}

// GetTouch reads state and position in one burst.
func (d *Device) GetTouch() (Touch, error) {
	if err := d.ReadRegs(regTouchState, d.r[:4]); err != nil {
		return Touch{}, err
	}
	st, x, y, lsb := d.r[0], d.r[1], d.r[2], d.r[3]
	return Touch{
		X:       uint16(x)<<4 | uint16(lsb&0x0F),
		Y:       uint16(y)<<4 | uint16(lsb>>4),
		Pressed: st&stateTouch != 0,
		Large:   st&stateLarge != 0,
		Frame:   st >> 4,
	}, nil
}

// GetGesture returns the last gesture, GestureNone when none is pending.
func (d *Device) GetGesture() (Gesture, error) {
	st, err := d.ReadReg(regTouchState)
	if err != nil || st&stateGesture == 0 {
		return GestureNone, err
	}
	g, err := d.ReadReg(regGestureState)
	return Gesture(g), err
}

// Event reports the interrupt line; without one it is always true.
func (d *Device) Event() bool { return d.cfg.Int.Get(true) }

// FirmwareVersion returns major and minor.
func (d *Device) FirmwareVersion() (major, minor uint8, err error) {
	if err = d.ReadRegs(regFWMajor, d.r[:2]); err != nil {
		return 0, 0, err
	}
	return d.r[0], d.r[1], nil
}
