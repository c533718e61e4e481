// Package rtc12 drives the RTC 12 click, a DS1307-compatible real-time clock
// with 56 bytes of battery-backed RAM.
package rtc12

import (
	"clickcode-go/errcode"
	"clickcode-go/x/bcd"

	"tinygo.org/x/drivers"
)

const Address = 0x68

const (
	regSeconds = 0x00
	regMinutes = 0x01
	regHours   = 0x02
	regDay     = 0x03
	regDate    = 0x04
	regMonth   = 0x05
	regYear    = 0x06
	regControl = 0x07

	RAMStart = 0x08
	RAMSize  = 56

	secondsCH   = 0x80
	hours12h    = 0x40
	controlOut  = 0x80
	controlSQWE = 0x10
)

// SquareWave selects the SQW/OUT pin function.
type SquareWave uint8

const (
	SquareWave1Hz SquareWave = iota
	SquareWave4096Hz
	SquareWave8192Hz
	SquareWave32768Hz
	// SquareWaveOff drives the pin to the level given by SetSquareWave's out.
	SquareWaveOff
)

// Time is a 24-hour wall clock time.
type Time struct {
	Hours, Minutes, Seconds uint8
}

// Date uses a two-digit year (2000-based) and weekday 1..7.
type Date struct {
	Weekday, Day, Month, Year uint8
}

type Config struct {
	Address uint16
}

func DefaultConfig() Config { return Config{Address: Address} }

type Device struct {
	bus  drivers.I2C
	addr uint16
	buf  [RAMSize + 1]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	return &Device{bus: bus, addr: cfg.Address}
}

// WriteRegs writes data starting at reg.
func (d *Device) WriteRegs(reg byte, data []byte) error {
	if len(data) > RAMSize {
		return errcode.New(errcode.InvalidParams, "rtc12.write", "length")
	}
	d.buf[0] = reg
	n := copy(d.buf[1:], data)
	return d.bus.Tx(d.addr, d.buf[:n+1], nil)
}

// ReadRegs fills data starting at reg.
func (d *Device) ReadRegs(reg byte, data []byte) error {
	d.buf[0] = reg
	return d.bus.Tx(d.addr, d.buf[:1], data)
}

func (d *Device) WriteReg(reg, v byte) error { return d.WriteRegs(reg, []byte{v}) }

func (d *Device) ReadReg(reg byte) (byte, error) {
	var v [1]byte
	err := d.ReadRegs(reg, v[:])
	return v[0], err
}

// DefaultCfg starts the oscillator and selects the 1 Hz square wave.
func (d *Device) DefaultCfg() error {
	if err := d.Start(); err != nil {
		return err
	}
	return d.SetSquareWave(SquareWave1Hz, false)
}

// Start clears CH, keeping the stored seconds.
func (d *Device) Start() error {
	s, err := d.ReadReg(regSeconds)
	if err != nil {
		return err
	}
	return d.WriteReg(regSeconds, s&^secondsCH)
}

// Stop sets CH, halting the oscillator.
func (d *Device) Stop() error {
	s, err := d.ReadReg(regSeconds)
	if err != nil {
		return err
	}
	return d.WriteReg(regSeconds, s|secondsCH)
}

// Running reports whether the oscillator is enabled.
func (d *Device) Running() (bool, error) {
	s, err := d.ReadReg(regSeconds)
	return s&secondsCH == 0, err
}

// SetTime writes hours, minutes and seconds in 24-hour mode. The CH bit is
// preserved.
func (d *Device) SetTime(t Time) error {
	if t.Hours > 23 || t.Minutes > 59 || t.Seconds > 59 {
		return errcode.New(errcode.InvalidParams, "rtc12.set_time", "out of range")
	}
	s, err := d.ReadReg(regSeconds)
	if err != nil {
		return err
	}
	return d.WriteRegs(regSeconds, []byte{
		bcd.FromDec(t.Seconds) | s&secondsCH,
		bcd.FromDec(t.Minutes),
		bcd.FromDec(t.Hours),
	})
}

func (d *Device) GetTime() (Time, error) {
	var r [3]byte
	if err := d.ReadRegs(regSeconds, r[:]); err != nil {
		return Time{}, err
	}
	t := Time{
		Seconds: bcd.ToDec(r[0] &^ secondsCH),
		Minutes: bcd.ToDec(r[1] & 0x7F),
	}
	if r[2]&hours12h != 0 {
		// 12-hour mode left behind by another master: bit5 is PM.
		h := bcd.ToDec(r[2] & 0x1F)
		if h == 12 {
			h = 0
		}
		if r[2]&0x20 != 0 {
			h += 12
		}
		t.Hours = h
	} else {
		t.Hours = bcd.ToDec(r[2] & 0x3F)
	}
	return t, nil
}

func (d *Device) SetDate(dt Date) error {
	if dt.Weekday < 1 || dt.Weekday > 7 || dt.Day < 1 || dt.Day > 31 ||
		dt.Month < 1 || dt.Month > 12 || dt.Year > 99 {
		return errcode.New(errcode.InvalidParams, "rtc12.set_date", "out of range")
	}
	return d.WriteRegs(regDay, []byte{
		dt.Weekday,
		bcd.FromDec(dt.Day),
		bcd.FromDec(dt.Month),
		bcd.FromDec(dt.Year),
	})
}

func (d *Device) GetDate() (Date, error) {
	var r [4]byte
	if err := d.ReadRegs(regDay, r[:]); err != nil {
		return Date{}, err
	}
	return Date{
		Weekday: r[0] & 0x07,
		Day:     bcd.ToDec(r[1] & 0x3F),
		Month:   bcd.ToDec(r[2] & 0x1F),
		Year:    bcd.ToDec(r[3]),
	}, nil
}

// SetSquareWave configures SQW/OUT. With SquareWaveOff the pin is held at out.
func (d *Device) SetSquareWave(sq SquareWave, out bool) error {
	var v byte
	switch {
	case sq == SquareWaveOff:
		if out {
			v = controlOut
		}
	case sq < SquareWaveOff:
		v = controlSQWE | byte(sq)
	default:
		return errcode.New(errcode.InvalidParams, "rtc12.set_square_wave", "rate")
	}
	return d.WriteReg(regControl, v)
}

func checkRAM(op string, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > RAMSize {
		return errcode.New(errcode.InvalidParams, op, "outside RAM")
	}
	return nil
}

// WriteRAM stores data at offset 0..55 of the battery-backed RAM.
func (d *Device) WriteRAM(offset int, data []byte) error {
	if err := checkRAM("rtc12.write_ram", offset, len(data)); err != nil {
		return err
	}
	return d.WriteRegs(byte(RAMStart+offset), data)
}

func (d *Device) ReadRAM(offset int, data []byte) error {
	if err := checkRAM("rtc12.read_ram", offset, len(data)); err != nil {
		return err
	}
	return d.ReadRegs(byte(RAMStart+offset), data)
}
