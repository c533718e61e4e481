// Package rtc20 drives the RTC 20 click (NXP PCF85063A).
//
// The oscillator-stop flag (OS, bit7 of the seconds register) is set by the
// chip after power loss; ClockIntegrity reports it and SetTime clears it.
package rtc20

import (
	"clickcode-go/errcode"
	"clickcode-go/x/bcd"

	"tinygo.org/x/drivers"
)

const Address = 0x51

const (
	regControl1 = 0x00
	regControl2 = 0x01
	regOffset   = 0x02
	regRAM      = 0x03
	regSeconds  = 0x04
	regMinutes  = 0x05
	regHours    = 0x06
	regDays     = 0x07
	regWeekdays = 0x08
	regMonths   = 0x09
	regYears    = 0x0A
	regAlarmSec = 0x0B

	softReset = 0x58

	control1Stop = 0x20

	control2AIE = 0x80
	control2AF  = 0x40
	control2COF = 0x07

	secondsOS = 0x80
	alarmOff  = 0x80
)

// Time is a 24-hour wall clock time.
type Time struct {
	Hours, Minutes, Seconds uint8
}

// Date has weekday 0..6 (0 = Sunday) and a two-digit year.
type Date struct {
	Weekday, Day, Month, Year uint8
}

// AlarmField selects the alarm registers that take part in the match.
type AlarmField uint8

const (
	AlarmSeconds AlarmField = 1 << iota
	AlarmMinutes
	AlarmHours
	AlarmDay
	AlarmWeekday
)

// AlarmTime fires when every field named in Match equals the clock.
type AlarmTime struct {
	Seconds, Minutes, Hours, Day, Weekday uint8
	Match                                 AlarmField
}

// ClockOut selects the CLKOUT frequency.
type ClockOut uint8

const (
	ClockOut32768Hz ClockOut = iota
	ClockOut16384Hz
	ClockOut8192Hz
	ClockOut4096Hz
	ClockOut2048Hz
	ClockOut1024Hz
	ClockOut1Hz
	ClockOutOff
)

type Config struct {
	Address uint16
}

func DefaultConfig() Config { return Config{Address: Address} }

type Device struct {
	bus  drivers.I2C
	addr uint16
	w    [8]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	return &Device{bus: bus, addr: cfg.Address}
}

func (d *Device) WriteRegs(reg byte, data []byte) error {
	if len(data) > len(d.w)-1 {
		return errcode.New(errcode.InvalidParams, "rtc20.write", "length")
	}
	d.w[0] = reg
	n := copy(d.w[1:], data)
	return d.bus.Tx(d.addr, d.w[:n+1], nil)
}

func (d *Device) ReadRegs(reg byte, data []byte) error {
	d.w[0] = reg
	return d.bus.Tx(d.addr, d.w[:1], data)
}

func (d *Device) WriteReg(reg, v byte) error {
	d.w[0], d.w[1] = reg, v
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) ReadReg(reg byte) (byte, error) {
	var v [1]byte
	err := d.ReadRegs(reg, v[:])
	return v[0], err
}

// SoftReset writes the reset pattern to control_1.
func (d *Device) SoftReset() error { return d.WriteReg(regControl1, softReset) }

// DefaultCfg resets the chip and selects 24-hour mode with the clock running.
func (d *Device) DefaultCfg() error {
	if err := d.SoftReset(); err != nil {
		return err
	}
	return d.WriteReg(regControl1, 0)
}

// SetRunning starts or stops the time counters.
func (d *Device) SetRunning(run bool) error {
	c, err := d.ReadReg(regControl1)
	if err != nil {
		return err
	}
	if run {
		c &^= control1Stop
	} else {
		c |= control1Stop
	}
	return d.WriteReg(regControl1, c)
}

// ClockIntegrity reports false when the oscillator stopped since the last SetTime.
func (d *Device) ClockIntegrity() (bool, error) {
	s, err := d.ReadReg(regSeconds)
	return s&secondsOS == 0, err
}

// SetTime writes the time and clears the OS flag.
func (d *Device) SetTime(t Time) error {
	if t.Hours > 23 || t.Minutes > 59 || t.Seconds > 59 {
		return errcode.New(errcode.InvalidParams, "rtc20.set_time", "out of range")
	}
	return d.WriteRegs(regSeconds, []byte{
		bcd.FromDec(t.Seconds),
		bcd.FromDec(t.Minutes),
		bcd.FromDec(t.Hours),
	})
}

func (d *Device) GetTime() (Time, error) {
	var r [3]byte
	if err := d.ReadRegs(regSeconds, r[:]); err != nil {
		return Time{}, err
	}
	return Time{
		Seconds: bcd.ToDec(r[0] &^ secondsOS),
		Minutes: bcd.ToDec(r[1] & 0x7F),
		Hours:   bcd.ToDec(r[2] & 0x3F),
	}, nil
}

func (d *Device) SetDate(dt Date) error {
	if dt.Weekday > 6 || dt.Day < 1 || dt.Day > 31 || dt.Month < 1 || dt.Month > 12 || dt.Year > 99 {
		return errcode.New(errcode.InvalidParams, "rtc20.set_date", "out of range")
	}
	return d.WriteRegs(regDays, []byte{
		bcd.FromDec(dt.Day),
		dt.Weekday,
		bcd.FromDec(dt.Month),
		bcd.FromDec(dt.Year),
	})
}

func (d *Device) GetDate() (Date, error) {
	var r [4]byte
	if err := d.ReadRegs(regDays, r[:]); err != nil {
		return Date{}, err
	}
	return Date{
		Day:     bcd.ToDec(r[0] & 0x3F),
		Weekday: r[1] & 0x07,
		Month:   bcd.ToDec(r[2] & 0x1F),
		Year:    bcd.ToDec(r[3]),
	}, nil
}

// SetAlarm programs the alarm registers and enables the alarm interrupt.
func (d *Device) SetAlarm(a AlarmTime) error {
	if a.Seconds > 59 || a.Minutes > 59 || a.Hours > 23 || a.Day > 31 || a.Weekday > 6 {
		return errcode.New(errcode.InvalidParams, "rtc20.set_alarm", "out of range")
	}
	field := func(f AlarmField, v byte) byte {
		if a.Match&f == 0 {
			return alarmOff
		}
		return v
	}
	err := d.WriteRegs(regAlarmSec, []byte{
		field(AlarmSeconds, bcd.FromDec(a.Seconds)),
		field(AlarmMinutes, bcd.FromDec(a.Minutes)),
		field(AlarmHours, bcd.FromDec(a.Hours)),
		field(AlarmDay, bcd.FromDec(a.Day)),
		field(AlarmWeekday, a.Weekday),
	})
	if err != nil {
		return err
	}
	c, err := d.ReadReg(regControl2)
	if err != nil {
		return err
	}
	return d.WriteReg(regControl2, (c|control2AIE)&^control2AF)
}

// AlarmFlag reports AF.
func (d *Device) AlarmFlag() (bool, error) {
	c, err := d.ReadReg(regControl2)
	return c&control2AF != 0, err
}

// ClearAlarmFlag clears AF, leaving the other control_2 bits alone.
func (d *Device) ClearAlarmFlag() error {
	c, err := d.ReadReg(regControl2)
	if err != nil {
		return err
	}
	return d.WriteReg(regControl2, c&^control2AF)
}

func (d *Device) SetClockOut(f ClockOut) error {
	if f > ClockOutOff {
		return errcode.New(errcode.InvalidParams, "rtc20.set_clock_out", "frequency")
	}
	c, err := d.ReadReg(regControl2)
	if err != nil {
		return err
	}
	return d.WriteReg(regControl2, c&^control2COF|byte(f))
}

// SetOffset writes the raw 8-bit offset register (mode bit7, 7-bit signed value).
func (d *Device) SetOffset(v byte) error { return d.WriteReg(regOffset, v) }

func (d *Device) WriteRAMByte(v byte) error { return d.WriteReg(regRAM, v) }

func (d *Device) ReadRAMByte() (byte, error) { return d.ReadReg(regRAM) }
