// Package accel34 provides a driver for the Accel 34 click, a 12-bit
// three-axis accelerometer (SC7A20H) with a LIS3DH-compatible register map.
//
//	d := accel34.New(i2c, accel34.DefaultConfig())
//	if err := d.DefaultCfg(); err != nil { ... }
//	a, err := d.GetData() // errcode.DataNotReady until a new sample exists
package accel34

import (
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"
	"clickcode-go/x/mathx"

	"tinygo.org/x/drivers"
)

// FullScale selects the measurement range.
type FullScale uint8

const (
	FullScale2G FullScale = iota
	FullScale4G
	FullScale8G
	FullScale16G
)

// ODR selects the output data rate.
type ODR uint8

const (
	ODRPowerDown ODR = iota
	ODR1Hz
	ODR10Hz
	ODR25Hz
	ODR50Hz
	ODR100Hz
	ODR200Hz
	ODR400Hz
)

// sensitivity in µg per 12-bit LSB, indexed by FullScale.
var sensitivity = [...]int32{1000, 2000, 4000, 12000}

type Config struct {
	Address uint16
	// Int1 is the interrupt line used as data-ready, if connected.
	Int1 pins.Input
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func DefaultConfig() Config {
	return Config{Address: Address, Sleep: time.Sleep}
}

// Axes holds signed 12-bit samples.
type Axes struct {
	X, Y, Z int16
}

// Data holds acceleration in g.
type Data struct {
	X, Y, Z float32
}

// MilliG holds acceleration in thousandths of g.
type MilliG struct {
	X, Y, Z int32
}

type Device struct {
	bus   drivers.I2C
	addr  uint16
	int1  pins.Input
	sleep func(time.Duration)

	fs       FullScale
	ugPerLSB int32

	w [2]byte
	r [6]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{
		bus:      bus,
		addr:     cfg.Address,
		int1:     cfg.Int1,
		sleep:    cfg.Sleep,
		ugPerLSB: sensitivity[FullScale2G],
	}
}

// WriteReg writes one register.
func (d *Device) WriteReg(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

// ReadRegs reads len(buf) consecutive registers starting at reg.
func (d *Device) ReadRegs(reg byte, buf []byte) error {
	if len(buf) > 1 {
		reg |= autoIncrement
	}
	d.w[0] = reg
	return d.bus.Tx(d.addr, d.w[:1], buf)
}

// ReadReg reads one register.
func (d *Device) ReadReg(reg byte) (byte, error) {
	err := d.ReadRegs(reg, d.r[:1])
	return d.r[0], err
}

func (d *Device) modifyReg(reg, set, clear byte) error {
	v, err := d.ReadReg(reg)
	if err != nil {
		return err
	}
	return d.WriteReg(reg, (v|set)&^clear)
}

// CheckCommunication verifies the WHO_AM_I register.
func (d *Device) CheckCommunication() error {
	id, err := d.ReadReg(regWhoAmI)
	if err != nil {
		return err
	}
	if id != DeviceID {
		return errcode.New(errcode.BadDeviceID, "accel34", "unexpected WHO_AM_I")
	}
	return nil
}

// DefaultCfg reboots the sensor and sets 100 Hz, all axes, block data
// update, high resolution, ±2 g and data-ready on INT1.
func (d *Device) DefaultCfg() error {
	if err := d.CheckCommunication(); err != nil {
		return err
	}
	if err := d.WriteReg(regCtrl5, ctrl5Boot); err != nil {
		return err
	}
	d.sleep(5 * time.Millisecond)
	if err := d.WriteReg(regCtrl1, byte(ODR100Hz)<<ctrl1ODRShift|ctrl1XYZ); err != nil {
		return err
	}
	if err := d.WriteReg(regCtrl3, ctrl3DataReadyInt1); err != nil {
		return err
	}
	if err := d.WriteReg(regCtrl4, ctrl4BDU|ctrl4HR); err != nil {
		return err
	}
	d.fs = FullScale2G
	d.ugPerLSB = sensitivity[FullScale2G]
	return nil
}

// SetFullScale changes the range and the cached sensitivity.
func (d *Device) SetFullScale(fs FullScale) error {
	if fs > FullScale16G {
		return errcode.New(errcode.InvalidParams, "accel34.set_full_scale", "range")
	}
	if err := d.modifyReg(regCtrl4, byte(fs)<<ctrl4FSShift, ctrl4FSMask&^(byte(fs)<<ctrl4FSShift)); err != nil {
		return err
	}
	d.fs = fs
	d.ugPerLSB = sensitivity[fs]
	return nil
}

// FullScale returns the range last configured.
func (d *Device) FullScale() FullScale { return d.fs }

// SetODR changes the output data rate.
func (d *Device) SetODR(odr ODR) error {
	if odr > ODR400Hz {
		return errcode.New(errcode.InvalidParams, "accel34.set_odr", "rate")
	}
	v := byte(odr) << ctrl1ODRShift
	return d.modifyReg(regCtrl1, v, ctrl1ODRMask&^v)
}

// DataReady reports a pending sample, from INT1 when wired or STATUS_REG.
func (d *Device) DataReady() (bool, error) {
	if d.int1.Connected() {
		return d.int1.Get(false), nil
	}
	st, err := d.ReadReg(regStatus)
	if err != nil {
		return false, err
	}
	return st&statusZYXDA != 0, nil
}

// GetAxes reads the raw signed 12-bit samples.
func (d *Device) GetAxes() (Axes, error) {
	if err := d.ReadRegs(regOutXL, d.r[:6]); err != nil {
		return Axes{}, err
	}
	return Axes{
		X: sample(d.r[0], d.r[1]),
		Y: sample(d.r[2], d.r[3]),
		Z: sample(d.r[4], d.r[5]),
	}, nil
}

// sample converts a left-justified 12-bit pair.
func sample(lo, hi byte) int16 {
	return int16(uint16(hi)<<8|uint16(lo)) >> 4
}

// GetMilliG returns the newest sample in mg, or errcode.DataNotReady.
func (d *Device) GetMilliG() (MilliG, error) {
	ready, err := d.DataReady()
	if err != nil {
		return MilliG{}, err
	}
	if !ready {
		return MilliG{}, errcode.DataNotReady
	}
	a, err := d.GetAxes()
	if err != nil {
		return MilliG{}, err
	}
	return MilliG{
		X: mathx.MulDiv(int32(a.X), d.ugPerLSB, 1000),
		Y: mathx.MulDiv(int32(a.Y), d.ugPerLSB, 1000),
		Z: mathx.MulDiv(int32(a.Z), d.ugPerLSB, 1000),
	}, nil
}

// GetData returns the newest sample in g, or errcode.DataNotReady.
func (d *Device) GetData() (Data, error) {
	ready, err := d.DataReady()
	if err != nil {
		return Data{}, err
	}
	if !ready {
		return Data{}, errcode.DataNotReady
	}
	a, err := d.GetAxes()
	if err != nil {
		return Data{}, err
	}
	scale := float32(d.ugPerLSB) / 1e6
	return Data{
		X: float32(a.X) * scale,
		Y: float32(a.Y) * scale,
		Z: float32(a.Z) * scale,
	}, nil
}

// SetMotionThreshold enables an OR of high events on all axes on INT1 with
// the threshold in mg (LSB depends on the range: 16/32/62/186 mg).
func (d *Device) SetMotionThreshold(mg uint16, duration byte) error {
	lsb := [...]uint16{16, 32, 62, 186}[d.fs]
	ths := mathx.Min(mathx.RoundDiv(mg, lsb), 0x7F)
	if err := d.WriteReg(regInt1Ths, byte(ths)); err != nil {
		return err
	}
	if err := d.WriteReg(regInt1Dur, duration&0x7F); err != nil {
		return err
	}
	return d.WriteReg(regInt1Cfg, 0x2A) // XHIE | YHIE | ZHIE
}

// MotionSource reads and clears INT1_SRC; bit6 is the active flag.
func (d *Device) MotionSource() (byte, error) {
	return d.ReadReg(regInt1Src)
}
