// Package digiin2 drives the DIGI IN 2 click (Maxim MAX22190), an octal
// industrial digital input with wire-break detection.
//
// Every SPI frame is three bytes protected by a 5-bit CRC:
//
//	MOSI: [rw<<7 | reg] [data] [crc5]
//	MISO: [DI7..DI0]    [data] [WBG 24VM ALRMT1 | crc5]
//
// Register data is returned in the same frame that addresses it.
package digiin2

import (
	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

// Registers.
const (
	RegWireBreak = 0x00
	RegDI        = 0x02
	RegFault1    = 0x04
	RegFLT1      = 0x06 // FLT2..FLT8 follow at +2 each
	RegCfg       = 0x18
	RegInEn      = 0x1A
	RegFault2    = 0x1C
	RegFault2En  = 0x1E
	RegGPO       = 0x22
	RegFault1En  = 0x24

	writeBit = 0x80
)

// Flags carried in the upper bits of the third MISO byte.
const (
	FlagWireBreak = 0x80
	Flag24VM      = 0x40
	FlagAlarmT1   = 0x20
	flagsMask     = 0xE0
)

// Filter delays selectable per channel.
type FilterDelay uint8

const (
	Delay50us FilterDelay = iota
	Delay100us
	Delay400us
	Delay800us
	Delay1600us
	Delay3200us
	Delay12800us
	Delay20000us
)

const (
	fltBypass    = 0x10
	fltWireBreak = 0x08
)

type Config struct {
	CS pins.Output
	// Latch high passes inputs through; low freezes them.
	Latch pins.Output
	Fault pins.Input
	Ready pins.Input
}

func DefaultConfig() Config { return Config{} }

// Frame is the decoded MISO side of one transfer.
type Frame struct {
	Inputs byte
	Data   byte
	Flags  byte
}

type Device struct {
	spi   drivers.SPI
	cs    pins.Output
	latch pins.Output
	fault pins.Input
	ready pins.Input

	// Last is the most recent frame received.
	Last Frame

	tx [3]byte
	rx [3]byte
}

func New(spi drivers.SPI, cfg Config) *Device {
	d := &Device{spi: spi, cs: cfg.CS, latch: cfg.Latch, fault: cfg.Fault, ready: cfg.Ready}
	d.cs.High()
	d.latch.High()
	return d
}

// CRC5 returns the frame check for a command/data pair (polynomial 0x15,
// seed 0x1F, 16 data bits followed by three zero bits, MSB first).
func CRC5(b0, b1 byte) byte {
	return crc5(uint32(b0)<<16 | uint32(b1)<<8)
}

// crc5 runs over bits 23..5 of w.
func crc5(w uint32) byte {
	c := byte(0x1F)
	for i := 0; i < 19; i++ {
		bit := byte(w>>(23-i)) & 1
		top := c >> 4 & 1
		c = c << 1 & 0x1F
		if top^bit != 0 {
			c ^= 0x15
		}
	}
	return c
}

// VerifyFrame checks the CRC of a received three-byte frame.
func VerifyFrame(f [3]byte) bool {
	w := uint32(f[0])<<16 | uint32(f[1])<<8 | uint32(f[2]&flagsMask)
	return crc5(w) == f[2]&0x1F
}

func (d *Device) transfer(b0, b1 byte) (Frame, error) {
	d.tx[0], d.tx[1], d.tx[2] = b0, b1, CRC5(b0, b1)
	d.cs.Low()
	err := d.spi.Tx(d.tx[:], d.rx[:])
	d.cs.High()
	if err != nil {
		return Frame{}, err
	}
	if !VerifyFrame(d.rx) {
		return Frame{}, errcode.New(errcode.ChecksumError, "digiin2.transfer", "crc5 mismatch")
	}
	d.Last = Frame{Inputs: d.rx[0], Data: d.rx[1], Flags: d.rx[2] & flagsMask}
	return d.Last, nil
}

func (d *Device) WriteReg(reg, v byte) error {
	_, err := d.transfer(writeBit|reg, v)
	return err
}

func (d *Device) ReadReg(reg byte) (byte, error) {
	f, err := d.transfer(reg&^writeBit, 0)
	return f.Data, err
}

// DefaultCfg clears the power-on fault, enables all eight inputs and sets
// every channel to 1.6 ms filtering with wire-break detection.
func (d *Device) DefaultCfg() error {
	if _, err := d.ReadReg(RegFault1); err != nil {
		return err
	}
	for ch := 0; ch < 8; ch++ {
		if err := d.SetFilter(ch, Delay1600us, false, true); err != nil {
			return err
		}
	}
	return d.WriteReg(RegInEn, 0xFF)
}

// SetFilter configures channel ch (0..7).
func (d *Device) SetFilter(ch int, delay FilterDelay, bypass, wireBreak bool) error {
	if ch < 0 || ch > 7 || delay > Delay20000us {
		return errcode.New(errcode.InvalidParams, "digiin2.set_filter", "channel or delay")
	}
	v := byte(delay)
	if bypass {
		v |= fltBypass
	}
	if wireBreak {
		v |= fltWireBreak
	}
	return d.WriteReg(RegFLT1+byte(2*ch), v)
}

// EnableInputs selects which channels are sampled.
func (d *Device) EnableInputs(mask byte) error { return d.WriteReg(RegInEn, mask) }

// GetInputs returns the filtered input states, bit n = channel n+1.
func (d *Device) GetInputs() (byte, error) { return d.ReadReg(RegDI) }

// GetWireBreak returns the per-channel wire-break bits.
func (d *Device) GetWireBreak() (byte, error) { return d.ReadReg(RegWireBreak) }

func (d *Device) GetFault1() (byte, error) { return d.ReadReg(RegFault1) }
func (d *Device) GetFault2() (byte, error) { return d.ReadReg(RegFault2) }

// SetLatch freezes (true) or releases the input registers.
func (d *Device) SetLatch(freeze bool) { d.latch.Set(!freeze) }

// Faulted reports the active-low FAULT pin.
func (d *Device) Faulted() bool { return !d.fault.Get(true) }

// Ready reports the active-low READY pin.
func (d *Device) Ready() bool { return !d.ready.Get(true) }
