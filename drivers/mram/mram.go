// Package mram drives the MRAM click (Everspin MR25H256): 32 KiB of
// non-volatile SPI memory with no write delay.
package mram

import (
	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

const Size = 32 * 1024

const (
	cmdWREN  = 0x06
	cmdWRDI  = 0x04
	cmdRDSR  = 0x05
	cmdWRSR  = 0x01
	cmdRead  = 0x03
	cmdWrite = 0x02
	cmdSleep = 0xB9
	cmdWake  = 0xAB

	headerLen = 3
	maxChunk  = 256
)

// Status register bits.
const (
	StatusWEL  = 0x02
	StatusBP0  = 0x04
	StatusBP1  = 0x08
	StatusSRWD = 0x80
)

type Config struct {
	CS pins.Output
	// WP and Hold are active low; nil when tied high on the board.
	WP   pins.Output
	Hold pins.Output
}

func DefaultConfig() Config { return Config{} }

type Device struct {
	spi  drivers.SPI
	cs   pins.Output
	wp   pins.Output
	hold pins.Output

	tx [headerLen + maxChunk]byte
	rx [headerLen + maxChunk]byte
}

// New deselects the chip and releases WP and HOLD.
func New(spi drivers.SPI, cfg Config) *Device {
	d := &Device{spi: spi, cs: cfg.CS, wp: cfg.WP, hold: cfg.Hold}
	d.cs.High()
	d.wp.High()
	d.hold.High()
	return d
}

func (d *Device) frame(n int) error {
	d.cs.Low()
	err := d.spi.Tx(d.tx[:n], d.rx[:n])
	d.cs.High()
	return err
}

func (d *Device) command(cmd byte) error {
	d.tx[0] = cmd
	return d.frame(1)
}

func (d *Device) WriteEnable() error  { return d.command(cmdWREN) }
func (d *Device) WriteDisable() error { return d.command(cmdWRDI) }

// Sleep enters low-power mode; only Wake is accepted afterwards.
func (d *Device) Sleep() error { return d.command(cmdSleep) }
func (d *Device) Wake() error  { return d.command(cmdWake) }

func (d *Device) ReadStatus() (byte, error) {
	d.tx[0], d.tx[1] = cmdRDSR, 0
	if err := d.frame(2); err != nil {
		return 0, err
	}
	return d.rx[1], nil
}

func (d *Device) WriteStatus(s byte) error {
	if err := d.WriteEnable(); err != nil {
		return err
	}
	d.tx[0], d.tx[1] = cmdWRSR, s
	return d.frame(2)
}

// WriteProtect drives the WP line; true protects the status register.
func (d *Device) WriteProtect(on bool) { d.wp.Set(!on) }

// Hold pauses a transfer in progress while on.
func (d *Device) Hold(on bool) { d.hold.Set(!on) }

func checkRange(op string, addr uint16, n int) error {
	if int(addr)+n > Size {
		return errcode.New(errcode.InvalidParams, op, "outside memory")
	}
	return nil
}

func (d *Device) header(cmd byte, addr uint16) {
	d.tx[0], d.tx[1], d.tx[2] = cmd, byte(addr>>8), byte(addr)
}

// Write enables writes and stores data at addr.
func (d *Device) Write(addr uint16, data []byte) error {
	if err := checkRange("mram.write", addr, len(data)); err != nil {
		return err
	}
	if err := d.WriteEnable(); err != nil {
		return err
	}
	for len(data) > 0 {
		d.header(cmdWrite, addr)
		n := copy(d.tx[headerLen:], data)
		if err := d.frame(headerLen + n); err != nil {
			return err
		}
		addr += uint16(n)
		data = data[n:]
	}
	return nil
}

func (d *Device) Read(addr uint16, data []byte) error {
	if err := checkRange("mram.read", addr, len(data)); err != nil {
		return err
	}
	for len(data) > 0 {
		n := min(len(data), maxChunk)
		d.header(cmdRead, addr)
		clear(d.tx[headerLen : headerLen+n])
		if err := d.frame(headerLen + n); err != nil {
			return err
		}
		copy(data, d.rx[headerLen:headerLen+n])
		addr += uint16(n)
		data = data[n:]
	}
	return nil
}
