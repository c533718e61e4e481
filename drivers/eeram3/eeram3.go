// Package eeram3 drives the EERAM 3 click (Microchip 48LM01): 128 KiB of SPI
// SRAM shadowed by EEPROM, with CRC-protected secure page transfers.
package eeram3

import (
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

const (
	Size     = 128 * 1024
	PageSize = 64
)

const (
	cmdWREN        = 0x06
	cmdWRDI        = 0x04
	cmdWrite       = 0x02
	cmdRead        = 0x03
	cmdSecureWrite = 0x12
	cmdSecureRead  = 0x13
	cmdRDSR        = 0x05
	cmdWRSR        = 0x01
	cmdStore       = 0x08
	cmdRecall      = 0x09
	cmdHibernate   = 0xB9

	headerLen = 4
	maxChunk  = 256
)

// Status register bits.
const (
	StatusBusy     Status = 0x01
	StatusWEL      Status = 0x02
	StatusBP       Status = 0x0C
	StatusSWM      Status = 0x10
	StatusASE      Status = 0x40
	statusWritable        = StatusBP | StatusASE
)

type Status uint8

func (s Status) Busy() bool              { return s&StatusBusy != 0 }
func (s Status) WriteEnabled() bool      { return s&StatusWEL != 0 }
func (s Status) BlockProtect() uint8     { return uint8(s&StatusBP) >> 2 }
func (s Status) SecureWriteFailed() bool { return s&StatusSWM != 0 }
func (s Status) AutoStore() bool         { return s&StatusASE != 0 }

type Config struct {
	CS pins.Output
	// PollAttempts bounds the RDY wait after store, recall and secure writes.
	PollAttempts int
	PollInterval time.Duration
	Sleep        func(time.Duration)
}

func DefaultConfig() Config {
	return Config{PollAttempts: 100, PollInterval: time.Millisecond, Sleep: time.Sleep}
}

type Device struct {
	spi drivers.SPI
	cs  pins.Output
	cfg Config

	tx [headerLen + maxChunk]byte
	rx [headerLen + maxChunk]byte
}

func New(spi drivers.SPI, cfg Config) *Device {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Millisecond
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	d := &Device{spi: spi, cs: cfg.CS, cfg: cfg}
	d.cs.High()
	return d
}

// frame clocks tx[:n] with chip select held low.
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

func (d *Device) header(cmd byte, addr uint32) {
	d.tx[0] = cmd
	d.tx[1] = byte(addr >> 16)
	d.tx[2] = byte(addr >> 8)
	d.tx[3] = byte(addr)
}

func (d *Device) WriteEnable() error  { return d.command(cmdWREN) }
func (d *Device) WriteDisable() error { return d.command(cmdWRDI) }

func (d *Device) ReadStatus() (Status, error) {
	d.tx[0], d.tx[1] = cmdRDSR, 0
	if err := d.frame(2); err != nil {
		return 0, err
	}
	return Status(d.rx[1]), nil
}

// WriteStatus sets the BP and ASE bits.
func (d *Device) WriteStatus(s Status) error {
	if err := d.WriteEnable(); err != nil {
		return err
	}
	d.tx[0], d.tx[1] = cmdWRSR, byte(s&statusWritable)
	if err := d.frame(2); err != nil {
		return err
	}
	return d.waitReady("eeram3.write_status")
}

func checkRange(op string, addr uint32, n int) error {
	if uint64(addr)+uint64(n) > Size {
		return errcode.New(errcode.InvalidParams, op, "outside memory")
	}
	return nil
}

// Write stores data at addr.
func (d *Device) Write(addr uint32, data []byte) error {
	if err := checkRange("eeram3.write", addr, len(data)); err != nil {
		return err
	}
	for len(data) > 0 {
		if err := d.WriteEnable(); err != nil {
			return err
		}
		d.header(cmdWrite, addr)
		n := copy(d.tx[headerLen:], data)
		if err := d.frame(headerLen + n); err != nil {
			return err
		}
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// Read fills data from addr.
func (d *Device) Read(addr uint32, data []byte) error {
	if err := checkRange("eeram3.read", addr, len(data)); err != nil {
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
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// SecureWrite writes one page followed by its CRC. The device verifies the
// CRC and reports a mismatch through the SWM status bit.
func (d *Device) SecureWrite(addr uint32, page *[PageSize]byte) error {
	if addr%PageSize != 0 {
		return errcode.New(errcode.InvalidParams, "eeram3.secure_write", "address not page aligned")
	}
	if err := checkRange("eeram3.secure_write", addr, PageSize); err != nil {
		return err
	}
	if err := d.WriteEnable(); err != nil {
		return err
	}
	d.header(cmdSecureWrite, addr)
	copy(d.tx[headerLen:], page[:])
	crc := CRC16(page[:])
	d.tx[headerLen+PageSize] = byte(crc >> 8)
	d.tx[headerLen+PageSize+1] = byte(crc)
	if err := d.frame(headerLen + PageSize + 2); err != nil {
		return err
	}
	if err := d.waitReady("eeram3.secure_write"); err != nil {
		return err
	}
	s, err := d.ReadStatus()
	if err != nil {
		return err
	}
	if s.SecureWriteFailed() {
		return errcode.New(errcode.ChecksumError, "eeram3.secure_write", "device rejected page")
	}
	return nil
}

// SecureRead reads one page and verifies the trailing CRC.
func (d *Device) SecureRead(addr uint32) ([PageSize]byte, error) {
	var page [PageSize]byte
	if addr%PageSize != 0 {
		return page, errcode.New(errcode.InvalidParams, "eeram3.secure_read", "address not page aligned")
	}
	if err := checkRange("eeram3.secure_read", addr, PageSize); err != nil {
		return page, err
	}
	d.header(cmdSecureRead, addr)
	clear(d.tx[headerLen : headerLen+PageSize+2])
	if err := d.frame(headerLen + PageSize + 2); err != nil {
		return page, err
	}
	copy(page[:], d.rx[headerLen:])
	got := uint16(d.rx[headerLen+PageSize])<<8 | uint16(d.rx[headerLen+PageSize+1])
	if got != CRC16(page[:]) {
		return page, errcode.New(errcode.ChecksumError, "eeram3.secure_read", "crc mismatch")
	}
	return page, nil
}

// Store copies SRAM to EEPROM.
func (d *Device) Store() error {
	if err := d.command(cmdStore); err != nil {
		return err
	}
	return d.waitReady("eeram3.store")
}

// Recall copies EEPROM to SRAM.
func (d *Device) Recall() error {
	if err := d.command(cmdRecall); err != nil {
		return err
	}
	return d.waitReady("eeram3.recall")
}

// Hibernate enters the lowest power state; Wake leaves it.
func (d *Device) Hibernate() error { return d.command(cmdHibernate) }

// Wake pulses chip select and waits for the device to come back.
func (d *Device) Wake() error {
	d.cs.Low()
	d.cfg.Sleep(d.cfg.PollInterval)
	d.cs.High()
	return d.waitReady("eeram3.wake")
}

// SetAutoStore toggles ASE, keeping the block protection bits.
func (d *Device) SetAutoStore(on bool) error {
	s, err := d.ReadStatus()
	if err != nil {
		return err
	}
	if on {
		s |= StatusASE
	} else {
		s &^= StatusASE
	}
	return d.WriteStatus(s)
}

func (d *Device) waitReady(op string) error {
	for i := 0; i < d.cfg.PollAttempts; i++ {
		s, err := d.ReadStatus()
		if err != nil {
			return err
		}
		if !s.Busy() {
			return nil
		}
		d.cfg.Sleep(d.cfg.PollInterval)
	}
	return errcode.New(errcode.Timeout, op, "device busy")
}

// CRC16 is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF, no reflection,
// no final XOR). This raw value is what the 48LM01 sends and checks after
// a secure page. "123456789" gives 0x29B1. The 0x96DC quoted for the part
// is the same value after XOR with 0xBF6D and never goes on the wire.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
