// Package eeram drives the EERAM click (Microchip 47L16): 2 KiB of SRAM that
// is copied to EEPROM on power loss (AutoStore) or on command.
//
// The chip answers on two I2C addresses: the SRAM array and a control
// register block. During STORE and RECALL it does not acknowledge the
// control address, so the driver polls it with a bounded number of attempts.
package eeram

import (
	"time"

	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

const (
	SRAMAddress    = 0x50
	ControlAddress = 0x18
	Size           = 2048
)

const (
	regStatus  = 0x00
	regCommand = 0x55

	cmdStore  = 0x33
	cmdRecall = 0xDD

	statusAM    = 0x80
	statusBP    = 0x1C
	statusASE   = 0x02
	statusEvent = 0x01

	maxChunk = 254
)

// Status is the control STATUS register.
type Status uint8

func (s Status) ArrayModified() bool { return s&statusAM != 0 }
func (s Status) AutoStore() bool     { return s&statusASE != 0 }
func (s Status) Event() bool         { return s&statusEvent != 0 }

// BlockProtect returns the BP2:0 field.
func (s Status) BlockProtect() uint8 { return uint8(s&statusBP) >> 2 }

type Config struct {
	SRAMAddress    uint16
	ControlAddress uint16
	// PollAttempts bounds the wait for STORE/RECALL completion.
	PollAttempts int
	PollInterval time.Duration
	Sleep        func(time.Duration)
}

func DefaultConfig() Config {
	return Config{
		SRAMAddress:    SRAMAddress,
		ControlAddress: ControlAddress,
		PollAttempts:   50,
		PollInterval:   time.Millisecond,
		Sleep:          time.Sleep,
	}
}

type Device struct {
	bus drivers.I2C
	cfg Config
	w   [2 + maxChunk]byte
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.SRAMAddress == 0 {
		cfg.SRAMAddress = SRAMAddress
	}
	if cfg.ControlAddress == 0 {
		cfg.ControlAddress = ControlAddress
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Millisecond
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{bus: bus, cfg: cfg}
}

func checkRange(op string, addr uint16, n int) error {
	if int(addr)+n > Size {
		return errcode.New(errcode.InvalidParams, op, "outside SRAM")
	}
	return nil
}

// Write stores data at addr, split into bus-sized chunks.
func (d *Device) Write(addr uint16, data []byte) error {
	if err := checkRange("eeram.write", addr, len(data)); err != nil {
		return err
	}
	for len(data) > 0 {
		d.w[0], d.w[1] = byte(addr>>8), byte(addr)
		n := copy(d.w[2:], data)
		if err := d.bus.Tx(d.cfg.SRAMAddress, d.w[:2+n], nil); err != nil {
			return err
		}
		addr += uint16(n)
		data = data[n:]
	}
	return nil
}

// Read fills data from addr in one sequential read.
func (d *Device) Read(addr uint16, data []byte) error {
	if err := checkRange("eeram.read", addr, len(data)); err != nil {
		return err
	}
	d.w[0], d.w[1] = byte(addr>>8), byte(addr)
	return d.bus.Tx(d.cfg.SRAMAddress, d.w[:2], data)
}

// Status reads the control STATUS register.
func (d *Device) Status() (Status, error) {
	var r [1]byte
	d.w[0] = regStatus
	err := d.bus.Tx(d.cfg.ControlAddress, d.w[:1], r[:])
	return Status(r[0]), err
}

// WriteStatus writes the writable STATUS bits (BP and ASE).
func (d *Device) WriteStatus(s Status) error {
	d.w[0], d.w[1] = regStatus, byte(s)&(statusBP|statusASE)
	return d.bus.Tx(d.cfg.ControlAddress, d.w[:2], nil)
}

// SetAutoStore enables or disables the automatic power-loss store.
func (d *Device) SetAutoStore(on bool) error {
	s, err := d.Status()
	if err != nil {
		return err
	}
	if on {
		s |= statusASE
	} else {
		s &^= statusASE
	}
	if err := d.WriteStatus(s); err != nil {
		return err
	}
	return d.waitReady("eeram.set_auto_store")
}

// Store copies SRAM to EEPROM and waits for completion.
func (d *Device) Store() error { return d.command("eeram.store", cmdStore) }

// Recall copies EEPROM to SRAM and waits for completion.
func (d *Device) Recall() error { return d.command("eeram.recall", cmdRecall) }

func (d *Device) command(op string, cmd byte) error {
	d.w[0], d.w[1] = regCommand, cmd
	if err := d.bus.Tx(d.cfg.ControlAddress, d.w[:2], nil); err != nil {
		return err
	}
	return d.waitReady(op)
}

// waitReady polls the control address until it acknowledges.
func (d *Device) waitReady(op string) error {
	var r [1]byte
	for i := 0; i < d.cfg.PollAttempts; i++ {
		d.cfg.Sleep(d.cfg.PollInterval)
		if d.bus.Tx(d.cfg.ControlAddress, nil, r[:]) == nil {
			return nil
		}
	}
	return errcode.New(errcode.Timeout, op, "device busy")
}
