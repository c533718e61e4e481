// Package rstransceiver drives the RS Transceiver click, a multi-protocol
// RS-232/RS-485 transceiver whose personality is selected with GPIO lines.
package rstransceiver

import (
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

type Mode uint8

const (
	ModeRS232 Mode = iota
	ModeRS485Full
	ModeRS485Half
)

func (m Mode) String() string {
	switch m {
	case ModeRS232:
		return "rs232"
	case ModeRS485Full:
		return "rs485-full"
	case ModeRS485Half:
		return "rs485-half"
	}
	return "unknown"
}

type Config struct {
	// Mode high selects RS-485.
	Mode pins.Output
	// Duplex high selects half duplex.
	Duplex pins.Output
	// Slew high enables the 250 kbps slew-rate limit.
	Slew pins.Output
	// Term high connects the 120 ohm termination.
	Term pins.Output
	// Shdn is active low.
	Shdn pins.Output
	// DE enables the driver; RE is the active-low receiver enable.
	DE pins.Output
	RE pins.Output
	// TurnAround is held after a half-duplex write before releasing DE so
	// the last stop bit leaves the line.
	TurnAround time.Duration
	Sleep      func(time.Duration)
}

func DefaultConfig() Config {
	return Config{TurnAround: time.Millisecond, Sleep: time.Sleep}
}

type Device struct {
	uart drivers.UART
	cfg  Config
	mode Mode
}

func New(uart drivers.UART, cfg Config) *Device {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	d := &Device{uart: uart, cfg: cfg}
	d.cfg.Shdn.High()
	d.receive()
	return d
}

// DefaultCfg selects full-duplex RS-485 without slew limit or termination.
func (d *Device) DefaultCfg() error {
	d.SetSlewLimit(false)
	d.SetTermination(false)
	return d.SetMode(ModeRS485Full)
}

func (d *Device) SetMode(m Mode) error {
	switch m {
	case ModeRS232:
		d.cfg.Mode.Low()
		d.cfg.Duplex.Low()
	case ModeRS485Full:
		d.cfg.Mode.High()
		d.cfg.Duplex.Low()
	case ModeRS485Half:
		d.cfg.Mode.High()
		d.cfg.Duplex.High()
	default:
		return errcode.New(errcode.InvalidParams, "rstransceiver.set_mode", "mode")
	}
	d.mode = m
	d.receive()
	return nil
}

func (d *Device) Mode() Mode { return d.mode }

func (d *Device) Enable()   { d.cfg.Shdn.High() }
func (d *Device) Shutdown() { d.cfg.Shdn.Low() }

func (d *Device) SetSlewLimit(on bool)   { d.cfg.Slew.Set(on) }
func (d *Device) SetTermination(on bool) { d.cfg.Term.Set(on) }

// receive leaves the bus to other nodes in half duplex and enables both
// directions otherwise.
func (d *Device) receive() {
	if d.mode == ModeRS485Half {
		d.cfg.DE.Low()
	} else {
		d.cfg.DE.High()
	}
	d.cfg.RE.Low()
}

// SendData writes p. In half duplex the driver is enabled and the receiver
// disabled around the write.
func (d *Device) SendData(p []byte) (int, error) {
	if d.mode != ModeRS485Half {
		return d.uart.Write(p)
	}
	d.cfg.RE.High()
	d.cfg.DE.High()
	n, err := d.uart.Write(p)
	d.cfg.Sleep(d.cfg.TurnAround)
	d.receive()
	return n, err
}

// ReadData copies buffered bytes into p without blocking.
func (d *Device) ReadData(p []byte) (int, error) {
	if d.uart.Buffered() == 0 {
		return 0, nil
	}
	return d.uart.Read(p)
}
