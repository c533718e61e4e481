// Package simbus simulates the serial buses and GPIO lines the click drivers
// talk to, so every driver can be exercised on the host.
package simbus

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// ErrNoAck is returned for transactions addressed to an absent device.
var ErrNoAck = errors.New("simbus: no ack")

var _ drivers.I2C = (*I2C)(nil)

// Tx is one recorded I2C transaction.
type Tx struct {
	Addr uint16
	W, R []byte
}

// I2C is a simulated I2C bus with devices attached by address.
type I2C struct {
	mu   sync.Mutex
	devs map[uint16]*Device
	Log  []Tx
}

func NewI2C() *I2C {
	return &I2C{devs: make(map[uint16]*Device)}
}

// Attach registers d at addr and returns it.
func (b *I2C) Attach(addr uint16, d *Device) *Device {
	b.mu.Lock()
	b.devs[addr] = d
	b.mu.Unlock()
	return d
}

// Detach removes the device at addr; later transactions NACK.
func (b *I2C) Detach(addr uint16) {
	b.mu.Lock()
	delete(b.devs, addr)
	b.mu.Unlock()
}

func (b *I2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	d := b.devs[addr]
	b.Log = append(b.Log, Tx{Addr: addr, W: append([]byte(nil), w...), R: r})
	b.mu.Unlock()
	if d == nil {
		return ErrNoAck
	}
	return d.tx(w, r)
}

// Writes returns the write payloads sent to addr, in order.
func (b *I2C) Writes(addr uint16) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out [][]byte
	for _, t := range b.Log {
		if t.Addr == addr && len(t.W) > 0 {
			out = append(out, t.W)
		}
	}
	return out
}

// Device is a register-file target. With Width 1 every register is one byte
// and the pointer advances per byte. With Width 2 registers are 16-bit words
// sent low byte first unless BigEndian is set.
type Device struct {
	mu sync.Mutex

	Regs  [256]uint16
	Width int
	// BigEndian selects MSB-first word transfer.
	BigEndian bool
	// AutoInc strips these bits from the register address (e.g. 0x80).
	AutoInc byte
	// Err, when set, fails every transaction.
	Err error
	// Hook sees every transaction first; returning true skips the register
	// file. It runs with the device locked, so it must use Regs directly.
	Hook func(w, r []byte) (bool, error)

	ptr byte
}

// Byte creates an 8-bit register file.
func Byte() *Device { return &Device{Width: 1} }

// Word creates a 16-bit register file.
func Word(bigEndian bool) *Device { return &Device{Width: 2, BigEndian: bigEndian} }

// Set stores register values starting at reg.
func (d *Device) Set(reg byte, vals ...uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, v := range vals {
		d.Regs[reg+byte(i)] = v
	}
}

// Get returns the register value at reg.
func (d *Device) Get(reg byte) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Regs[reg]
}

func (d *Device) tx(w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if d.Hook != nil {
		if done, err := d.Hook(w, r); done || err != nil {
			return err
		}
	}
	if len(w) > 0 {
		d.ptr = w[0] &^ d.AutoInc
		d.write(w[1:])
	}
	d.read(r)
	return nil
}

func (d *Device) write(p []byte) {
	if d.Width == 2 {
		for len(p) >= 2 {
			d.Regs[d.ptr] = d.word(p[0], p[1])
			d.ptr++
			p = p[2:]
		}
		return
	}
	for _, v := range p {
		d.Regs[d.ptr] = uint16(v)
		d.ptr++
	}
}

func (d *Device) read(r []byte) {
	if d.Width == 2 {
		for i := 0; i+1 < len(r); i += 2 {
			v := d.Regs[d.ptr]
			if d.BigEndian {
				r[i], r[i+1] = byte(v>>8), byte(v)
			} else {
				r[i], r[i+1] = byte(v), byte(v>>8)
			}
			d.ptr++
		}
		return
	}
	for i := range r {
		r[i] = byte(d.Regs[d.ptr])
		d.ptr++
	}
}

func (d *Device) word(a, b byte) uint16 {
	if d.BigEndian {
		return uint16(a)<<8 | uint16(b)
	}
	return uint16(b)<<8 | uint16(a)
}
