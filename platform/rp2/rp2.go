//go:build rp2040

// Package rp2 binds the click drivers to RP2040 peripherals.
package rp2

import (
	"context"
	"device/arm"
	"machine"
	"runtime/interrupt"

	"clickcode-go/drivers/c10x10rgb"
	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"
	"clickcode-go/x/ringuart"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// RxRing is the receive ring size of every UART port.
const RxRing = 512

// UART configures uart0 or uart1 and returns it as a drivers.UART whose
// receive side is fed by a goroutine until ctx is done.
func UART(ctx context.Context, n int, baud uint32, tx, rx machine.Pin) (*ringuart.Port, error) {
	var hw *uartx.UART
	switch n {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, errcode.New(errcode.InvalidParams, "rp2.uart", "no such uart")
	}
	// Defaults inside uartx apply to zero fields.
	if err := hw.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, err
	}
	p := ringuart.New(RxRing, hw)
	go p.Pump(ctx, hw, 64)
	return p, nil
}

// I2C configures i2c0 or i2c1. machine.I2C already satisfies drivers.I2C.
func I2C(n int, sda, scl machine.Pin, hz uint32) (drivers.I2C, error) {
	var hw *machine.I2C
	switch n {
	case 0:
		hw = machine.I2C0
	case 1:
		hw = machine.I2C1
	default:
		return nil, errcode.New(errcode.InvalidParams, "rp2.i2c", "no such i2c")
	}
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{SCL: scl, SDA: sda, Frequency: hz}); err != nil {
		return nil, err
	}
	return hw, nil
}

// Output configures p as a push-pull output at the given initial level.
func Output(p machine.Pin, initial bool) pins.Output {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(initial)
	return p.Set
}

// Input configures p as an input with the given pull (-1 down, 0 none, 1 up).
func Input(p machine.Pin, pull int) pins.Input {
	mode := machine.PinInput
	switch {
	case pull > 0:
		mode = machine.PinInputPullup
	case pull < 0:
		mode = machine.PinInputPulldown
	}
	p.Configure(machine.PinConfig{Mode: mode})
	return p.Get
}

var _ c10x10rgb.Timing = (*PulseTiming)(nil)

// PulseTiming bit-bangs the 800 kHz one-wire LED protocol on a pin.
// Each bit runs with interrupts masked.
type PulseTiming struct {
	pin                machine.Pin
	t0h, t0l, t1h, t1l uint32 // spin iterations
}

// cyclesPerSpin is the measured cost of one spin iteration on Cortex-M0+.
const cyclesPerSpin = 5

func NewPulseTiming(pin machine.Pin) *PulseTiming {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	mhz := machine.CPUFrequency() / 1_000_000
	iters := func(ns uint32) uint32 { return ns * mhz / 1000 / cyclesPerSpin }
	return &PulseTiming{
		pin: pin,
		t0h: iters(400), t0l: iters(850),
		t1h: iters(800), t1l: iters(450),
	}
}

func (t *PulseTiming) LogicZero() { t.pulse(t.t0h, t.t0l) }
func (t *PulseTiming) LogicOne()  { t.pulse(t.t1h, t.t1l) }

func (t *PulseTiming) pulse(high, low uint32) {
	state := interrupt.Disable()
	t.pin.High()
	spin(high)
	t.pin.Low()
	spin(low)
	interrupt.Restore(state)
}

func spin(n uint32) {
	for i := uint32(0); i < n; i++ {
		arm.Asm("nop")
	}
}
