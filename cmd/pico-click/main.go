//go:build rp2040

// pico-click drives the one-wire and UART clicks from a Pico on a
// two-socket mikroBUS shield: the 10x10 RGB matrix in socket 1 scrolls a
// banner while the Smart Card 2 click in socket 2 is polled for its slot.
package main

import (
	"context"
	"machine"
	"time"

	"clickcode-go/drivers/c10x10rgb"
	"clickcode-go/drivers/smartcard2"
	"clickcode-go/errcode"
	"clickcode-go/platform/rp2"
)

const (
	matrixPin = machine.GP16
	cardTX    = machine.GP4
	cardRX    = machine.GP5
	cardReset = machine.GP20

	cardBaud   = 115200
	pollPeriod = 2 * time.Second
)

func main() {
	println("[pico-click] boot")
	time.Sleep(1500 * time.Millisecond)
	ctx := context.Background()

	matrix := c10x10rgb.New(rp2.NewPulseTiming(matrixPin), c10x10rgb.DefaultConfig())
	matrix.FillScreen(c10x10rgb.Off)

	uart, err := rp2.UART(ctx, 1, cardBaud, cardTX, cardRX)
	if err != nil {
		println("[pico-click] uart:", err.Error())
		return
	}
	cfg := smartcard2.DefaultConfig()
	cfg.Reset = rp2.Output(cardReset, true)
	card := smartcard2.New(uart, cfg)
	card.Reset()

	go banner(matrix)

	var reply smartcard2.Message
	last := -1
	for {
		err := card.Transceive(card.GetSlotStatus, &reply)
		switch {
		case err != nil:
			println("[pico-click] slot:", string(errcode.Of(err)))
		case reply.Type != smartcard2.TypeSlotStatus:
			println("[pico-click] unexpected reply", int(reply.Type))
		default:
			st := int(smartcard2.SlotICCStatus(&reply))
			if st != last {
				println("[pico-click] icc status", st, "error", int(smartcard2.SlotError(&reply)))
				last = st
			}
		}
		time.Sleep(pollPeriod)
	}
}

func banner(m *c10x10rgb.Device) {
	text := c10x10rgb.Text("CLICK ", c10x10rgb.Blue25, c10x10rgb.Off, c10x10rgb.HUp)
	for {
		m.DisplayString(text, 80*time.Millisecond)
	}
}
