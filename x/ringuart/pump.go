package ringuart

import (
	"context"
	"time"
)

// Receiver is the blocking receive side of a hardware UART such as
// uartx.UART.
type Receiver interface {
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// pumpSlice bounds each blocking receive so cancellation is noticed.
const pumpSlice = 250 * time.Millisecond

// pumpBackoff is the pause after a receive that failed before its slice
// ran out, so a broken UART does not spin.
const pumpBackoff = 10 * time.Millisecond

// Pump moves bytes from src into the receive ring until ctx is done.
// When the ring is full it waits for the consumer instead of dropping.
// It is meant to run in its own goroutine and returns ctx.Err().
func (p *Port) Pump(ctx context.Context, src Receiver, chunk int) error {
	if chunk <= 0 {
		chunk = 64
	}
	buf := make([]byte, chunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rctx, cancel := context.WithTimeout(ctx, pumpSlice)
		n, err := src.RecvSomeContext(rctx, buf)
		failed := n == 0 && err != nil && rctx.Err() == nil
		cancel()
		if failed {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pumpBackoff):
			}
			continue
		}

		b := buf[:n]
		for len(b) > 0 {
			b = b[p.Feed(b):]
			if len(b) == 0 {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.rx.Writable():
			}
		}
	}
}
