// Package ringuart provides a drivers.UART whose receive side is a shmring.
//
// A producer (interrupt handler, reader goroutine, or test script) feeds
// received bytes with Feed; the driver side sees the usual non-blocking
// Read/Buffered contract of machine.UART.
package ringuart

import (
	"bytes"
	"io"
	"sync"

	"clickcode-go/x/shmring"

	"tinygo.org/x/drivers"
)

var _ drivers.UART = (*Port)(nil)

// Port is an in-memory UART endpoint.
type Port struct {
	rx *shmring.Ring
	tx io.Writer

	mu   sync.Mutex
	sent bytes.Buffer // captured TX when no writer is attached

	// OnWrite, if set, is called with every chunk written by the driver.
	// Scripts use it to answer commands by calling Feed.
	OnWrite func(p *Port, b []byte)
}

// New creates a port with an rx ring of rxSize bytes (power of two).
// A nil tx captures written bytes, retrievable with Sent.
func New(rxSize int, tx io.Writer) *Port {
	return &Port{rx: shmring.New(rxSize), tx: tx}
}

// Read copies buffered bytes into b without blocking.
func (p *Port) Read(b []byte) (int, error) {
	return p.rx.TryReadInto(b), nil
}

// Buffered returns the number of received bytes waiting to be read.
func (p *Port) Buffered() int { return p.rx.Available() }

func (p *Port) Write(b []byte) (int, error) {
	var (
		n   int
		err error
	)
	if p.tx != nil {
		n, err = p.tx.Write(b)
	} else {
		p.mu.Lock()
		n, err = p.sent.Write(b)
		p.mu.Unlock()
	}
	if p.OnWrite != nil && n > 0 {
		p.OnWrite(p, b[:n])
	}
	return n, err
}

// Feed pushes received bytes into the port. It returns how many fitted.
func (p *Port) Feed(b []byte) int { return p.rx.TryWriteFrom(b) }

// FeedString is Feed for text protocols.
func (p *Port) FeedString(s string) int { return p.Feed([]byte(s)) }

// Readable signals the empty->non-empty edge of the receive ring.
func (p *Port) Readable() <-chan struct{} { return p.rx.Readable() }

// Space reports free room in the receive ring.
func (p *Port) Space() int { return p.rx.Space() }

// Flush drops any unread received bytes.
func (p *Port) Flush() { p.rx.Discard() }

// Sent returns and clears the captured TX bytes.
func (p *Port) Sent() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]byte(nil), p.sent.Bytes()...)
	p.sent.Reset()
	return out
}
