package ringuart

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanRx hands out queued chunks, blocking until ctx ends when empty.
type chanRx chan []byte

func (c chanRx) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	select {
	case b := <-c:
		return copy(buf, b), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestPumpFeedsRing(t *testing.T) {
	p := New(16, nil)
	rx := make(chanRx, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Pump(ctx, rx, 8) }()

	rx <- []byte("$GPGGA")
	require.Eventually(t, func() bool { return p.Buffered() == 6 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestPumpWaitsForSpace(t *testing.T) {
	p := New(4, nil)
	rx := make(chanRx, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Pump(ctx, rx, 8) }()

	rx <- []byte("abcdef")
	require.Eventually(t, func() bool { return p.Buffered() == 4 }, time.Second, time.Millisecond)

	buf := make([]byte, 4)
	n, _ := p.Read(buf)
	assert.Equal(t, "abcd", string(buf[:n]))
	require.Eventually(t, func() bool { return p.Buffered() == 2 }, time.Second, time.Millisecond)
	n, _ = p.Read(buf)
	assert.Equal(t, "ef", string(buf[:n]))
}

// brokenRx fails every receive at once.
type brokenRx struct{ calls atomic.Int32 }

func (b *brokenRx) RecvSomeContext(context.Context, []byte) (int, error) {
	b.calls.Add(1)
	return 0, errors.New("framing error")
}

func TestPumpBacksOffOnError(t *testing.T) {
	p := New(16, nil)
	rx := &brokenRx{}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := p.Pump(ctx, rx, 8)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, rx.calls.Load())
	assert.LessOrEqual(t, rx.calls.Load(), int32(20), "receive retried without pause")
	assert.Zero(t, p.Buffered())
}
