package shmring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOrderAcrossWrap pushes a long stream through a small ring in uneven
// producer/consumer steps so that both copy spans wrap often.
func TestOrderAcrossWrap(t *testing.T) {
	r := New(64)

	const N = 2000
	src := make([]byte, N)
	for i := range src {
		src[i] = byte(i)
	}

	p := src
	dst := make([]byte, 0, N)
	for len(dst) < N {
		if len(p) > 0 {
			step := min(7, len(p))
			p = p[r.TryWriteFrom(p[:step]):]
		}
		var tmp [5]byte
		n := r.TryReadInto(tmp[:])
		dst = append(dst, tmp[:n]...)
	}
	require.Equal(t, src, dst)
}

func TestReadableWritableEdges(t *testing.T) {
	r := New(8)
	select {
	case <-r.Readable():
		t.Fatal("unexpected Readable on empty ring")
	default:
	}
	require.Equal(t, 3, r.TryWriteFrom([]byte{1, 2, 3}))
	select {
	case <-r.Readable(): // should fire once
	default:
		t.Fatal("expected Readable")
	}
	select {
	case <-r.Readable(): // coalesced; no second token yet
		t.Fatal("unexpected extra Readable")
	default:
	}

	// Fill to capacity, then read once: Writable fires on the full edge.
	require.Equal(t, 5, r.TryWriteFrom([]byte{4, 5, 6, 7, 8, 9}))
	assert.Equal(t, 0, r.Space())
	r.TryReadInto(make([]byte, 2))
	select {
	case <-r.Writable():
	default:
		t.Fatal("expected Writable after draining a full ring")
	}
}

func TestDiscard(t *testing.T) {
	r := New(16)
	r.TryWriteFrom([]byte("noise"))
	assert.Equal(t, 5, r.Discard())
	assert.Equal(t, 0, r.Available())
	assert.Equal(t, 16, r.Space())
}
