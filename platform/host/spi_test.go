package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
)

// loop echoes MOSI shifted by one byte and checks equal lengths.
type loop struct {
	frames [][]byte
	err    error
}

func (l *loop) String() string      { return "loop" }
func (l *loop) Duplex() conn.Duplex { return conn.Full }
func (l *loop) Tx(w, r []byte) error {
	if len(w) != len(r) {
		return errors.New("length mismatch")
	}
	l.frames = append(l.frames, append([]byte(nil), w...))
	for i := range r {
		r[i] = w[i] + 1
	}
	return l.err
}

func TestSPIEqualLengths(t *testing.T) {
	l := &loop{}
	s := NewSPI(l)
	r := make([]byte, 3)
	require.NoError(t, s.Tx([]byte{1, 2, 3}, r))
	assert.Equal(t, []byte{2, 3, 4}, r)
}

func TestSPIPadsShortSide(t *testing.T) {
	l := &loop{}
	s := NewSPI(l)

	require.NoError(t, s.Tx([]byte{0x05}, nil))
	assert.Equal(t, []byte{0x05}, l.frames[0])

	r := make([]byte, 3)
	require.NoError(t, s.Tx([]byte{0x03}, r))
	assert.Equal(t, []byte{0x03, 0x00, 0x00}, l.frames[1])
	assert.Equal(t, []byte{0x04, 0x01, 0x01}, r)

	require.NoError(t, s.Tx(nil, nil))
	assert.Len(t, l.frames, 2)
}

func TestSPITransfer(t *testing.T) {
	l := &loop{}
	s := NewSPI(l)
	b, err := s.Transfer(0x9F)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA0), b)

	l.err = errors.New("bus down")
	_, err = s.Transfer(0)
	assert.EqualError(t, err, "bus down")
}
