package simbus

import (
	"sync"

	"tinygo.org/x/drivers"
)

var _ drivers.SPI = (*SPI)(nil)

// SPI is a simulated SPI target. Every Tx is recorded as one frame; Respond
// fills the MISO bytes for the frame being clocked.
type SPI struct {
	mu     sync.Mutex
	Frames [][]byte
	// Respond receives the MOSI bytes of the frame (zero-padded to the
	// transfer length) and fills miso, which has the same length.
	Respond func(mosi, miso []byte)
	Err     error
}

func (s *SPI) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	n := max(len(w), len(r))
	mosi := make([]byte, n)
	copy(mosi, w)
	s.Frames = append(s.Frames, mosi)
	miso := make([]byte, n)
	if s.Respond != nil {
		s.Respond(mosi, miso)
	}
	copy(r, miso)
	return nil
}

func (s *SPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Tx([]byte{b}, r[:])
	return r[0], err
}

// Last returns the most recent frame, or nil.
func (s *SPI) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Frames) == 0 {
		return nil
	}
	return s.Frames[len(s.Frames)-1]
}

// Reset clears recorded frames.
func (s *SPI) Reset() {
	s.mu.Lock()
	s.Frames = nil
	s.mu.Unlock()
}
