package host

import (
	"periph.io/x/conn/v3"
	"tinygo.org/x/drivers"
)

var _ drivers.SPI = (*SPI)(nil)

// SPI adapts a periph connection to drivers.SPI.
type SPI struct {
	c   conn.Conn
	buf []byte
}

func NewSPI(c conn.Conn) *SPI { return &SPI{c: c} }

// Tx runs one full-duplex frame. periph wants equal lengths, so a short
// side is padded from scratch.
func (s *SPI) Tx(w, r []byte) error {
	n := max(len(w), len(r))
	if n == 0 {
		return nil
	}
	if len(w) == n && len(r) == n {
		return s.c.Tx(w, r)
	}
	if cap(s.buf) < 2*n {
		s.buf = make([]byte, 2*n)
	}
	tx, rx := s.buf[:n], s.buf[n:2*n]
	clear(tx)
	copy(tx, w)
	if err := s.c.Tx(tx, rx); err != nil {
		return err
	}
	copy(r, rx)
	return nil
}

// Transfer writes one byte and returns the byte clocked in.
func (s *SPI) Transfer(b byte) (byte, error) {
	var w, r [1]byte
	w[0] = b
	err := s.c.Tx(w[:], r[:])
	return r[0], err
}
