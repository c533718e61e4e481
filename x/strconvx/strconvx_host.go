//go:build !rp2040

package strconvx

import "strconv"

// On the host the field parsers delegate to strconv.

func ParseUint(b []byte, base, bitSize int) (uint64, error) {
	return strconv.ParseUint(string(b), base, bitSize)
}

func ParseInt(b []byte, base, bitSize int) (int64, error) {
	return strconv.ParseInt(string(b), base, bitSize)
}

func ParseFloat(b []byte, bitSize int) (float64, error) {
	return strconv.ParseFloat(string(b), bitSize)
}
