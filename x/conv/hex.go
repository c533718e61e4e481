package conv

const hexd = "0123456789ABCDEF"

// AppendHex8 appends b as two uppercase hex digits (NMEA checksum form).
func AppendHex8(dst []byte, b byte) []byte {
	return append(dst, hexd[b>>4], hexd[b&0x0F])
}

// ParseHex8 decodes two hex digits (either case). ok is false on any
// non-hex character.
func ParseHex8(hi, lo byte) (v byte, ok bool) {
	h, ok1 := nibble(hi)
	l, ok2 := nibble(lo)
	return h<<4 | l, ok1 && ok2
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
