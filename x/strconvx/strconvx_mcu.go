//go:build rp2040

package strconvx

import "errors"

var (
	ErrSyntax = errors.New("strconvx: invalid syntax")
	ErrRange  = errors.New("strconvx: value out of range")
)

// ParseUint accepts bases 2..36, or 0 for a 0x/0o/0b prefix.
func ParseUint(b []byte, base, bitSize int) (uint64, error) {
	if base == 0 {
		base, b = detectBase(b)
	}
	if base < 2 || base > 36 || len(b) == 0 {
		return 0, ErrSyntax
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	limit := uint64(1)<<bitSize - 1
	if bitSize == 64 {
		limit = ^uint64(0)
	}
	var v uint64
	for _, c := range b {
		var d byte
		switch {
		case '0' <= c && c <= '9':
			d = c - '0'
		case 'a' <= c && c <= 'z':
			d = c - 'a' + 10
		case 'A' <= c && c <= 'Z':
			d = c - 'A' + 10
		default:
			return 0, ErrSyntax
		}
		if int(d) >= base {
			return 0, ErrSyntax
		}
		if v > (limit-uint64(d))/uint64(base) {
			return 0, ErrRange
		}
		v = v*uint64(base) + uint64(d)
	}
	return v, nil
}

func ParseInt(b []byte, base, bitSize int) (int64, error) {
	neg := false
	if len(b) > 0 && (b[0] == '+' || b[0] == '-') {
		neg = b[0] == '-'
		b = b[1:]
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	u, err := ParseUint(b, base, 64)
	if err != nil {
		return 0, err
	}
	lim := uint64(1) << (bitSize - 1)
	if neg {
		if u > lim {
			return 0, ErrRange
		}
		return -int64(u), nil
	}
	if u >= lim {
		return 0, ErrRange
	}
	return int64(u), nil
}

func detectBase(b []byte) (int, []byte) {
	if len(b) >= 2 && b[0] == '0' {
		switch b[1] {
		case 'x', 'X':
			return 16, b[2:]
		case 'b', 'B':
			return 2, b[2:]
		case 'o', 'O':
			return 8, b[2:]
		}
	}
	return 10, b
}

// ParseFloat reads [+-]digits[.digits]. It is not correctly rounded.
func ParseFloat(b []byte, _ int) (float64, error) {
	if len(b) == 0 {
		return 0, ErrSyntax
	}
	neg := false
	if b[0] == '+' || b[0] == '-' {
		neg = b[0] == '-'
		b = b[1:]
	}
	var (
		v      float64
		i      int
		digits int
	)
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		v = v*10 + float64(b[i]-'0')
		digits++
	}
	if i < len(b) && b[i] == '.' {
		i++
		scale := 1.0
		var frac float64
		for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
			frac = frac*10 + float64(b[i]-'0')
			scale *= 10
			digits++
		}
		v += frac / scale
	}
	if i != len(b) || digits == 0 {
		return 0, ErrSyntax
	}
	if neg {
		v = -v
	}
	return v, nil
}
