package mathx

import "golang.org/x/exp/constraints"

// ScaleU8 scales an 8-bit channel by level/256 using a shift, so 255 does
// not pass a channel through unchanged (255*255>>8 == 254).
func ScaleU8(v, level uint8) uint8 {
	return uint8((uint16(v) * uint16(level)) >> 8)
}

// MulDiv returns v*num/den with a 64-bit intermediate. den == 0 yields 0.
func MulDiv[T constraints.Integer](v, num, den T) T {
	if den == 0 {
		return 0
	}
	return T(int64(v) * int64(num) / int64(den))
}

// RoundDiv returns floor((a + b/2)/b), classic rounding for positives.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// SignExtend interprets the low bits of v as a two's complement number.
func SignExtend(v uint16, bits uint) int16 {
	shift := 16 - bits
	return int16(v<<shift) >> shift
}
