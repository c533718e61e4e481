// Package bcd converts between binary values and packed binary-coded decimal
// as stored by RTC time and date registers.
package bcd

// FromDec packs a decimal value 0..99 into one BCD byte.
func FromDec(v uint8) uint8 {
	return (v/10)<<4 | v%10
}

// ToDec unpacks a BCD byte into its decimal value.
func ToDec(b uint8) uint8 {
	return (b>>4)*10 + b&0x0F
}

// Valid reports whether both nibbles of b are decimal digits.
func Valid(b uint8) bool {
	return b>>4 <= 9 && b&0x0F <= 9
}
