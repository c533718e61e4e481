package bcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTripRanges(t *testing.T) {
	ranges := map[string][2]uint8{
		"seconds": {0, 59},
		"minutes": {0, 59},
		"hours":   {0, 23},
		"day":     {1, 31},
		"month":   {1, 12},
		"year":    {0, 99},
	}
	for name, r := range ranges {
		t.Run(name, func(t *testing.T) {
			for v := r[0]; v <= r[1]; v++ {
				b := FromDec(v)
				assert.True(t, Valid(b), "value %d", v)
				assert.Equal(t, v, ToDec(b), "value %d", v)
				assert.Equal(t, b, FromDec(ToDec(b)), "bcd %#x", b)
			}
		})
	}
}

func TestKnownValues(t *testing.T) {
	assert.Equal(t, uint8(0x59), FromDec(59))
	assert.Equal(t, uint8(0x23), FromDec(23))
	assert.Equal(t, uint8(12), ToDec(0x12))
	assert.False(t, Valid(0x1A))
	assert.False(t, Valid(0xA1))
}
