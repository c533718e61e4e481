package strconvx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUint(t *testing.T) {
	for _, c := range []struct {
		s    string
		base int
		bits int
		want uint64
	}{
		{"08", 10, 8, 8},
		{"255", 10, 8, 255},
		{"0x2A", 0, 64, 42},
		{"0b1010", 0, 64, 10},
		{"ff", 16, 16, 255},
		{"18446744073709551615", 10, 64, ^uint64(0)},
	} {
		got, err := ParseUint([]byte(c.s), c.base, c.bits)
		require.NoError(t, err, c.s)
		assert.Equal(t, c.want, got, c.s)
	}
}

func TestParseUintErrors(t *testing.T) {
	for _, c := range []struct {
		s    string
		base int
		bits int
	}{
		{"", 10, 8},
		{"1a", 10, 8},
		{"256", 10, 8},
		{"2", 2, 64},
		{"0x", 0, 64},
		{"18446744073709551616", 10, 64},
	} {
		_, err := ParseUint([]byte(c.s), c.base, c.bits)
		assert.Error(t, err, c.s)
	}
}

func TestParseInt(t *testing.T) {
	for _, c := range []struct {
		s    string
		bits int
		want int64
	}{
		{"+10", 64, 10},
		{"-10", 64, -10},
		{"-128", 8, -128},
		{"127", 8, 127},
	} {
		got, err := ParseInt([]byte(c.s), 10, c.bits)
		require.NoError(t, err, c.s)
		assert.Equal(t, c.want, got, c.s)
	}
	_, err := ParseInt([]byte("128"), 10, 8)
	assert.Error(t, err)
	_, err = ParseInt([]byte("18446744073709551615"), 10, 64)
	assert.Error(t, err)
}

func TestParseFloat(t *testing.T) {
	for _, c := range []struct {
		s    string
		want float64
	}{
		{"4807.038", 4807.038},
		{"01131.000", 1131},
		{"-0.5", -0.5},
		{"123519", 123519},
		{"545.4", 545.4},
	} {
		got, err := ParseFloat([]byte(c.s), 64)
		require.NoError(t, err, c.s)
		assert.InDelta(t, c.want, got, 1e-9, c.s)
	}
	for _, s := range []string{"", "12.3.4", "-", "1e"} {
		_, err := ParseFloat([]byte(s), 64)
		assert.Error(t, err, s)
	}
}
