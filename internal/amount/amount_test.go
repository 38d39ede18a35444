package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     uint64
	}{
		{"1", 9, 1_000_000_000},
		{"0.5", 9, 500_000_000},
		{"12.3456", 2, 1234},
		{"1.", 6, 1_000_000},
		{".25", 6, 250_000},
		{"0", 6, 0},
		{"000123", 0, 123},
		{"18446744073709551615", 0, 18446744073709551615},
		{" 2.5 ", 6, 2_500_000},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in, tt.decimals)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", ".", "1.2.3", "-1", "1e9", "abc", "1,5", "+2"} {
		_, err := Parse(in, 6)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}

	_, err := Parse("18446744073709551616", 0)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = Parse("18446744074", 9)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestParseDecimal(t *testing.T) {
	for _, in := range []string{"0", "0.0", "000", ".0", "0."} {
		d, err := ParseDecimal(in)
		require.NoError(t, err, in)
		assert.True(t, d.IsZero(), in)
	}

	d, err := ParseDecimal("0.0000001")
	require.NoError(t, err)
	assert.False(t, d.IsZero())
	assert.Equal(t, "0.0000001", d.String())

	_, err = ParseDecimal("1.2.3")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1", Format(1_000_000_000, 9))
	assert.Equal(t, "0.5", Format(500_000_000, 9))
	assert.Equal(t, "90.702432", Format(90_702_432, 6))
	assert.Equal(t, "0", Format(0, 6))
	assert.Equal(t, "0.000001", Format(1, 6))
	assert.Equal(t, "42", Format(42, 0))
}

func TestParseFormat_RoundTrip(t *testing.T) {
	for _, s := range []string{"1", "0.5", "123.456789", "0.000000001"} {
		raw, err := Parse(s, 9)
		require.NoError(t, err)
		assert.Equal(t, s, Format(raw, 9))
	}
}
