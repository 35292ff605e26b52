package provisions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	assert := assert.New(t)

	for _, c := range []struct {
		in       string
		decimals int32
		out      uint64
	}{
		{"0", 8, 0},
		{"1", 8, 100000000},
		{"12.5", 2, 1250},
		{" 0.00000001 ", 8, 1},
		{"18446744073709551615", 0, 18446744073709551615},
	} {
		v, err := ParseAmount(c.in, c.decimals)
		require.NoError(t, err, c.in)
		assert.Equal(c.out, v, c.in)
	}

	for _, in := range []string{"-1", "0.001", "18446744073709551616", "abc", ""} {
		_, err := ParseAmount(in, 2)
		assert.ErrorIs(err, ErrMalformedLedger, in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("12.50", FormatAmount(1250, 2))
	assert.Equal("0.00000001", FormatAmount(1, 8))
	assert.Equal("7", FormatAmount(7, 0))

	c, err := NewCustomer("a@example.com", "3.25", 2)
	require.NoError(t, err)
	assert.Equal(uint64(325), c.Balance)
	_, err = NewCustomer("a@example.com", "3.255", 2)
	assert.ErrorIs(err, ErrMalformedLedger)
}
