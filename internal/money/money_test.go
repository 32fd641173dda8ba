package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"20", 2000},
		{"4.99", 499},
		{"19.995", 2000},
		{"19.994", 1999},
		{"0.005", 1},
		{"192.00", 19200},
	}
	for _, tc := range cases {
		got, err := MinorUnits(decimal.RequireFromString(tc.in))
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestMinorUnitsRejectsNonPositive(t *testing.T) {
	for _, in := range []string{"0", "-1", "0.004"} {
		_, err := MinorUnits(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFromFloat(t *testing.T) {
	d, err := FromFloat(57)
	require.NoError(t, err)
	assert.Equal(t, "57.00", d.StringFixed(2))

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -3.5} {
		_, err := FromFloat(f)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, "24.99", FromMinorUnits(2499).StringFixed(2))
}
