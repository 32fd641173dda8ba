package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("amount must be a finite positive number")

var hundred = decimal.NewFromInt(100)

// FromFloat converts a float price (e.g. from a YAML seed) into a decimal, rejecting NaN, Inf and non-positive values.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	d := decimal.NewFromFloat(f)
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return d, nil
}

// MinorUnits converts an amount to integer cents using round-half-up.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	return cents.IntPart(), nil
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
