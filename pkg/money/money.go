package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a currency value in minor units (pesewas). All arithmetic inside
// the service happens on this fixed-point representation; decimal strings
// exist only at the HTTP and gateway boundaries.
type Amount int64

// Zero is the empty amount.
const Zero Amount = 0

var hundred = decimal.NewFromInt(100)

// Parse converts a major-unit decimal string ("3.50") into an Amount.
func Parse(value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return FromDecimal(d)
}

// FromDecimal converts a major-unit decimal into an Amount, rejecting values
// with sub-minor precision so rounding never happens silently.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Mul(hundred)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-minor precision", d.String())
	}
	return Amount(minor.IntPart()), nil
}

// MustParse is Parse for trusted literals (tests, seeds); it panics on error.
func MustParse(value string) Amount {
	a, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the major-unit decimal representation.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(a)).Div(hundred)
}

// String formats the amount as a major-unit decimal with two places.
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a < 0
}

// ClampMargin returns selling minus base, floored at zero. A misconfigured
// override can therefore never produce a negative commission.
func ClampMargin(selling, base Amount) Amount {
	if selling <= base {
		return 0
	}
	return selling - base
}
