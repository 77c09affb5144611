// Package money holds the fixed-point representation used for balances,
// stakes and payouts: int64 minor units (cents).
package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an amount.
const Scale = 2

// Minor is an amount in minor units.
type Minor int64

var hundred = decimal.NewFromInt(100)

// Parse converts a decimal string with up to two fractional digits into
// minor units. Negative values and more than two decimals are rejected.
func Parse(s string) (Minor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount required")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	return FromDecimal(d)
}

// FromDecimal converts d to minor units, failing when d is negative or has
// sub-cent precision.
func FromDecimal(d decimal.Decimal) (Minor, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}

	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount supports up to %d decimals", Scale)
	}

	if !cents.LessThanOrEqual(decimal.NewFromInt(maxMinor)) {
		return 0, fmt.Errorf("amount too large")
	}

	return Minor(cents.IntPart()), nil
}

// maxMinor keeps every sum of two amounts inside int64.
const maxMinor = 1 << 61

// Decimal returns m in major units.
func (m Minor) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -Scale)
}

// String formats m with exactly two decimals.
func (m Minor) String() string {
	return m.Decimal().StringFixed(Scale)
}

// MarshalJSON renders m as a JSON number with two decimals.
func (m Minor) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Minor) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return fmt.Errorf("amount required")
	}

	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}

	v, err := Parse(s)
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// UnmarshalText lets configuration loaders decode "10.50" style values.
func (m *Minor) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// MulFloor multiplies m by factor and rounds down to the minor unit. The
// product is clamped to [0, maxMinor] so it can never wrap.
func (m Minor) MulFloor(factor decimal.Decimal) Minor {
	p := decimal.NewFromInt(int64(m)).Mul(factor).Floor()

	switch {
	case p.IsNegative():
		return 0
	case p.GreaterThan(decimal.NewFromInt(maxMinor)):
		return maxMinor
	}

	return Minor(p.IntPart())
}
