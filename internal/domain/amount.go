package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value with permissive JSON decoding: numbers, numeric
// strings, null and garbage are all accepted, and anything non-numeric decodes
// to zero. Display rounding is a caller concern; arithmetic is exact.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal in an Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// ParseAmount converts free-form input to an Amount, coercing invalid or
// negative input to zero.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return Amount{}
	}
	return Amount{Decimal: d}
}

// MarshalJSON encodes the amount as an unquoted JSON number so snapshots have
// a stable canonical form across devices.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON decodes a number, a quoted numeric string, or null. Anything
// else coerces to zero rather than failing the whole snapshot.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d
	return nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Sub(b.Decimal)}
}

// Equal reports whether two amounts are numerically equal.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}
