// Package core provides the expense domain types.
//
// This file contains the Amount sum type: either a valid decimal value or an
// invalid marker produced by non-numeric input.
package core

import (
	"bytes"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is either Valid(decimal) or Invalid. The zero value is Invalid.
type Amount struct {
	value decimal.Decimal
	valid bool
}

// ValidAmount wraps a decimal value.
func ValidAmount(d decimal.Decimal) Amount {
	return Amount{value: d, valid: true}
}

// InvalidAmount returns the marker for non-numeric input.
func InvalidAmount() Amount {
	return Amount{}
}

var maxFinite = decimal.NewFromFloat(math.MaxFloat64)

// finite maps d onto the float64 range. Values beyond it are not finite
// numbers and report false; values below the smallest denormal become zero.
// Only the exponent and digit count are inspected, so a huge exponent is
// never expanded.
func finite(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	digits := len(new(big.Int).Abs(d.Coefficient()).String())
	order := int64(digits) + int64(d.Exponent()) // |d| < 10^order
	switch {
	case order > 309:
		return decimal.Decimal{}, false
	case order == 309 && d.Abs().GreaterThan(maxFinite):
		return decimal.Decimal{}, false
	case order < -323:
		return decimal.Zero, true
	}
	return d, true
}

// MustAmount parses s and panics when it is not a number. Used for fixed values.
func MustAmount(s string) Amount {
	a, err := ParseAmountStrict(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAmount parses amount text as typed in the form. It accepts both dot
// (12.34) and comma (12,34) decimal separators and an optional sign.
// Anything that is not a finite decimal number yields Invalid.
func ParseAmount(s string) Amount {
	a, err := ParseAmountStrict(s)
	if err != nil {
		return InvalidAmount()
	}
	return a
}

// ParseAmountStrict is ParseAmount reporting ErrInvalidAmount instead of
// degrading.
func ParseAmountStrict(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return InvalidAmount(), ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return InvalidAmount(), ErrInvalidAmount
	}
	d, ok := finite(d)
	if !ok {
		return InvalidAmount(), ErrInvalidAmount
	}
	return ValidAmount(d), nil
}

// IsValid reports whether the amount holds a number.
func (a Amount) IsValid() bool {
	return a.valid
}

// Decimal returns the value and whether it is valid.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	return a.value, a.valid
}

// OrZero returns the value, or zero for Invalid.
func (a Amount) OrZero() decimal.Decimal {
	if !a.valid {
		return decimal.Zero
	}
	return a.value
}

// Equal compares two amounts numerically; two Invalid amounts are equal.
func (a Amount) Equal(b Amount) bool {
	if a.valid != b.valid {
		return false
	}
	return !a.valid || a.value.Equal(b.value)
}

// String renders the amount with two decimals for display, "—" when invalid.
func (a Amount) String() string {
	if !a.valid {
		return "—"
	}
	return a.value.StringFixed(2)
}

// Text renders the amount for an edit field: the shortest exact form, or an
// empty string when invalid.
func (a Amount) Text() string {
	if !a.valid {
		return ""
	}
	return a.value.String()
}

// MarshalJSON writes a JSON number, or null for Invalid.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON accepts a number, a numeric string, or null. Numbers outside
// the float64 range decode as Invalid.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = InvalidAmount()
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		*a = ParseAmount(s[1 : len(s)-1])
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	if d, ok := finite(d); ok {
		*a = ValidAmount(d)
	} else {
		*a = InvalidAmount()
	}
	return nil
}
