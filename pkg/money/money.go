// Package money provides fixed-precision currency amounts for claim
// adjudication. Amounts are held at cent precision; arithmetic never goes
// through floats, and percentage splits round half-even to the minor unit.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a currency amount with exact cent precision.
// The zero value is $0.00 and is ready to use.
type Amount struct {
	d decimal.Decimal
}

// Zero is the $0.00 amount.
var Zero = Amount{}

// FromCents builds an Amount from an integer number of cents.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -2)}
}

// FromFloat builds an Amount from a float, rounding half-even to cents.
// Intended for boundary code that receives JSON numbers; internal
// arithmetic should stay in Amount.
func FromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f).RoundBank(2)}
}

// Parse builds an Amount from a decimal string such as "150.00".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{d: d.RoundBank(2)}, nil
}

// MustParse is Parse for constants in tests and fixtures; panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// MulInt returns a * n, for unit counts.
func (a Amount) MulInt(n int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(n)))}
}

// Percent returns pct% of a, rounded half-even to the cent.
// Percent(20) of $33.33 is $6.67.
func (a Amount) Percent(pct float64) Amount {
	p := decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
	return Amount{d: a.d.Mul(p).RoundBank(2)}
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.d.LessThan(b.d) {
		return a
	}
	return b
}

// Cmp compares a and b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

// Equal reports whether a and b are the same amount.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// IsZero reports whether a is exactly $0.00.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsNegative reports whether a is below zero.
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Cents returns the amount as an integer number of cents.
func (a Amount) Cents() int64 {
	return a.d.Mul(decimal.NewFromInt(100)).IntPart()
}

// Float64 returns the amount as a float for display and serialization only.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// String renders the amount with two decimal places, e.g. "150.00".
func (a Amount) String() string { return a.d.StringFixed(2) }

// MarshalJSON renders the amount as a plain JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts both quoted and bare JSON numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("unmarshal amount: %w", err)
	}
	a.d = d.RoundBank(2)
	return nil
}

// MarshalYAML renders the amount as a decimal string.
func (a Amount) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML accepts scalar YAML values such as 10000 or "10000.00".
func (a *Amount) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		parsed, perr := Parse(s)
		if perr != nil {
			return perr
		}
		*a = parsed
		return nil
	}

	var f float64
	if err := unmarshal(&f); err != nil {
		return err
	}
	*a = FromFloat(f)
	return nil
}
