package models

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountDivisibility is the number of fractional decimal digits used
// by the ledger's minor unit representation.
const AmountDivisibility = 8

// Amount represents a ledger value in minor units. It wraps a big.Int
// so values of arbitrary size can be represented without overflow or
// floating point rounding.
type Amount struct {
	i big.Int
}

// NewAmount returns a new Amount for the given value. The value may be
// an int, int64, uint64, string, big.Int or *big.Int. Anything else
// returns a zero amount.
func NewAmount(i interface{}) Amount {
	switch v := i.(type) {
	case int:
		return Amount{*big.NewInt(int64(v))}
	case int64:
		return Amount{*big.NewInt(v)}
	case uint64:
		return Amount{*new(big.Int).SetUint64(v)}
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return Amount{}
		}
		return Amount{*n}
	case big.Int:
		return Amount{v}
	case *big.Int:
		return Amount{*new(big.Int).Set(v)}
	default:
		return Amount{}
	}
}

// AmountFromDecimal parses a decimal string, such as "1.0001", into an
// Amount in minor units. Values with more fractional digits than the
// ledger's divisibility are rejected rather than truncated.
func AmountFromDecimal(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid decimal amount %q: %w", s, err)
	}
	shifted := d.Shift(AmountDivisibility)
	if !shifted.IsInteger() {
		return Amount{}, fmt.Errorf("amount %q exceeds %d fractional digits", s, AmountDivisibility)
	}
	return Amount{*shifted.BigInt()}, nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{*new(big.Int).Add(&a.i, &b.i)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{*new(big.Int).Sub(&a.i, &b.i)}
}

// Mul returns a * b.
func (a Amount) Mul(b Amount) Amount {
	return Amount{*new(big.Int).Mul(&a.i, &b.i)}
}

// Cmp compares a and b and returns -1, 0, or 1.
func (a Amount) Cmp(b Amount) int {
	return a.i.Cmp(&b.i)
}

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool {
	return a.i.Sign() < 0
}

// IsZero returns true if the amount equals zero.
func (a Amount) IsZero() bool {
	return a.i.Sign() == 0
}

// Int returns a copy of the underlying big.Int.
func (a Amount) Int() *big.Int {
	return new(big.Int).Set(&a.i)
}

// String returns the base 10 minor unit representation.
func (a Amount) String() string {
	return a.i.String()
}

// Decimal returns the major unit decimal string representation,
// for example "1.0001" for 100010000 minor units.
func (a Amount) Decimal() string {
	return decimal.NewFromBigInt(a.Int(), -AmountDivisibility).String()
}

// MarshalJSON marshals the amount as a base 10 string. Strings are
// used instead of JSON numbers to avoid precision loss in consumers
// that parse numbers as float64.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.i.String() + `"`), nil
}

// UnmarshalJSON accepts both string and number representations.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		a.i.SetInt64(0)
		return nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	a.i.Set(n)
	return nil
}
