package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AmountPrecision is the number of fractional digits carried by an Amount.
// All ledger arithmetic is fixed-point to avoid floating-point drift in
// balances and rewards.
const AmountPrecision = 8

// amountScale is 10^AmountPrecision.
const amountScale = 100_000_000

// Amount is a non-negative fixed-point quantity of the native coin, stored
// as an integer count of 1e-8 units (analogous to satoshis). Zero value is
// zero coins.
type Amount int64

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrAmountOverflow = errors.New("amount overflows fixed-point range")
)

// NewAmount constructs an Amount from a decimal string such as "10" or
// "0.00000001". It is the entry point for parsing signed-transaction and
// HTTP-request amounts.
func NewAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount: empty value")
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		return 0, ErrNegativeAmount
	}
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount: %w", err)
	}
	var frac int64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > AmountPrecision {
			return 0, fmt.Errorf("amount: more than %d fractional digits", AmountPrecision)
		}
		for len(fracStr) < AmountPrecision {
			fracStr += "0"
		}
		frac, err = strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("amount: %w", err)
		}
	}
	total := whole*amountScale + frac
	if total < 0 {
		return 0, ErrAmountOverflow
	}
	return Amount(total), nil
}

// AmountFromFloat builds an Amount from a float64, rounding to
// AmountPrecision digits. Used when decoding an amount given as a JSON
// number (see UnmarshalJSON).
func AmountFromFloat(f float64) (Amount, error) {
	if f < 0 {
		return 0, ErrNegativeAmount
	}
	return Amount(int64(f*amountScale + 0.5)), nil
}

// String renders the amount as a decimal string with trailing zeros
// trimmed; an integral amount is rendered with no fractional part at all
// ("10", not "10.0").
func (a Amount) String() string {
	whole := int64(a) / amountScale
	frac := int64(a) % amountScale
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	fracStr := fmt.Sprintf("%08d", frac)
	fracStr = strings.TrimRight(fracStr, "0")
	return fmt.Sprintf("%d.%s", whole, fracStr)
}

// Float64 converts the amount to a float64. Used only for presentation
// (HTTP responses); ledger arithmetic never uses the result.
func (a Amount) Float64() float64 {
	return float64(a) / amountScale
}

// MarshalJSON renders the amount as a JSON number for compatibility with
// existing wallet clients, at full fixed-point precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Float64())
}

// UnmarshalJSON accepts either a JSON number or a decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		amt, err := NewAmount(v)
		if err != nil {
			return err
		}
		*a = amt
	case float64:
		amt, err := AmountFromFloat(v)
		if err != nil {
			return err
		}
		*a = amt
	default:
		return fmt.Errorf("amount: unsupported JSON type %T", raw)
	}
	return nil
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount { return a + b }

// Sub returns a-b.
func (a Amount) Sub(b Amount) Amount { return a - b }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a < b }

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a == 0 }
