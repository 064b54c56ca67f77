package records

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative monetary value with two-decimal precision. It is
// encoded on the wire as a JSON number such as 150.00.
type Amount struct {
	d decimal.Decimal
}

// NewAmount parses a decimal string ("75", "150.5") and rounds to cents.
func NewAmount(value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("records: parse amount %q: %w", value, err)
	}
	return Amount{d: d.Round(2)}, nil
}

// MustAmount is NewAmount for constants. It panics on malformed input.
func MustAmount(value string) Amount {
	a, err := NewAmount(value)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromCents builds an amount from an integer number of cents.
func AmountFromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -2)}
}

// Cents returns the amount as an integer number of cents.
func (a Amount) Cents() int64 {
	return a.d.Shift(2).Round(0).IntPart()
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.d.StringFixed(2)
}

// Dollars renders the amount the way notifications show it, e.g. "$150.00".
func (a Amount) Dollars() string {
	return "$" + a.String()
}

func (a Amount) IsZero() bool     { return a.d.IsZero() }
func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Equal compares amounts at cent precision.
func (a Amount) Equal(b Amount) bool {
	return a.d.Round(2).Equal(b.d.Round(2))
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// MarshalJSON writes the amount as an unquoted number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts numbers and quoted numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	data = bytes.Trim(data, `"`)
	parsed, err := NewAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
