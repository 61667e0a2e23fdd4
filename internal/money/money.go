package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when combining amounts of different currencies.
var ErrCurrencyMismatch = errors.New("money: currency mismatch")

// bpsDenominator converts basis points to a rate (10000 bps = 100%).
const bpsDenominator = 10_000

// Money is a fixed-point monetary amount expressed in minor units of a single
// currency. Arithmetic is exact; rate multiplication rounds half away from
// zero to minor-unit precision.
type Money struct {
	Units    int64  `json:"units"`
	Currency string `json:"currency"`
}

// New constructs a Money value from minor units and a currency code.
func New(units int64, currency string) Money {
	return Money{Units: units, Currency: currency}
}

// Zero returns the zero amount for the provided currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Units == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Units < 0 }

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money { return Money{Units: -m.Units, Currency: m.Currency} }

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Units: m.Units + other.Units, Currency: m.Currency}, nil
}

// Sub returns m - other. Both operands must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Units: m.Units - other.Units, Currency: m.Currency}, nil
}

// MulInt returns the amount multiplied by an integer factor (e.g. a quantity).
func (m Money) MulInt(n int64) Money {
	return Money{Units: m.Units * n, Currency: m.Currency}
}

// MulBps applies a basis-point rate and rounds half away from zero to minor
// units. 300 bps of 45000 minor units yields 1350.
func (m Money) MulBps(bps int64) Money {
	product := decimal.New(m.Units, 0).Mul(decimal.New(bps, 0)).Div(decimal.New(bpsDenominator, 0))
	return Money{Units: product.Round(0).IntPart(), Currency: m.Currency}
}

// Cmp compares two amounts of the same currency: -1 if m < other, 0 if equal,
// +1 if m > other.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.Units < other.Units:
		return -1, nil
	case m.Units > other.Units:
		return 1, nil
	default:
		return 0, nil
	}
}

// String renders the amount with two decimal places, e.g. "USD 13.50".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, decimal.New(m.Units, -2).StringFixed(2))
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}
