package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/cartfee/internal/money"
)

// ErrInvalidInput is returned when a snapshot is built from malformed cart data.
var ErrInvalidInput = errors.New("cart: invalid input")

// LineItem is one cart line. Quantity is always positive and the unit price
// never negative; Snapshot construction enforces both.
type LineItem struct {
	ProductID  uuid.UUID
	CategoryID *uuid.UUID
	Qty        int
	UnitPrice  money.Money
}

// Subtotal returns unit price × quantity.
func (li LineItem) Subtotal() money.Money {
	return li.UnitPrice.MulInt(int64(li.Qty))
}

// Snapshot is an immutable view of the cart for one computation cycle: line
// items, shipping total and the fees carried over from the previous cycle.
// Stages never mutate a snapshot; price adjustments produce a new one.
type Snapshot struct {
	lines    []LineItem
	shipping money.Money
	fees     FeeMap
	currency string
}

// NewSnapshot validates the cart data and builds a snapshot. Carried-over
// fees may be nil. All amounts must share the provided currency.
func NewSnapshot(currency string, lines []LineItem, shipping money.Money, carried FeeMap) (Snapshot, error) {
	if currency == "" {
		return Snapshot{}, fmt.Errorf("%w: currency is required", ErrInvalidInput)
	}
	if shipping.Currency != currency {
		return Snapshot{}, fmt.Errorf("%w: shipping currency %q", ErrInvalidInput, shipping.Currency)
	}
	if shipping.IsNegative() {
		return Snapshot{}, fmt.Errorf("%w: negative shipping total", ErrInvalidInput)
	}
	for i, li := range lines {
		if li.Qty <= 0 {
			return Snapshot{}, fmt.Errorf("%w: line %d: qty must be positive, got %d", ErrInvalidInput, i, li.Qty)
		}
		if li.UnitPrice.IsNegative() {
			return Snapshot{}, fmt.Errorf("%w: line %d: negative unit price", ErrInvalidInput, i)
		}
		if li.UnitPrice.Currency != currency {
			return Snapshot{}, fmt.Errorf("%w: line %d: unit price currency %q", ErrInvalidInput, i, li.UnitPrice.Currency)
		}
	}
	snap := Snapshot{
		lines:    append([]LineItem(nil), lines...),
		shipping: shipping,
		fees:     carried.Clone(),
		currency: currency,
	}
	return snap, nil
}

// Currency returns the snapshot's currency code.
func (s Snapshot) Currency() string { return s.currency }

// Lines returns a copy of the line items.
func (s Snapshot) Lines() []LineItem {
	return append([]LineItem(nil), s.lines...)
}

// Shipping returns the shipping total.
func (s Snapshot) Shipping() money.Money { return s.shipping }

// Fees returns a copy of the carried-over fee map.
func (s Snapshot) Fees() FeeMap { return s.fees.Clone() }

// Subtotal derives the sum of all line subtotals. It is never stored.
func (s Snapshot) Subtotal() money.Money {
	total := money.Zero(s.currency)
	for _, li := range s.lines {
		total.Units += li.Subtotal().Units
	}
	return total
}

// WithUnitPrices returns a new snapshot whose lines carry the provided unit
// prices. The slice must be index-aligned with Lines().
func (s Snapshot) WithUnitPrices(prices []money.Money) (Snapshot, error) {
	if len(prices) != len(s.lines) {
		return Snapshot{}, fmt.Errorf("%w: %d prices for %d lines", ErrInvalidInput, len(prices), len(s.lines))
	}
	lines := s.Lines()
	for i := range lines {
		lines[i].UnitPrice = prices[i]
	}
	return NewSnapshot(s.currency, lines, s.shipping, s.fees)
}
