package cart_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartfee/internal/cart"
	"github.com/noah-isme/cartfee/internal/money"
)

func line(qty int, unitPrice int64) cart.LineItem {
	return cart.LineItem{ProductID: uuid.New(), Qty: qty, UnitPrice: money.New(unitPrice, "USD")}
}

func TestNewSnapshotRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		currency string
		lines    []cart.LineItem
		shipping money.Money
	}{
		{"missing currency", "", nil, money.Zero("")},
		{"zero qty", "USD", []cart.LineItem{line(0, 100)}, money.Zero("USD")},
		{"negative qty", "USD", []cart.LineItem{line(-2, 100)}, money.Zero("USD")},
		{"negative unit price", "USD", []cart.LineItem{line(1, -100)}, money.Zero("USD")},
		{"negative shipping", "USD", []cart.LineItem{line(1, 100)}, money.New(-1, "USD")},
		{"foreign currency line", "USD", []cart.LineItem{{ProductID: uuid.New(), Qty: 1, UnitPrice: money.New(100, "IDR")}}, money.Zero("USD")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cart.NewSnapshot(tc.currency, tc.lines, tc.shipping, nil)
			require.True(t, errors.Is(err, cart.ErrInvalidInput))
		})
	}
}

func TestSnapshotSubtotalDerived(t *testing.T) {
	snap, err := cart.NewSnapshot("USD", []cart.LineItem{line(2, 1_000), line(3, 500)}, money.Zero("USD"), nil)
	require.NoError(t, err)
	require.Equal(t, int64(3_500), snap.Subtotal().Units)
}

func TestSnapshotImmutability(t *testing.T) {
	original := []cart.LineItem{line(1, 1_000)}
	snap, err := cart.NewSnapshot("USD", original, money.Zero("USD"), nil)
	require.NoError(t, err)

	got := snap.Lines()
	got[0].Qty = 99
	require.Equal(t, 1, snap.Lines()[0].Qty)

	fees := snap.Fees()
	fees.Put(cart.Fee{Key: "x", Amount: money.New(1, "USD")})
	require.Empty(t, snap.Fees())
}

func TestWithUnitPrices(t *testing.T) {
	snap, err := cart.NewSnapshot("USD", []cart.LineItem{line(5, 10_000)}, money.Zero("USD"), nil)
	require.NoError(t, err)

	adjusted, err := snap.WithUnitPrices([]money.Money{money.New(9_000, "USD")})
	require.NoError(t, err)
	require.Equal(t, int64(45_000), adjusted.Subtotal().Units)
	// original snapshot is untouched
	require.Equal(t, int64(50_000), snap.Subtotal().Units)

	_, err = snap.WithUnitPrices(nil)
	require.True(t, errors.Is(err, cart.ErrInvalidInput))
}
