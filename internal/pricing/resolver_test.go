package pricing_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartfee/internal/cart"
	"github.com/noah-isme/cartfee/internal/money"
	"github.com/noah-isme/cartfee/internal/pricing"
	"github.com/noah-isme/cartfee/internal/rules"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestResolveNoMatchingRule(t *testing.T) {
	line := cart.LineItem{ProductID: uuid.New(), Qty: 2, UnitPrice: money.New(10_000, "USD")}
	scoped := []rules.PricingRule{{MinQty: 5, Kind: rules.KindPercentage, PercentBps: 1_000}}

	got := pricing.ResolveUnitPrice(line, scoped)
	require.Equal(t, int64(10_000), got.Units)
}

func TestResolvePercentageBreakpoint(t *testing.T) {
	// Five units of a 100.00 item with 10% off from quantity 5 up.
	line := cart.LineItem{ProductID: uuid.New(), Qty: 5, UnitPrice: money.New(10_000, "USD")}
	scoped := []rules.PricingRule{{MinQty: 5, Kind: rules.KindPercentage, PercentBps: 1_000}}

	got := pricing.ResolveUnitPrice(line, scoped)
	require.Equal(t, int64(9_000), got.Units)
}

func TestResolveFixedFloorsAtZero(t *testing.T) {
	line := cart.LineItem{ProductID: uuid.New(), Qty: 3, UnitPrice: money.New(500, "USD")}
	scoped := []rules.PricingRule{{MinQty: 1, Kind: rules.KindFixed, Amount: 800}}

	got := pricing.ResolveUnitPrice(line, scoped)
	require.Equal(t, int64(0), got.Units)
}

func TestResolveHighestMinQtyWins(t *testing.T) {
	line := cart.LineItem{ProductID: uuid.New(), Qty: 12, UnitPrice: money.New(10_000, "USD")}
	scoped := []rules.PricingRule{
		{MinQty: 5, Kind: rules.KindPercentage, PercentBps: 500},
		{MinQty: 10, Kind: rules.KindPercentage, PercentBps: 1_500},
	}

	got := pricing.ResolveUnitPrice(line, scoped)
	require.Equal(t, int64(8_500), got.Units)
}

func TestResolveSameMinLargerDiscountWins(t *testing.T) {
	line := cart.LineItem{ProductID: uuid.New(), Qty: 6, UnitPrice: money.New(10_000, "USD")}
	scoped := []rules.PricingRule{
		{MinQty: 5, Kind: rules.KindPercentage, PercentBps: 500},
		{MinQty: 5, MaxQty: 20, Kind: rules.KindFixed, Amount: 2_000},
	}

	got := pricing.ResolveUnitPrice(line, scoped)
	require.Equal(t, int64(8_000), got.Units)
}

func TestResolveAllScopesRulesPerLine(t *testing.T) {
	product := uuid.New()
	category := uuid.New()
	reg := rules.Registry{Pricing: []rules.PricingRule{
		{ProductID: ptr(product), MinQty: 5, Kind: rules.KindPercentage, PercentBps: 1_000},
		{CategoryID: ptr(category), MinQty: 2, Kind: rules.KindFixed, Amount: 100},
	}}

	snap, err := cart.NewSnapshot("USD", []cart.LineItem{
		{ProductID: product, Qty: 5, UnitPrice: money.New(10_000, "USD")},
		{ProductID: uuid.New(), CategoryID: ptr(category), Qty: 2, UnitPrice: money.New(1_000, "USD")},
		{ProductID: uuid.New(), Qty: 1, UnitPrice: money.New(700, "USD")},
	}, money.Zero("USD"), nil)
	require.NoError(t, err)

	prices := pricing.ResolveAll(snap, reg)
	require.Equal(t, []int64{9_000, 900, 700}, []int64{prices[0].Units, prices[1].Units, prices[2].Units})
}
