package pricing

import (
	"github.com/samber/lo"

	"github.com/noah-isme/cartfee/internal/cart"
	"github.com/noah-isme/cartfee/internal/money"
	"github.com/noah-isme/cartfee/internal/rules"
)

// ResolveUnitPrice returns the unit price for a line after applying quantity
// breakpoint rules. When several rules contain the line's quantity, the one
// with the highest min quantity wins; rules sharing a min are broken by the
// larger discount (lower resulting price). With no matching rule the price is
// returned unchanged. The resolver never mutates the snapshot; the caller
// applies the result.
func ResolveUnitPrice(line cart.LineItem, scoped []rules.PricingRule) money.Money {
	matches := lo.Filter(scoped, func(r rules.PricingRule, _ int) bool {
		return r.Matches(line.Qty)
	})
	if len(matches) == 0 {
		return line.UnitPrice
	}
	best := lo.MaxBy(matches, func(a, b rules.PricingRule) bool {
		if a.MinQty != b.MinQty {
			return a.MinQty > b.MinQty
		}
		return candidate(line.UnitPrice, a).Units < candidate(line.UnitPrice, b).Units
	})
	return candidate(line.UnitPrice, best)
}

// ResolveAll computes adjusted unit prices for every line of the snapshot,
// index-aligned with snapshot.Lines().
func ResolveAll(snapshot cart.Snapshot, reg rules.Registry) []money.Money {
	lines := snapshot.Lines()
	prices := make([]money.Money, len(lines))
	for i, li := range lines {
		prices[i] = ResolveUnitPrice(li, reg.PricingFor(li.ProductID, li.CategoryID))
	}
	return prices
}

func candidate(base money.Money, r rules.PricingRule) money.Money {
	switch r.Kind {
	case rules.KindPercentage:
		return base.MulBps(10_000 - r.PercentBps)
	case rules.KindFixed:
		adjusted := base.Units - r.Amount
		if adjusted < 0 {
			adjusted = 0
		}
		return money.New(adjusted, base.Currency)
	default:
		return base
	}
}
