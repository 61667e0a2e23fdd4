package loyalty

import (
	"github.com/noah-isme/cartfee/internal/cart"
	"github.com/noah-isme/cartfee/internal/money"
	"github.com/noah-isme/cartfee/internal/rules"
)

// defaultLabel is used when a tier carries no display label.
const defaultLabel = "VIP discount"

// Evaluate selects the loyalty tier for the customer's lifetime spend and
// returns the discount fee for the current subtotal. The boolean is false
// when no fee applies, which is a normal outcome, not an error.
//
// Tiers are scanned from the highest threshold down; the first threshold the
// spend equals or exceeds wins. A tier's own minimum-order requirement is
// checked against the current subtotal after quantity pricing. The discount
// is rounded to minor units here, at emission, and never earlier.
func Evaluate(subtotal money.Money, lifetimeSpend money.Money, tiers []rules.LoyaltyTier) (cart.Fee, bool) {
	tier, ok := pickTier(lifetimeSpend.Units, tiers)
	if !ok {
		return cart.Fee{}, false
	}
	if subtotal.Units < tier.MinOrder {
		return cart.Fee{}, false
	}
	amount := subtotal.MulBps(tier.RateBps)
	if amount.IsZero() {
		return cart.Fee{}, false
	}
	label := tier.Label
	if label == "" {
		label = defaultLabel
	}
	return cart.Fee{
		Key:     cart.KeyVIPDiscount,
		Label:   label,
		Amount:  amount.Neg(),
		Taxable: false,
		Origin:  cart.OriginDiscount,
	}, true
}

// pickTier assumes tiers are sorted by strictly increasing threshold, which
// the registry validation guarantees.
func pickTier(spend int64, tiers []rules.LoyaltyTier) (rules.LoyaltyTier, bool) {
	for i := len(tiers) - 1; i >= 0; i-- {
		if spend >= tiers[i].Threshold {
			return tiers[i], true
		}
	}
	return rules.LoyaltyTier{}, false
}
