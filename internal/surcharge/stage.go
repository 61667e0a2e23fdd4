package surcharge

import (
	"github.com/noah-isme/cartfee/internal/cart"
	"github.com/noah-isme/cartfee/internal/money"
	"github.com/noah-isme/cartfee/internal/rules"
)

// Evaluate computes the payment-method surcharge over the given base. The
// base must already be net of the current cycle's discount fees: subtotal +
// shipping - discounts. The orchestrator enforces that ordering; this stage
// only trusts it.
//
// A method without a configured rule, or with a zero rate, emits no fee. The
// boolean is false in that case.
func Evaluate(base money.Money, method string, reg rules.Registry) (cart.Fee, bool) {
	rule, ok := reg.SurchargeFor(method)
	if !ok || rule.RateBps <= 0 {
		return cart.Fee{}, false
	}
	amount := base.MulBps(rule.RateBps)
	if amount.IsZero() {
		return cart.Fee{}, false
	}
	label := rule.Label
	if label == "" {
		label = "Payment surcharge"
	}
	return cart.Fee{
		Key:     cart.SurchargeKey(method),
		Label:   label,
		Amount:  amount,
		Taxable: rule.Taxable,
		Origin:  cart.OriginSurcharge,
	}, true
}
