package cart

import (
	"sort"
	"strings"

	"github.com/noah-isme/cartfee/internal/money"
)

// Origin identifies which pipeline stage emitted a fee.
type Origin int

const (
	// OriginQuantityPricing marks adjustments from quantity breakpoints.
	OriginQuantityPricing Origin = iota
	// OriginDiscount marks negative fees from the loyalty stage.
	OriginDiscount
	// OriginSurcharge marks positive fees from the payment-method stage.
	OriginSurcharge
	// OriginExternal marks fees carried in from outside the pipeline.
	OriginExternal
)

func (o Origin) String() string {
	switch o {
	case OriginQuantityPricing:
		return "quantity_pricing"
	case OriginDiscount:
		return "discount"
	case OriginSurcharge:
		return "surcharge"
	case OriginExternal:
		return "external"
	default:
		return "unknown"
	}
}

// KeyVIPDiscount is the stable fee key for the loyalty discount.
const KeyVIPDiscount = "vip_discount"

// surchargeKeyPrefix namespaces payment-method surcharge fees so a method
// switch can find and delete the stale key.
const surchargeKeyPrefix = "surcharge:"

// SurchargeKey returns the fee key for a payment method surcharge.
func SurchargeKey(method string) string {
	return surchargeKeyPrefix + method
}

// IsSurchargeKey reports whether the key belongs to the surcharge namespace.
func IsSurchargeKey(key string) bool {
	return strings.HasPrefix(key, surchargeKeyPrefix)
}

// Fee is a single monetary adjustment. Amount is signed: discounts are
// negative, surcharges positive. Key is the machine identifier that makes
// re-emission within a cycle a replacement rather than a duplicate.
type Fee struct {
	Key     string      `json:"key"`
	Label   string      `json:"label"`
	Amount  money.Money `json:"amount"`
	Taxable bool        `json:"taxable"`
	Origin  Origin      `json:"-"`
}

// FeeMap holds at most one fee per key.
type FeeMap map[string]Fee

// Clone returns an independent copy. A nil map clones to an empty one.
func (fm FeeMap) Clone() FeeMap {
	out := make(FeeMap, len(fm))
	for k, v := range fm {
		out[k] = v
	}
	return out
}

// Put inserts or replaces the fee under its key.
func (fm FeeMap) Put(f Fee) {
	fm[f.Key] = f
}

// Total sums all fee amounts in the given currency.
func (fm FeeMap) Total(currency string) money.Money {
	total := money.Zero(currency)
	for _, f := range fm {
		if f.Amount.Currency == currency {
			total.Units += f.Amount.Units
		}
	}
	return total
}

// DiscountTotal sums the amounts of discount-origin fees (a non-positive value).
func (fm FeeMap) DiscountTotal(currency string) money.Money {
	total := money.Zero(currency)
	for _, f := range fm {
		if f.Origin == OriginDiscount && f.Amount.Currency == currency {
			total.Units += f.Amount.Units
		}
	}
	return total
}

// Sorted returns the fees ordered by key for deterministic output.
func (fm FeeMap) Sorted() []Fee {
	out := make([]Fee, 0, len(fm))
	for _, f := range fm {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Equal reports whether two fee maps hold exactly the same fees.
func (fm FeeMap) Equal(other FeeMap) bool {
	if len(fm) != len(other) {
		return false
	}
	for k, f := range fm {
		o, ok := other[k]
		if !ok || o != f {
			return false
		}
	}
	return true
}
