package rules

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrInvalidConfig is returned when a rule table fails load-time validation.
// Validation runs once when the registry is built, never per computation cycle.
var ErrInvalidConfig = errors.New("rules: invalid configuration")

// DiscountKind tags how a quantity pricing rule adjusts the unit price.
type DiscountKind string

const (
	// KindPercentage reduces the unit price by a basis-point percentage.
	KindPercentage DiscountKind = "percentage"
	// KindFixed subtracts a fixed minor-unit amount, floored at zero.
	KindFixed DiscountKind = "fixed"
)

// PricingRule rewrites a line's unit price when its quantity falls inside
// [MinQty, MaxQty]. MaxQty of zero means the range is open-ended. A rule is
// scoped to a product or a category, never both empty.
type PricingRule struct {
	ProductID  *uuid.UUID
	CategoryID *uuid.UUID
	MinQty     int
	MaxQty     int
	Kind       DiscountKind
	PercentBps int64
	Amount     int64
}

// Matches reports whether the rule's quantity range contains qty.
func (r PricingRule) Matches(qty int) bool {
	if qty < r.MinQty {
		return false
	}
	return r.MaxQty == 0 || qty <= r.MaxQty
}

// AppliesTo reports whether the rule is scoped to the given product/category.
func (r PricingRule) AppliesTo(productID uuid.UUID, categoryID *uuid.UUID) bool {
	if r.ProductID != nil {
		return *r.ProductID == productID
	}
	if r.CategoryID != nil {
		return categoryID != nil && *r.CategoryID == *categoryID
	}
	return false
}

// LoyaltyTier grants a basis-point discount once a customer's lifetime spend
// reaches Threshold. MinOrder additionally gates the current order's subtotal.
type LoyaltyTier struct {
	Label     string
	Threshold int64
	RateBps   int64
	MinOrder  int64
}

// SurchargeRule applies a basis-point rate for a payment method. A method
// without a rule (or with a zero rate) carries no surcharge.
type SurchargeRule struct {
	Method  string
	Label   string
	RateBps int64
	Taxable bool
}

// Registry is the immutable rule set for one or more computation cycles. It
// is built and validated once at load time and read-only afterwards.
type Registry struct {
	Tiers      []LoyaltyTier
	Surcharges []SurchargeRule
	Pricing    []PricingRule
}

// SurchargeFor looks up the surcharge rule for a payment method.
func (reg Registry) SurchargeFor(method string) (SurchargeRule, bool) {
	return lo.Find(reg.Surcharges, func(s SurchargeRule) bool { return s.Method == method })
}

// PricingFor returns the pricing rules scoped to the given product/category.
func (reg Registry) PricingFor(productID uuid.UUID, categoryID *uuid.UUID) []PricingRule {
	return lo.Filter(reg.Pricing, func(r PricingRule, _ int) bool {
		return r.AppliesTo(productID, categoryID)
	})
}

// Validate checks the whole registry. Any violation fails the registry as a
// ConfigurationError; nothing is silently defaulted.
func (reg Registry) Validate() error {
	if err := validateTiers(reg.Tiers); err != nil {
		return err
	}
	if err := validateSurcharges(reg.Surcharges); err != nil {
		return err
	}
	return validatePricing(reg.Pricing)
}

func validateTiers(tiers []LoyaltyTier) error {
	var prev int64 = -1
	for i, t := range tiers {
		if t.Threshold < 0 {
			return fmt.Errorf("%w: tier %d: negative threshold", ErrInvalidConfig, i)
		}
		if t.Threshold <= prev {
			return fmt.Errorf("%w: tier %d: thresholds must be strictly increasing", ErrInvalidConfig, i)
		}
		if t.RateBps <= 0 || t.RateBps >= 10_000 {
			return fmt.Errorf("%w: tier %d: rate %d bps outside (0, 10000)", ErrInvalidConfig, i, t.RateBps)
		}
		if t.MinOrder < 0 {
			return fmt.Errorf("%w: tier %d: negative minimum order", ErrInvalidConfig, i)
		}
		prev = t.Threshold
	}
	return nil
}

func validateSurcharges(surcharges []SurchargeRule) error {
	seen := map[string]bool{}
	for i, s := range surcharges {
		if s.Method == "" {
			return fmt.Errorf("%w: surcharge %d: method is required", ErrInvalidConfig, i)
		}
		if seen[s.Method] {
			return fmt.Errorf("%w: surcharge %d: duplicate method %q", ErrInvalidConfig, i, s.Method)
		}
		seen[s.Method] = true
		if s.RateBps < 0 || s.RateBps >= 10_000 {
			return fmt.Errorf("%w: surcharge %d: rate %d bps outside [0, 10000)", ErrInvalidConfig, i, s.RateBps)
		}
	}
	return nil
}

func validatePricing(rules []PricingRule) error {
	for i, r := range rules {
		if r.ProductID == nil && r.CategoryID == nil {
			return fmt.Errorf("%w: pricing rule %d: product or category scope is required", ErrInvalidConfig, i)
		}
		if r.MinQty < 1 {
			return fmt.Errorf("%w: pricing rule %d: min qty must be at least 1", ErrInvalidConfig, i)
		}
		if r.MaxQty != 0 && r.MaxQty < r.MinQty {
			return fmt.Errorf("%w: pricing rule %d: max qty below min qty", ErrInvalidConfig, i)
		}
		switch r.Kind {
		case KindPercentage:
			if r.PercentBps <= 0 || r.PercentBps > 10_000 {
				return fmt.Errorf("%w: pricing rule %d: percent %d bps outside (0, 10000]", ErrInvalidConfig, i, r.PercentBps)
			}
		case KindFixed:
			if r.Amount <= 0 {
				return fmt.Errorf("%w: pricing rule %d: fixed amount must be positive", ErrInvalidConfig, i)
			}
		default:
			return fmt.Errorf("%w: pricing rule %d: unknown kind %q", ErrInvalidConfig, i, r.Kind)
		}
	}
	// A rule pair sharing scope, min quantity, kind and value defeats the
	// highest-min / largest-discount tie-break and is rejected outright.
	groups := lo.GroupBy(rules, scopeKey)
	for scope, scoped := range groups {
		for i := range scoped {
			for j := i + 1; j < len(scoped); j++ {
				a, b := scoped[i], scoped[j]
				if a.MinQty == b.MinQty && a.Kind == b.Kind && a.PercentBps == b.PercentBps && a.Amount == b.Amount {
					return fmt.Errorf("%w: ambiguous pricing rules for scope %s at min qty %d", ErrInvalidConfig, scope, a.MinQty)
				}
			}
		}
	}
	return nil
}

func scopeKey(r PricingRule) string {
	if r.ProductID != nil {
		return "product:" + r.ProductID.String()
	}
	if r.CategoryID != nil {
		return "category:" + r.CategoryID.String()
	}
	return "unscoped"
}
