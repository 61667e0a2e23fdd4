package rules

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// fileDoc mirrors the on-disk JSON shape of a rule table.
type fileDoc struct {
	LoyaltyTiers []tierDoc      `koanf:"loyaltyTiers"`
	Surcharges   []surchargeDoc `koanf:"surcharges"`
	Pricing      []pricingDoc   `koanf:"pricing"`
}

type tierDoc struct {
	Label     string `koanf:"label"`
	Threshold int64  `koanf:"threshold"`
	RateBps   int64  `koanf:"rateBps"`
	MinOrder  int64  `koanf:"minOrder"`
}

type surchargeDoc struct {
	Method  string `koanf:"method"`
	Label   string `koanf:"label"`
	RateBps int64  `koanf:"rateBps"`
	Taxable bool   `koanf:"taxable"`
}

type pricingDoc struct {
	ProductID  string `koanf:"productId"`
	CategoryID string `koanf:"categoryId"`
	MinQty     int    `koanf:"minQty"`
	MaxQty     int    `koanf:"maxQty"`
	Kind       string `koanf:"kind"`
	PercentBps int64  `koanf:"percentBps"`
	Amount     int64  `koanf:"amount"`
}

// Load reads and validates a rule table from a JSON file. A load or
// validation failure is a configuration error; the caller keeps whatever
// registry it had before.
func Load(path string) (Registry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return Registry{}, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}
	var doc fileDoc
	if err := k.Unmarshal("", &doc); err != nil {
		return Registry{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return fromDoc(doc)
}

func fromDoc(doc fileDoc) (Registry, error) {
	reg := Registry{}
	for _, t := range doc.LoyaltyTiers {
		reg.Tiers = append(reg.Tiers, LoyaltyTier{
			Label:     t.Label,
			Threshold: t.Threshold,
			RateBps:   t.RateBps,
			MinOrder:  t.MinOrder,
		})
	}
	for _, s := range doc.Surcharges {
		reg.Surcharges = append(reg.Surcharges, SurchargeRule{
			Method:  s.Method,
			Label:   s.Label,
			RateBps: s.RateBps,
			Taxable: s.Taxable,
		})
	}
	for i, p := range doc.Pricing {
		rule := PricingRule{
			MinQty:     p.MinQty,
			MaxQty:     p.MaxQty,
			Kind:       DiscountKind(p.Kind),
			PercentBps: p.PercentBps,
			Amount:     p.Amount,
		}
		if p.ProductID != "" {
			id, err := uuid.Parse(p.ProductID)
			if err != nil {
				return Registry{}, fmt.Errorf("%w: pricing rule %d: product id: %v", ErrInvalidConfig, i, err)
			}
			rule.ProductID = &id
		}
		if p.CategoryID != "" {
			id, err := uuid.Parse(p.CategoryID)
			if err != nil {
				return Registry{}, fmt.Errorf("%w: pricing rule %d: category id: %v", ErrInvalidConfig, i, err)
			}
			rule.CategoryID = &id
		}
		reg.Pricing = append(reg.Pricing, rule)
	}
	if err := reg.Validate(); err != nil {
		return Registry{}, err
	}
	return reg, nil
}
