/*
rules.go - Rule configuration controlling discount computation

PURPOSE:
  PriceRuleConfig is the single active ruleset for the engine. It is
  validated before every save, and each save is itself a ledger-worthy
  event carrying the old and new configuration.

INVARIANT:
  MaxDiscountPct bounds every discount the calculator can ever return,
  regardless of the other terms.
*/
package pricing

// AllCategories is the CategoryScope value meaning the rules apply to
// every category.
const AllCategories = "all"

// PriceRuleConfig controls the discount calculator.
type PriceRuleConfig struct {
	// ExpiryThresholdDays is the horizon (in days) beyond which items get
	// no discount. Must be positive: the base discount divides by it.
	ExpiryThresholdDays int `json:"expiry_threshold_days"`

	// MaxDiscountPct is the hard ceiling on any computed discount, [0, 100].
	MaxDiscountPct int `json:"max_discount_pct"`

	// QuantityThreshold is the stock level above which extra discount
	// applies. Must be positive: the tier bonus divides by it.
	QuantityThreshold int `json:"quantity_threshold"`

	// DiscountStepPct is the increment applied at the quantity threshold
	// crossing and (halved) per full quantity tier.
	DiscountStepPct int `json:"discount_step_pct"`

	// CategoryScope is either AllCategories or one specific category name.
	CategoryScope string `json:"category_scope"`
}

// DefaultRules returns the ruleset active before any explicit save.
func DefaultRules() PriceRuleConfig {
	return PriceRuleConfig{
		ExpiryThresholdDays: 30,
		MaxDiscountPct:      75,
		QuantityThreshold:   50,
		DiscountStepPct:     5,
		CategoryScope:       AllCategories,
	}
}

// Validate checks the configuration. A failed validation returns a
// *ConfigurationError and the ruleset must not be applied.
func (r PriceRuleConfig) Validate() error {
	if r.ExpiryThresholdDays <= 0 {
		return &ConfigurationError{Field: "expiry_threshold_days", Value: r.ExpiryThresholdDays, Reason: "must be positive"}
	}
	if r.QuantityThreshold <= 0 {
		return &ConfigurationError{Field: "quantity_threshold", Value: r.QuantityThreshold, Reason: "must be positive"}
	}
	if r.MaxDiscountPct < 0 || r.MaxDiscountPct > 100 {
		return &ConfigurationError{Field: "max_discount_pct", Value: r.MaxDiscountPct, Reason: "must be in [0, 100]"}
	}
	if r.DiscountStepPct < 0 {
		return &ConfigurationError{Field: "discount_step_pct", Value: r.DiscountStepPct, Reason: "must not be negative"}
	}
	return nil
}

// InScope reports whether the rules apply to the given category.
func (r PriceRuleConfig) InScope(category string) bool {
	return r.CategoryScope == "" || r.CategoryScope == AllCategories || r.CategoryScope == category
}

// ScopeLabel describes the scope for ledger descriptions.
func (r PriceRuleConfig) ScopeLabel() string {
	if r.CategoryScope == "" || r.CategoryScope == AllCategories {
		return "all categories"
	}
	return "the " + r.CategoryScope + " category"
}
