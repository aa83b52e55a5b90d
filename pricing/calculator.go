/*
calculator.go - Discount computation

PURPOSE:
  ComputeDiscount is the engine's only piece of decision logic: a pure,
  deterministic function from item state + rules to a suggested discount
  percentage. No side effects, no storage access.

ALGORITHM:
  1. Out-of-scope category -> 0
  2. Beyond the expiry threshold -> 0
  3. Base: linear ramp from 0% at the threshold to ~100% at zero days
     left. Already-expired items push the ratio past 1; that is allowed
     and capped at the end.
  4. Urgency bonus: first matching band only (<=7: +30, <=14: +20,
     <=21: +10)
  5. Quantity bonus: +DiscountStepPct when quantity exceeds the threshold
  6. Quantity-tier bonus: +floor(quantity/threshold) * step/2

  Steps 5 and 6 both fire for any quantity at or past one full multiple
  of the threshold. The overlap is intentional parity with observed
  production behavior; do not "fix" it without a rule change
  (see TestComputeDiscount_QuantityBonusesOverlap).

  The accumulated value is clamped to [0, MaxDiscountPct] and rounded to
  the nearest whole percent.
*/
package pricing

import "math"

// ComputeDiscount returns the suggested discount percentage for an item
// under the given rules, in [0, rules.MaxDiscountPct].
//
// The caller must hand in validated rules: ExpiryThresholdDays and
// QuantityThreshold are divisors and must be positive (enforced by
// PriceRuleConfig.Validate, not here).
func ComputeDiscount(item PriceItem, rules PriceRuleConfig) int {
	if !rules.InScope(item.Category) {
		return 0
	}
	if item.DaysUntilExpiry > rules.ExpiryThresholdDays {
		return 0
	}

	// Linear ramp toward expiry. Expired items exceed 100 here on purpose.
	threshold := float64(rules.ExpiryThresholdDays)
	discount := math.Round((threshold - float64(item.DaysUntilExpiry)) / threshold * 100)

	// Urgency bonus: first matching band only, not cumulative.
	switch {
	case item.DaysUntilExpiry <= 7:
		discount += 30
	case item.DaysUntilExpiry <= 14:
		discount += 20
	case item.DaysUntilExpiry <= 21:
		discount += 10
	}

	if item.Quantity > rules.QuantityThreshold {
		discount += float64(rules.DiscountStepPct)
	}

	// Every full multiple of the threshold adds a half-step. Overlaps with
	// the threshold bonus above; see file header.
	tiers := item.Quantity / rules.QuantityThreshold
	discount += float64(tiers) * float64(rules.DiscountStepPct) / 2

	discount = math.Round(discount)
	if max := float64(rules.MaxDiscountPct); discount > max {
		discount = max
	}
	if discount < 0 {
		discount = 0
	}
	return int(discount)
}
