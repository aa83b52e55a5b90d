/*
reconciler.go - Price/discount reconciliation

PURPOSE:
  Turns a discount suggestion (or a manual price) into a consistent
  (price, discount) pair plus an audit entry. All edits route through
  here so the two values can never drift apart: price and discount are
  mutually derived by PriceFromDiscount / DiscountFromPrice and nothing
  else computes either one.

ENTRY EMISSION:
  A PriceChange entry is emitted iff the price actually moved. No-op
  applications (same price in, same price out) do not pollute the
  ledger. Manual edits are distinguished from automatic ones only by
  the description text, not by a separate action type.
*/
package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// PriceFromDiscount derives the selling price implied by a discount
// percentage, rounded to 2 decimal places.
func PriceFromDiscount(originalPrice decimal.Decimal, discountPct int) decimal.Decimal {
	factor := one.Sub(decimal.NewFromInt(int64(discountPct)).Div(hundred))
	return originalPrice.Mul(factor).Round(2)
}

// DiscountFromPrice derives the discount percentage implied by a selling
// price, rounded to the nearest whole percent. A price above the original
// yields a negative discount; that is allowed for manual overrides.
func DiscountFromPrice(originalPrice, price decimal.Decimal) int {
	if originalPrice.IsZero() {
		return 0
	}
	pct := originalPrice.Sub(price).Div(originalPrice).Mul(hundred)
	return int(pct.Round(0).IntPart())
}

// ApplyDiscount applies a computed discount to an item and returns the
// updated item plus a PriceChange entry, or a nil entry when the price
// did not move. The item's SuggestedDiscountPct is updated either way.
func ApplyDiscount(item PriceItem, discountPct int, actor string) (PriceItem, *LedgerEntry) {
	newPrice := PriceFromDiscount(item.OriginalPrice, discountPct)

	updated := item
	updated.CurrentPrice = newPrice
	updated.SuggestedDiscountPct = discountPct

	if newPrice.Equal(item.CurrentPrice) {
		return updated, nil
	}

	entry := newEntry(actor, ActionPriceChange, EntryDetails{
		ItemID:   item.ID,
		ItemName: item.Name,
		OldValue: decimalPtr(item.CurrentPrice),
		NewValue: decimalPtr(newPrice),
		Description: fmt.Sprintf("Price updated for %s from $%s to $%s",
			item.Name, item.CurrentPrice.StringFixed(2), newPrice.StringFixed(2)),
	})
	return updated, &entry
}

// ApplyManualPrice applies an operator-chosen price to an item. The
// implied discount is derived and stored on the item so forward display
// stays consistent. Emits a PriceChange entry iff the price moved.
func ApplyManualPrice(item PriceItem, newPrice decimal.Decimal, actor string) (PriceItem, *LedgerEntry) {
	newPrice = newPrice.Round(2)
	impliedPct := DiscountFromPrice(item.OriginalPrice, newPrice)

	updated := item
	updated.CurrentPrice = newPrice
	updated.SuggestedDiscountPct = impliedPct

	if newPrice.Equal(item.CurrentPrice) {
		return updated, nil
	}

	entry := newEntry(actor, ActionPriceChange, EntryDetails{
		ItemID:   item.ID,
		ItemName: item.Name,
		OldValue: decimalPtr(item.CurrentPrice),
		NewValue: decimalPtr(newPrice),
		Description: fmt.Sprintf("Manual price update for %s (%d%% discount applied)",
			item.Name, impliedPct),
	})
	return updated, &entry
}

// newEntry builds a ledger entry with a fresh ID and timestamp.
func newEntry(actor string, action ActionType, details EntryDetails) LedgerEntry {
	return LedgerEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     ActorOrUnknown(actor),
		Action:    action,
		Details:   details,
	}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
