/*
Package pricing implements the dynamic pricing engine and its audit ledger.

PURPOSE:
  This package contains the core types and algorithms for rule-based
  markdown pricing: catalog items nearing expiry get a suggested discount,
  suggestions are reconciled against manual overrides, and every price,
  rule, or inventory mutation is recorded as an immutable ledger entry.

KEY CONCEPTS IN THIS FILE (types.go):
  - PriceItem: One catalog line with an immutable reference price
  - LedgerEntry: An immutable audit record of a mutation
  - ActionType: What kind of mutation an entry records
  - ExpiryStatus: Derived urgency band for an item

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never modified, edits are new entries
  2. Precision: Uses decimal.Decimal for prices, never float64
  3. Attribution: Every entry names the actor that caused it
  4. Purity: Discount math is side-effect free (see calculator.go)

SEE ALSO:
  - rules.go: Rule configuration and validation
  - calculator.go: Discount computation
  - reconciler.go: Price/discount reconciliation + entry emission
  - ledger.go: Append-only entry log
*/
package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICE ITEM - One catalog line
// =============================================================================

// PriceItem is one catalog line tracked by the engine.
//
// OriginalPrice is the immutable reference price; CurrentPrice is what the
// item actually sells for right now. CurrentPrice is usually at or below
// OriginalPrice, but a manual override may raise it - that is allowed,
// not enforced.
type PriceItem struct {
	ID       string `json:"item_id"`
	Name     string `json:"name"`
	Category string `json:"category"`

	OriginalPrice decimal.Decimal `json:"original_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`

	Quantity        int `json:"quantity"`
	DaysUntilExpiry int `json:"days_until_expiry"`

	// SuggestedDiscountPct is the last discount the engine computed (or the
	// implied discount of a manual edit), in whole percent. Negative when a
	// manual override raised the price above the original.
	SuggestedDiscountPct int `json:"suggested_discount"`
}

// Expired reports whether the item's expiry horizon has passed.
func (p PriceItem) Expired() bool {
	return p.DaysUntilExpiry <= 0
}

// =============================================================================
// EXPIRY STATUS - Derived urgency band
// =============================================================================

// ExpiryStatus classifies how close an item is to expiry. The bands match
// the urgency bonuses in the discount calculator.
type ExpiryStatus string

const (
	StatusExpired     ExpiryStatus = "expired"     // already past expiry
	StatusCritical    ExpiryStatus = "critical"    // 7 days or less
	StatusNearExpiry  ExpiryStatus = "near_expiry" // 14 days or less
	StatusApproaching ExpiryStatus = "approaching" // 21 days or less
	StatusFresh       ExpiryStatus = "fresh"
)

// Status returns the derived expiry band for the item.
func (p PriceItem) Status() ExpiryStatus {
	switch {
	case p.DaysUntilExpiry <= 0:
		return StatusExpired
	case p.DaysUntilExpiry <= 7:
		return StatusCritical
	case p.DaysUntilExpiry <= 14:
		return StatusNearExpiry
	case p.DaysUntilExpiry <= 21:
		return StatusApproaching
	default:
		return StatusFresh
	}
}

// =============================================================================
// ACTOR
// =============================================================================

// UnknownActor is recorded when no actor identity was supplied.
// Actor identity is an opaque string provided by an external auth layer.
const UnknownActor = "Unknown User"

// ActorOrUnknown normalizes an actor string for ledger attribution.
func ActorOrUnknown(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return UnknownActor
	}
	return actor
}

// =============================================================================
// LEDGER ENTRY - One immutable audit record
// =============================================================================

type ActionType string

const (
	ActionPriceChange     ActionType = "PriceChange"
	ActionBulkPriceChange ActionType = "BulkPriceChange"
	ActionInventoryUpdate ActionType = "InventoryUpdate"
	ActionPriceRuleUpdate ActionType = "PriceRuleUpdate"
)

// EntryDetails is the action-specific payload of a ledger entry.
// Description is always set; the other fields depend on the action:
//   - PriceChange:     ItemID, ItemName, OldValue, NewValue
//   - BulkPriceChange: ItemsAffected
//   - InventoryUpdate: ItemsAffected
//   - PriceRuleUpdate: OldRules, NewRules (serialized PriceRuleConfig)
type EntryDetails struct {
	ItemID      string `json:"item_id,omitempty"`
	ItemName    string `json:"item_name,omitempty"`
	Description string `json:"description"`

	OldValue *decimal.Decimal `json:"old_value,omitempty"`
	NewValue *decimal.Decimal `json:"new_value,omitempty"`

	ItemsAffected int `json:"items_affected,omitempty"`

	OldRules string `json:"old_rules,omitempty"`
	NewRules string `json:"new_rules,omitempty"`
}

// LedgerEntry records one mutation: who did what, when, to which item.
//
// INVARIANT: once appended, an entry is never mutated or removed.
// Entry IDs are unique but carry no ordering; Timestamp is the
// authoritative ordering key, ties broken by append order.
type LedgerEntry struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Actor     string       `json:"actor"`
	Action    ActionType   `json:"action_type"`
	Details   EntryDetails `json:"details"`
}

// Matches reports whether the entry matches a free-text search filter.
// The match is a case-insensitive substring test against the actor, the
// description, the item name, and the action-type label. An empty filter
// matches everything.
func (e LedgerEntry) Matches(filter string) bool {
	if filter == "" {
		return true
	}
	needle := strings.ToLower(filter)
	for _, hay := range []string{
		e.Actor,
		e.Details.Description,
		e.Details.ItemName,
		string(e.Action),
	} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}
