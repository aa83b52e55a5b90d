/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: prices cross
  the wire as plain JSON numbers while the engine keeps decimals
  internally.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in the pricing service, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - pricing/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/freshmark/pricing-engine/pricing"
)

// =============================================================================
// ITEMS
// =============================================================================

// ItemDTO represents one catalog line in API responses.
type ItemDTO struct {
	ID                   string  `json:"item_id"`
	Name                 string  `json:"name"`
	Category             string  `json:"category"`
	OriginalPrice        float64 `json:"original_price"`
	CurrentPrice         float64 `json:"current_price"`
	SuggestedDiscountPct int     `json:"suggested_discount"`
	DaysUntilExpiry      int     `json:"days_until_expiry"`
	Quantity             int     `json:"quantity"`
	ExpiryStatus         string  `json:"expiry_status"`
}

func toItemDTO(item pricing.PriceItem) ItemDTO {
	return ItemDTO{
		ID:                   item.ID,
		Name:                 item.Name,
		Category:             item.Category,
		OriginalPrice:        item.OriginalPrice.InexactFloat64(),
		CurrentPrice:         item.CurrentPrice.InexactFloat64(),
		SuggestedDiscountPct: item.SuggestedDiscountPct,
		DaysUntilExpiry:      item.DaysUntilExpiry,
		Quantity:             item.Quantity,
		ExpiryStatus:         string(item.Status()),
	}
}

func toItemDTOs(items []pricing.PriceItem) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	return dtos
}

// SyncItemRequest is one incoming catalog line. The collaborator supplies
// all fields, including days_until_expiry precomputed from the expiry
// date; current_price defaults to original_price when omitted.
type SyncItemRequest struct {
	ID                   string  `json:"item_id"`
	Name                 string  `json:"name"`
	Category             string  `json:"category"`
	OriginalPrice        float64 `json:"original_price"`
	CurrentPrice         float64 `json:"current_price"`
	Quantity             int     `json:"quantity"`
	DaysUntilExpiry      int     `json:"days_until_expiry"`
	SuggestedDiscountPct int     `json:"suggested_discount"`
}

// SyncCatalogRequest replaces the whole working catalog.
type SyncCatalogRequest struct {
	Items []SyncItemRequest `json:"items"`
}

func (r SyncCatalogRequest) toItems() []pricing.PriceItem {
	items := make([]pricing.PriceItem, len(r.Items))
	for i, in := range r.Items {
		original := decimal.NewFromFloat(in.OriginalPrice).Round(2)
		current := decimal.NewFromFloat(in.CurrentPrice).Round(2)
		if in.CurrentPrice == 0 {
			current = original
		}
		items[i] = pricing.PriceItem{
			ID:                   in.ID,
			Name:                 in.Name,
			Category:             in.Category,
			OriginalPrice:        original,
			CurrentPrice:         current,
			Quantity:             in.Quantity,
			DaysUntilExpiry:      in.DaysUntilExpiry,
			SuggestedDiscountPct: in.SuggestedDiscountPct,
		}
	}
	return items
}

// ManualPriceRequest sets an operator-chosen price on one item.
type ManualPriceRequest struct {
	Price float64 `json:"price"`
}

// =============================================================================
// LEDGER
// =============================================================================

// EntryDetailsDTO mirrors pricing.EntryDetails with numeric prices.
type EntryDetailsDTO struct {
	ItemID        string   `json:"item_id,omitempty"`
	ItemName      string   `json:"item_name,omitempty"`
	Description   string   `json:"description"`
	OldValue      *float64 `json:"old_value,omitempty"`
	NewValue      *float64 `json:"new_value,omitempty"`
	ItemsAffected int      `json:"items_affected,omitempty"`
	OldRules      string   `json:"old_rules,omitempty"`
	NewRules      string   `json:"new_rules,omitempty"`
}

// LedgerEntryDTO represents one audit record in API responses.
type LedgerEntryDTO struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor"`
	Action    string          `json:"action_type"`
	Details   EntryDetailsDTO `json:"details"`
}

func toEntryDTO(e pricing.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Action:    string(e.Action),
		Details: EntryDetailsDTO{
			ItemID:        e.Details.ItemID,
			ItemName:      e.Details.ItemName,
			Description:   e.Details.Description,
			OldValue:      toFloatPtr(e.Details.OldValue),
			NewValue:      toFloatPtr(e.Details.NewValue),
			ItemsAffected: e.Details.ItemsAffected,
			OldRules:      e.Details.OldRules,
			NewRules:      e.Details.NewRules,
		},
	}
}

func toEntryDTOs(entries []pricing.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toFloatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
