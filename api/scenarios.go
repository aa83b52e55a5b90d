/*
scenarios.go - Demo data loaders

PURPOSE:
  Loads a small grocery catalog through the normal sync path so the
  engine can be exercised without an external import. The demo items are
  long expired with large quantities, which drives the calculator to its
  discount ceiling - handy for eyeballing the whole pipeline.
*/
package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshmark/pricing-engine/pricing"
)

// DemoCatalog returns the sample grocery items.
func DemoCatalog() []pricing.PriceItem {
	type row struct {
		name     string
		category string
		price    string
		daysLeft int
	}
	rows := []row{
		{"Fresh Milk", "Dairy", "3.99", -256},
		{"White Bread", "Bakery", "2.49", -261},
		{"Chicken Breast", "Meat", "8.99", -259},
		{"Tomatoes", "Produce", "0.49", -263},
		{"Eggs", "Dairy", "3.99", -251},
		{"Yogurt", "Dairy", "2.99", -291},
	}

	items := make([]pricing.PriceItem, len(rows))
	for i, r := range rows {
		price := decimal.RequireFromString(r.price)
		items[i] = pricing.PriceItem{
			ID:              uuid.NewString(),
			Name:            r.name,
			Category:        r.category,
			OriginalPrice:   price,
			CurrentPrice:    price,
			Quantity:        100,
			DaysUntilExpiry: r.daysLeft,
		}
	}
	return items
}

// LoadDemoScenario syncs the demo catalog.
// POST /api/scenarios/demo
func (h *Handler) LoadDemoScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.SyncCatalog(r.Context(), DemoCatalog(), actorFrom(r)); err != nil {
		writeServiceError(w, "Failed to load demo scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(h.Service.Items()))
}
