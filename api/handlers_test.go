/*
handlers_test.go - HTTP surface tests

Drives the full stack (router -> handlers -> service -> memory store)
through httptest, checking status codes, JSON shapes, and the domain
error to HTTP status mapping.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/freshmark/pricing-engine/api"
	"github.com/freshmark/pricing-engine/pricing"
	memstore "github.com/freshmark/pricing-engine/pricing/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := pricing.NewService(context.Background(), memstore.NewTxMemory(), zap.NewNop())
	require.NoError(t, err)
	return api.NewRouter(api.NewHandler(svc, zap.NewNop()))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, actor string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// =============================================================================
// CATALOG
// =============================================================================

func TestSyncCatalog_ThenList(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items/sync", api.SyncCatalogRequest{
		Items: []api.SyncItemRequest{
			{ID: "milk-1", Name: "Fresh Milk", Category: "Dairy", OriginalPrice: 3.99, Quantity: 100, DaysUntilExpiry: 5},
			{ID: "eggs-1", Name: "Eggs", Category: "Dairy", OriginalPrice: 4.00, CurrentPrice: 2.00, Quantity: 10, DaysUntilExpiry: 45},
		},
	}, "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	items := decode[[]api.ItemDTO](t, doJSON(t, router, http.MethodGet, "/api/items", nil, ""))
	require.Len(t, items, 2)

	milk := items[0]
	assert.Equal(t, "milk-1", milk.ID)
	assert.Equal(t, 3.99, milk.CurrentPrice, "current price defaults to original when omitted")
	assert.Equal(t, 0, milk.SuggestedDiscountPct, "sync never computes discounts")
	assert.Equal(t, "critical", milk.ExpiryStatus)
	assert.Equal(t, 2.00, items[1].CurrentPrice)
}

func TestSyncCatalog_InvalidItem_Returns400(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items/sync", api.SyncCatalogRequest{
		Items: []api.SyncItemRequest{
			{ID: "", Name: "Nameless", OriginalPrice: 1.00},
		},
	}, "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[api.ErrorResponse](t, rec)
	assert.NotEmpty(t, resp.Error)
}

func TestSetItemPrice_UnknownItem_Returns404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/items/ghost/price", api.ManualPriceRequest{Price: 1.99}, "alice")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetItemPrice_UpdatesItemAndLedger(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items/sync", api.SyncCatalogRequest{
		Items: []api.SyncItemRequest{
			{ID: "eggs-1", Name: "Eggs", Category: "Dairy", OriginalPrice: 4.00, Quantity: 10, DaysUntilExpiry: 45},
		},
	}, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/items/eggs-1/price", api.ManualPriceRequest{Price: 2.00}, "bob")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	item := decode[api.ItemDTO](t, rec)
	assert.Equal(t, 2.00, item.CurrentPrice)
	assert.Equal(t, 50, item.SuggestedDiscountPct)

	entries := decode[[]api.LedgerEntryDTO](t, doJSON(t, router, http.MethodGet, "/api/ledger?q=manual", nil, ""))
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].Actor)
	assert.Equal(t, string(pricing.ActionPriceChange), entries[0].Action)
}

// =============================================================================
// RULES
// =============================================================================

func TestSaveRules_InvalidConfig_Returns400(t *testing.T) {
	router := newTestRouter(t)

	rules := pricing.DefaultRules()
	rules.MaxDiscountPct = 150
	rec := doJSON(t, router, http.MethodPut, "/api/rules", rules, "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Active rules are untouched.
	got := decode[pricing.PriceRuleConfig](t, doJSON(t, router, http.MethodGet, "/api/rules", nil, ""))
	assert.Equal(t, pricing.DefaultRules(), got)
}

func TestSaveRules_RepricesCatalog(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/demo", nil, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	rules := pricing.DefaultRules()
	rec = doJSON(t, router, http.MethodPut, "/api/rules", rules, "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	items := decode[[]api.ItemDTO](t, doJSON(t, router, http.MethodGet, "/api/items", nil, ""))
	require.NotEmpty(t, items)
	for _, it := range items {
		// Demo items are long expired with big quantities, so every one
		// rides the discount ceiling.
		assert.Equal(t, rules.MaxDiscountPct, it.SuggestedDiscountPct, it.Name)
		assert.Less(t, it.CurrentPrice, it.OriginalPrice, it.Name)
		assert.Equal(t, "expired", it.ExpiryStatus)
	}
}

// =============================================================================
// LEDGER
// =============================================================================

func TestQueryLedger_FilterAndActorFallback(t *testing.T) {
	router := newTestRouter(t)

	// No X-Actor header on the sync.
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/demo", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decode[[]api.LedgerEntryDTO](t, doJSON(t, router, http.MethodGet, "/api/ledger", nil, ""))
	require.Len(t, entries, 1)
	assert.Equal(t, pricing.UnknownActor, entries[0].Actor)
	assert.Equal(t, string(pricing.ActionInventoryUpdate), entries[0].Action)

	// Filter that matches nothing.
	none := decode[[]api.LedgerEntryDTO](t, doJSON(t, router, http.MethodGet, "/api/ledger?q=zzz", nil, ""))
	assert.Empty(t, none)
}

func TestGetLedgerEntry_ByID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/demo", nil, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decode[[]api.LedgerEntryDTO](t, doJSON(t, router, http.MethodGet, "/api/ledger", nil, ""))
	require.Len(t, entries, 1)

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/"+entries[0].ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[api.LedgerEntryDTO](t, rec)
	assert.Equal(t, entries[0].ID, got.ID)

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
