/*
handlers.go - HTTP handlers for the pricing engine API

PURPOSE:
  Thin HTTP adapters over the pricing service. Each handler:
  1. Parses request (URL params, JSON body, X-Actor header)
  2. Calls the service
  3. Serializes the response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown item or ledger entry
  - 500: Persistence/internal errors

ACTOR IDENTITY:
  The attributable identity comes from the X-Actor header, supplied by
  an external auth layer. No header means the ledger records
  "Unknown User". There is no authentication here; the header is taken
  at face value.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshmark/pricing-engine/pricing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *pricing.Service
	Log     *zap.Logger
}

// NewHandler creates a new handler over the pricing service.
func NewHandler(service *pricing.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: service, Log: log}
}

// actorFrom extracts the attributable identity for a request.
func actorFrom(r *http.Request) string {
	return pricing.ActorOrUnknown(r.Header.Get("X-Actor"))
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns the working catalog.
// GET /api/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toItemDTOs(h.Service.Items()))
}

// SyncCatalog replaces the working catalog with an imported item set.
// POST /api/items/sync
func (h *Handler) SyncCatalog(w http.ResponseWriter, r *http.Request) {
	var req SyncCatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Service.SyncCatalog(r.Context(), req.toItems(), actorFrom(r)); err != nil {
		writeServiceError(w, "Failed to sync catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(h.Service.Items()))
}

// SetItemPrice applies a manual price to one item.
// PUT /api/items/{id}/price
func (h *Handler) SetItemPrice(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	var req ManualPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	price := decimal.NewFromFloat(req.Price)
	item, err := h.Service.EditItemManually(r.Context(), itemID, price, actorFrom(r))
	if err != nil {
		writeServiceError(w, "Failed to update price", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// GetRules returns the active ruleset.
// GET /api/rules
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Rules())
}

// SaveRules validates and activates a new ruleset, re-applying it to the
// whole catalog.
// PUT /api/rules
func (h *Handler) SaveRules(w http.ResponseWriter, r *http.Request) {
	var rules pricing.PriceRuleConfig
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Service.SaveRules(r.Context(), rules, actorFrom(r)); err != nil {
		writeServiceError(w, "Failed to save rules", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Rules())
}

// ApplyRules re-runs the active rules over every item.
// POST /api/rules/apply
func (h *Handler) ApplyRules(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ApplyRulesToAll(r.Context(), actorFrom(r)); err != nil {
		writeServiceError(w, "Failed to apply rules", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(h.Service.Items()))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// QueryLedger returns ledger entries, optionally filtered by the free-text
// q parameter (case-insensitive substring match).
// GET /api/ledger?q=...
func (h *Handler) QueryLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Ledger().Query(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// GetLedgerEntry returns a single entry by ID.
// GET /api/ledger/{id}
func (h *Handler) GetLedgerEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.Ledger().Entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to read ledger entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case pricing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case pricing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
