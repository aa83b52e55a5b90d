/*
service.go - Pricing service orchestration

PURPOSE:
  Service ties the calculator, reconciler, and ledger together for a
  whole catalog. It is the only component external callers touch: bulk
  catalog sync, rule saves, bulk rule application, and single-item
  manual edits all go through here, and every mutation lands in the
  ledger.

STATE MODEL:
  The service holds the working catalog and active rules in memory and
  persists them through the injected Store after each operation. The
  store is the ground truth across sessions; the in-memory copy exists
  so a failed persistence can be rolled back to pre-call values and the
  caller never loses track of whether a mutation "took."

CONCURRENCY:
  One writer per service instance, guarded by a mutex. Cross-context
  visibility (another session sharing the same store) comes from the
  store's Subscribe mechanism, not from this service.

BATCH ATOMICITY:
  applyRulesToAll computes everything off-store first, then appends all
  generated entries in one batch, so no observer can read a partial
  batch.
*/
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store  Store
	ledger *Ledger
	log    *zap.Logger

	mu    sync.Mutex
	items []PriceItem
	rules PriceRuleConfig
}

// NewService creates a service over the given store, loading any
// previously persisted catalog and rules. A never-saved store starts
// with DefaultRules and an empty catalog.
func NewService(ctx context.Context, store Store, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	items, err := store.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	rules, err := store.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	s := &Service{
		store:  store,
		ledger: NewLedger(store),
		log:    log,
		items:  items,
		rules:  DefaultRules(),
	}
	if rules != nil {
		s.rules = *rules
	}
	return s, nil
}

// Ledger exposes the read-only ledger view for viewers.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Items returns a copy of the working catalog.
func (s *Service) Items() []PriceItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PriceItem, len(s.items))
	copy(out, s.items)
	return out
}

// Item returns one catalog item by ID, or ErrUnknownItem.
func (s *Service) Item(id string) (PriceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return PriceItem{}, &UnknownItemError{ItemID: id}
}

// Rules returns the active ruleset.
func (s *Service) Rules() PriceRuleConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SyncCatalog replaces the working catalog with an externally supplied
// item set and records one InventoryUpdate summary entry. It does not
// compute discounts; the caller triggers ApplyRulesToAll separately if
// the fresh items should be re-priced.
func (s *Service) SyncCatalog(ctx context.Context, items []PriceItem, actor string) error {
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := newEntry(actor, ActionInventoryUpdate, EntryDetails{
		ItemID:        "bulk",
		ItemName:      "All Items",
		Description:   fmt.Sprintf("Synced %d items", len(items)),
		ItemsAffected: len(items),
	})

	prev := s.items
	s.items = append([]PriceItem(nil), items...)

	if err := s.persist(ctx, func(st Store) error {
		if err := st.SaveCatalog(ctx, s.items); err != nil {
			return err
		}
		return st.Append(ctx, entry)
	}); err != nil {
		s.items = prev
		return fmt.Errorf("sync catalog: %w", err)
	}

	s.log.Info("catalog synced", zap.Int("items", len(items)), zap.String("actor", entry.Actor))
	return nil
}

// SaveRules validates and activates a new ruleset, records a
// PriceRuleUpdate entry carrying the prior and new configuration, and
// immediately re-applies the new rules to the whole catalog. The rule
// entry, the per-item PriceChange entries, and the trailing
// BulkPriceChange summary land in one atomic batch.
//
// A validation failure is rejected atomically: no rule update, no
// catalog change, no ledger entry.
func (s *Service) SaveRules(ctx context.Context, newRules PriceRuleConfig, actor string) error {
	if err := newRules.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldJSON, err := marshalRules(s.rules)
	if err != nil {
		return err
	}
	newJSON, err := marshalRules(newRules)
	if err != nil {
		return err
	}

	ruleEntry := newEntry(actor, ActionPriceRuleUpdate, EntryDetails{
		ItemID:   "rules",
		ItemName: "Price Rules",
		Description: fmt.Sprintf("Updated price rules: max %d%% discount, applied to %s",
			newRules.MaxDiscountPct, newRules.ScopeLabel()),
		OldRules: oldJSON,
		NewRules: newJSON,
	})

	prevRules, prevItems := s.rules, s.items
	s.rules = newRules

	updated, priceEntries := reprice(s.items, s.rules, actor)
	s.items = updated

	bulkEntry := newEntry(actor, ActionBulkPriceChange, EntryDetails{
		ItemID:        "bulk",
		ItemName:      "All Items",
		Description:   fmt.Sprintf("Applied new price rules to %s", s.rules.ScopeLabel()),
		ItemsAffected: len(priceEntries),
	})

	batch := make([]LedgerEntry, 0, len(priceEntries)+2)
	batch = append(batch, ruleEntry)
	batch = append(batch, priceEntries...)
	batch = append(batch, bulkEntry)

	if err := s.persist(ctx, func(st Store) error {
		if err := st.SaveRules(ctx, s.rules); err != nil {
			return err
		}
		if err := st.SaveCatalog(ctx, s.items); err != nil {
			return err
		}
		return st.AppendBatch(ctx, batch)
	}); err != nil {
		s.rules, s.items = prevRules, prevItems
		return fmt.Errorf("save rules: %w", err)
	}

	s.log.Info("rules saved",
		zap.Int("max_discount_pct", newRules.MaxDiscountPct),
		zap.Int("items_affected", len(priceEntries)),
		zap.String("actor", ruleEntry.Actor))
	return nil
}

// ApplyRulesToAll runs the calculator over every item and reconciles the
// results, collecting per-item PriceChange entries plus one trailing
// BulkPriceChange summary. The summary counts only items whose price
// actually moved, not the catalog size.
func (s *Service) ApplyRulesToAll(ctx context.Context, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevItems := s.items
	updated, priceEntries := reprice(s.items, s.rules, actor)
	s.items = updated

	bulkEntry := newEntry(actor, ActionBulkPriceChange, EntryDetails{
		ItemID:        "bulk",
		ItemName:      "All Items",
		Description:   fmt.Sprintf("Applied price rules to %s", s.rules.ScopeLabel()),
		ItemsAffected: len(priceEntries),
	})
	batch := append(priceEntries, bulkEntry)

	if err := s.persist(ctx, func(st Store) error {
		if err := st.SaveCatalog(ctx, s.items); err != nil {
			return err
		}
		return st.AppendBatch(ctx, batch)
	}); err != nil {
		s.items = prevItems
		return fmt.Errorf("apply rules: %w", err)
	}

	s.log.Info("rules applied",
		zap.Int("items_affected", len(priceEntries)),
		zap.String("actor", bulkEntry.Actor))
	return nil
}

// EditItemManually sets an operator-chosen price on a single item and
// records the implied discount. Returns the updated item.
func (s *Service) EditItemManually(ctx context.Context, itemID string, newPrice decimal.Decimal, actor string) (PriceItem, error) {
	if newPrice.IsNegative() {
		return PriceItem{}, &InvalidItemError{ItemID: itemID, Reason: "price must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, it := range s.items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return PriceItem{}, &UnknownItemError{ItemID: itemID}
	}

	updated, entry := ApplyManualPrice(s.items[idx], newPrice, actor)

	prevItems := s.items
	s.items = append([]PriceItem(nil), s.items...)
	s.items[idx] = updated

	if err := s.persist(ctx, func(st Store) error {
		if err := st.SaveCatalog(ctx, s.items); err != nil {
			return err
		}
		if entry != nil {
			return st.Append(ctx, *entry)
		}
		return nil
	}); err != nil {
		s.items = prevItems
		return PriceItem{}, fmt.Errorf("edit item: %w", err)
	}

	s.log.Info("manual price set",
		zap.String("item_id", itemID),
		zap.String("price", newPrice.StringFixed(2)),
		zap.String("actor", ActorOrUnknown(actor)))
	return updated, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// reprice runs the calculator + reconciler over every item, returning
// the updated catalog and the PriceChange entries for items whose price
// actually moved.
func reprice(items []PriceItem, rules PriceRuleConfig, actor string) ([]PriceItem, []LedgerEntry) {
	updated := make([]PriceItem, len(items))
	var entries []LedgerEntry
	for i, item := range items {
		pct := ComputeDiscount(item, rules)
		next, entry := ApplyDiscount(item, pct, actor)
		updated[i] = next
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return updated, entries
}

// persist runs fn against the store, transactionally when the store
// supports it.
func (s *Service) persist(ctx context.Context, fn func(Store) error) error {
	if tx, ok := s.store.(TxStore); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(s.store)
}

func validateItem(item PriceItem) error {
	switch {
	case item.ID == "":
		return &InvalidItemError{ItemID: item.ID, Reason: "missing item id"}
	case !item.OriginalPrice.IsPositive():
		return &InvalidItemError{ItemID: item.ID, Reason: "original price must be positive"}
	case item.Quantity < 0:
		return &InvalidItemError{ItemID: item.ID, Reason: "quantity must not be negative"}
	}
	return nil
}

func marshalRules(rules PriceRuleConfig) (string, error) {
	raw, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("%w: encode rules: %v", ErrSerialization, err)
	}
	return string(raw), nil
}
