/*
store.go - Persistence interface for catalog, rules, and ledger

PURPOSE:
  Defines the interface between the engine and its persisted state.
  Different implementations can use SQLite or in-memory storage; the
  engine never touches storage directly and carries no global state.

PERSISTED LAYOUT (logical):
  price_rules:   the single active PriceRuleConfig
  catalog_items: the working PriceItem set
  ledger_log:    LedgerEntry sequence, most-recent-first

APPEND-ONLY CONTRACT:
  The ledger side of the interface is append-only:
  - Append():      single entry write
  - AppendBatch(): atomic multi-entry write
  - NO update or delete methods exist

CHANGE NOTIFICATION:
  Independent contexts sharing one store (two browser tabs in the
  original system) learn about each other's writes through Subscribe.
  A notification carries only "this part of the store changed"; readers
  must re-fetch rather than trust cached state across a notification
  boundary. Notifications fire after a mutation completes, never
  mid-batch, so a subscriber can never observe a partial batch.
*/
package pricing

import "context"

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// ChangeKind identifies which part of the store changed.
type ChangeKind string

const (
	ChangeCatalog ChangeKind = "catalog"
	ChangeRules   ChangeKind = "rules"
	ChangeLedger  ChangeKind = "ledger"
)

// =============================================================================
// STORE - Interface for persisted engine state
// =============================================================================

// Store persists the engine's three pieces of state. The ledger portion
// is APPEND-ONLY: no update, no delete. Ever.
type Store interface {
	// LoadCatalog returns the working catalog in stored order.
	LoadCatalog(ctx context.Context) ([]PriceItem, error)

	// SaveCatalog replaces the working catalog.
	SaveCatalog(ctx context.Context, items []PriceItem) error

	// LoadRules returns the active ruleset, or nil if none was ever saved.
	LoadRules(ctx context.Context) (*PriceRuleConfig, error)

	// SaveRules replaces the active ruleset.
	SaveRules(ctx context.Context, rules PriceRuleConfig) error

	// Append persists one ledger entry.
	Append(ctx context.Context, entry LedgerEntry) error

	// AppendBatch persists multiple entries atomically. Entries are given
	// in append (chronological) order, so afterwards Entries() yields the
	// batch newest-first ahead of all older entries. Either all land or
	// none do.
	AppendBatch(ctx context.Context, entries []LedgerEntry) error

	// Entries returns the full ledger, most-recent-first.
	Entries(ctx context.Context) ([]LedgerEntry, error)

	// Subscribe registers a change listener and returns a cancel func.
	// Listeners are invoked after the mutation is fully visible.
	Subscribe(fn func(ChangeKind)) (cancel func())
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic multi-write operations
// =============================================================================

// TxStore wraps Store with transaction support. Operations that touch
// catalog, rules, and ledger together (rule saves) use this when
// available so a failure cannot leave the store half-written.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
