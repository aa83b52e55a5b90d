/*
ledger.go - Append-only audit log

PURPOSE:
  The Ledger is the immutable record of every price, rule, or inventory
  mutation. It is an audit log, not a blockchain: no consensus, no
  cryptographic tamper-proofing, just an attributable append-only
  sequence that can be searched and replayed.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, entries cannot be modified
  3. ORDERED: Iteration is most-recent-first, consistent with append
     order; timestamp ties are broken by append order
  4. ATTRIBUTABLE: Every entry names an actor ("Unknown User" at worst)

CORRECTIONS:
  A wrong price is fixed by a new PriceChange entry, never by editing
  the old one. History is preserved; net effect is the correction.

SEE ALSO:
  - store.go: Low-level persistence interface
  - service.go: The only writer
*/
package pricing

import "context"

// =============================================================================
// LEDGER - Read/append facade over the Store
// =============================================================================

// Ledger is the audit-log view of a Store. Viewers read through Query
// and All; only the pricing service appends.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append adds one entry. This and AppendBatch are the only write paths.
func (l *Ledger) Append(ctx context.Context, entry LedgerEntry) error {
	return l.store.Append(ctx, entry)
}

// AppendBatch adds multiple entries atomically, so a concurrent reader
// never observes a partial batch.
func (l *Ledger) AppendBatch(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return l.store.AppendBatch(ctx, entries)
}

// All returns the full ordered log, most-recent-first.
func (l *Ledger) All(ctx context.Context) ([]LedgerEntry, error) {
	return l.store.Entries(ctx)
}

// Query returns entries matching a free-text filter, in store order.
// The filter is a case-insensitive substring match against actor,
// description, item name, and action-type label. An empty filter
// returns the full log.
func (l *Ledger) Query(ctx context.Context, filter string) ([]LedgerEntry, error) {
	entries, err := l.store.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return entries, nil
	}
	matched := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Matches(filter) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// Entry returns a single entry by ID, or ErrEntryNotFound.
func (l *Ledger) Entry(ctx context.Context, id string) (LedgerEntry, error) {
	entries, err := l.store.Entries(ctx)
	if err != nil {
		return LedgerEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return LedgerEntry{}, ErrEntryNotFound
}
