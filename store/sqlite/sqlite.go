/*
Package sqlite provides a SQLite-backed implementation of pricing.Store.

PURPOSE:
  Persists the engine's three pieces of state - catalog, rules, ledger -
  in SQLite. The same patterns apply to PostgreSQL; only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  pricing.Store:   catalog/rules persistence + append-only ledger
  pricing.TxStore: atomic multi-write operations

APPEND-ONLY ENFORCEMENT:
  The ledger_log table sees INSERTs only:
  - No UPDATE statements on ledger_log
  - No DELETE statements on ledger_log
  Corrections are new entries, never edits.

KEY TABLES:
  catalog_items: the working PriceItem set (replaced wholesale on save)
  price_rules:   single-row active PriceRuleConfig
  ledger_log:    immutable entry sequence; seq preserves append order
                 so most-recent-first reads are ORDER BY seq DESC

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't
  block the single writer.

CHANGE NOTIFICATION:
  Subscribers are in-process listeners, invoked after a mutation (or a
  whole transaction) commits. A listener never observes a partial batch.

USAGE:
  store, err := sqlite.New("./data/pricing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - pricing/store.go: Interface definitions
  - pricing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/freshmark/pricing-engine/pricing"
)

// Store implements pricing.Store and pricing.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex

	subMu  sync.Mutex
	subs   map[int]func(pricing.ChangeKind)
	nextID int
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, subs: make(map[int]func(pricing.ChangeKind))}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Working catalog (replaced wholesale on each save)
	CREATE TABLE IF NOT EXISTS catalog_items (
		item_id            TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		category           TEXT NOT NULL,
		original_price     TEXT NOT NULL,
		current_price      TEXT NOT NULL,
		quantity           INTEGER NOT NULL,
		days_until_expiry  INTEGER NOT NULL,
		suggested_discount INTEGER NOT NULL,
		position           INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_catalog_position
		ON catalog_items(position);

	-- Active ruleset (single row)
	CREATE TABLE IF NOT EXISTS price_rules (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	-- Append-only audit ledger. seq preserves append order;
	-- most-recent-first reads are ORDER BY seq DESC.
	CREATE TABLE IF NOT EXISTS ledger_log (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		id           TEXT NOT NULL UNIQUE,
		timestamp    TEXT NOT NULL,
		actor        TEXT NOT NULL,
		action_type  TEXT NOT NULL,
		details_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_action
		ON ledger_log(action_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer abstracts *sql.DB vs *sql.Tx so the same statements serve both
// direct calls and WithTx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) LoadCatalog(ctx context.Context) ([]pricing.PriceItem, error) {
	return loadCatalog(ctx, s.db)
}

func (s *Store) SaveCatalog(ctx context.Context, items []pricing.PriceItem) error {
	s.mu.Lock()
	err := saveCatalog(ctx, s.db, items)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(pricing.ChangeCatalog)
	return nil
}

func loadCatalog(ctx context.Context, db execer) ([]pricing.PriceItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT item_id, name, category, original_price, current_price,
		       quantity, days_until_expiry, suggested_discount
		FROM catalog_items
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var items []pricing.PriceItem
	for rows.Next() {
		var it pricing.PriceItem
		var original, current string
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &original, &current,
			&it.Quantity, &it.DaysUntilExpiry, &it.SuggestedDiscountPct); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		if it.OriginalPrice, err = decimal.NewFromString(original); err != nil {
			return nil, fmt.Errorf("parse original price for %s: %w", it.ID, err)
		}
		if it.CurrentPrice, err = decimal.NewFromString(current); err != nil {
			return nil, fmt.Errorf("parse current price for %s: %w", it.ID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func saveCatalog(ctx context.Context, db execer, items []pricing.PriceItem) error {
	// Catalog is mutable state, not the ledger: wholesale replacement is fine.
	if _, err := db.ExecContext(ctx, `DELETE FROM catalog_items`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	for i, it := range items {
		_, err := db.ExecContext(ctx, `
			INSERT INTO catalog_items
			(item_id, name, category, original_price, current_price,
			 quantity, days_until_expiry, suggested_discount, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			it.ID, it.Name, it.Category,
			it.OriginalPrice.String(), it.CurrentPrice.String(),
			it.Quantity, it.DaysUntilExpiry, it.SuggestedDiscountPct, i,
		)
		if err != nil {
			return fmt.Errorf("insert catalog item %s: %w", it.ID, err)
		}
	}
	return nil
}

// =============================================================================
// RULES
// =============================================================================

func (s *Store) LoadRules(ctx context.Context) (*pricing.PriceRuleConfig, error) {
	return loadRules(ctx, s.db)
}

func (s *Store) SaveRules(ctx context.Context, rules pricing.PriceRuleConfig) error {
	s.mu.Lock()
	err := saveRules(ctx, s.db, rules)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(pricing.ChangeRules)
	return nil
}

func loadRules(ctx context.Context, db execer) (*pricing.PriceRuleConfig, error) {
	var configJSON string
	err := db.QueryRowContext(ctx, `SELECT config_json FROM price_rules WHERE id = 1`).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	var rules pricing.PriceRuleConfig
	if err := json.Unmarshal([]byte(configJSON), &rules); err != nil {
		return nil, fmt.Errorf("%w: decode rules: %v", pricing.ErrSerialization, err)
	}
	return &rules, nil
}

func saveRules(ctx context.Context, db execer, rules pricing.PriceRuleConfig) error {
	configJSON, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("%w: encode rules: %v", pricing.ErrSerialization, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO price_rules (id, config_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json, updated_at = excluded.updated_at
	`, string(configJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

func (s *Store) Append(ctx context.Context, entry pricing.LedgerEntry) error {
	s.mu.Lock()
	err := appendEntry(ctx, s.db, entry)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(pricing.ChangeLedger)
	return nil
}

func (s *Store) AppendBatch(ctx context.Context, entries []pricing.LedgerEntry) error {
	s.mu.Lock()
	err := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin batch: %w", err)
		}
		for _, e := range entries {
			if err := appendEntry(ctx, tx, e); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	}()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(pricing.ChangeLedger)
	return nil
}

func appendEntry(ctx context.Context, db execer, entry pricing.LedgerEntry) error {
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("%w: encode entry %s: %v", pricing.ErrSerialization, entry.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO ledger_log (id, timestamp, actor, action_type, details_json)
		VALUES (?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.Actor,
		string(entry.Action),
		string(detailsJSON),
	)
	if err != nil {
		return fmt.Errorf("append entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *Store) Entries(ctx context.Context) ([]pricing.LedgerEntry, error) {
	return loadEntries(ctx, s.db)
}

func loadEntries(ctx context.Context, db execer) ([]pricing.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, timestamp, actor, action_type, details_json
		FROM ledger_log
		ORDER BY seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	var entries []pricing.LedgerEntry
	for rows.Next() {
		var e pricing.LedgerEntry
		var ts, action, detailsJSON string
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &action, &detailsJSON); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp for %s: %w", e.ID, err)
		}
		e.Action = pricing.ActionType(action)
		if err := json.Unmarshal([]byte(detailsJSON), &e.Details); err != nil {
			return nil, fmt.Errorf("%w: decode entry %s: %v", pricing.ErrSerialization, e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a single database transaction. Change
// notifications from writes inside fn are collected and fired once,
// after commit, so subscribers never observe a partial write.
func (s *Store) WithTx(ctx context.Context, fn func(pricing.Store) error) error {
	s.mu.Lock()
	view := &txView{parent: s}
	err := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		view.tx = tx
		if err := fn(view); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, kind := range view.changed {
		s.notify(kind)
	}
	return nil
}

// txView implements pricing.Store on top of an open *sql.Tx.
type txView struct {
	parent  *Store
	tx      *sql.Tx
	changed []pricing.ChangeKind
}

func (v *txView) mark(kind pricing.ChangeKind) {
	for _, k := range v.changed {
		if k == kind {
			return
		}
	}
	v.changed = append(v.changed, kind)
}

func (v *txView) LoadCatalog(ctx context.Context) ([]pricing.PriceItem, error) {
	return loadCatalog(ctx, v.tx)
}

func (v *txView) SaveCatalog(ctx context.Context, items []pricing.PriceItem) error {
	if err := saveCatalog(ctx, v.tx, items); err != nil {
		return err
	}
	v.mark(pricing.ChangeCatalog)
	return nil
}

func (v *txView) LoadRules(ctx context.Context) (*pricing.PriceRuleConfig, error) {
	return loadRules(ctx, v.tx)
}

func (v *txView) SaveRules(ctx context.Context, rules pricing.PriceRuleConfig) error {
	if err := saveRules(ctx, v.tx, rules); err != nil {
		return err
	}
	v.mark(pricing.ChangeRules)
	return nil
}

func (v *txView) Append(ctx context.Context, entry pricing.LedgerEntry) error {
	if err := appendEntry(ctx, v.tx, entry); err != nil {
		return err
	}
	v.mark(pricing.ChangeLedger)
	return nil
}

func (v *txView) AppendBatch(ctx context.Context, entries []pricing.LedgerEntry) error {
	for _, e := range entries {
		if err := appendEntry(ctx, v.tx, e); err != nil {
			return err
		}
	}
	v.mark(pricing.ChangeLedger)
	return nil
}

func (v *txView) Entries(ctx context.Context) ([]pricing.LedgerEntry, error) {
	return loadEntries(ctx, v.tx)
}

// Subscribe within a transaction registers on the parent store.
func (v *txView) Subscribe(fn func(pricing.ChangeKind)) (cancel func()) {
	return v.parent.Subscribe(fn)
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

func (s *Store) Subscribe(fn func(pricing.ChangeKind)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(kind pricing.ChangeKind) {
	s.subMu.Lock()
	fns := make([]func(pricing.ChangeKind), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(kind)
	}
}

// Compile-time interface checks.
var (
	_ pricing.Store   = (*Store)(nil)
	_ pricing.TxStore = (*Store)(nil)
)
