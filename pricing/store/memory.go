// Package store provides pricing.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/freshmark/pricing-engine/pricing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	items   []pricing.PriceItem
	rules   *pricing.PriceRuleConfig
	entries []pricing.LedgerEntry // most-recent-first

	subMu  sync.Mutex
	subs   map[int]func(pricing.ChangeKind)
	nextID int
}

var (
	_ pricing.Store   = (*Memory)(nil)
	_ pricing.TxStore = (*TxMemory)(nil)
)

func NewMemory() *Memory {
	return &Memory{subs: make(map[int]func(pricing.ChangeKind))}
}

func (m *Memory) LoadCatalog(_ context.Context) ([]pricing.PriceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pricing.PriceItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *Memory) SaveCatalog(_ context.Context, items []pricing.PriceItem) error {
	m.mu.Lock()
	m.items = append([]pricing.PriceItem(nil), items...)
	m.mu.Unlock()

	m.notify(pricing.ChangeCatalog)
	return nil
}

func (m *Memory) LoadRules(_ context.Context) (*pricing.PriceRuleConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rules == nil {
		return nil, nil
	}
	r := *m.rules
	return &r, nil
}

func (m *Memory) SaveRules(_ context.Context, rules pricing.PriceRuleConfig) error {
	m.mu.Lock()
	m.rules = &rules
	m.mu.Unlock()

	m.notify(pricing.ChangeRules)
	return nil
}

// Append adds a single entry. Append-only.
func (m *Memory) Append(_ context.Context, entry pricing.LedgerEntry) error {
	m.mu.Lock()
	m.prependLocked(entry)
	m.mu.Unlock()

	m.notify(pricing.ChangeLedger)
	return nil
}

// AppendBatch adds multiple entries atomically, in chronological order.
// Subscribers are notified once, after the whole batch is visible.
func (m *Memory) AppendBatch(_ context.Context, entries []pricing.LedgerEntry) error {
	m.mu.Lock()
	for _, e := range entries {
		m.prependLocked(e)
	}
	m.mu.Unlock()

	m.notify(pricing.ChangeLedger)
	return nil
}

// prependLocked keeps m.entries most-recent-first.
func (m *Memory) prependLocked(entry pricing.LedgerEntry) {
	m.entries = append([]pricing.LedgerEntry{entry}, m.entries...)
}

func (m *Memory) Entries(_ context.Context) ([]pricing.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pricing.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

func (m *Memory) Subscribe(fn func(pricing.ChangeKind)) (cancel func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

// notify invokes subscribers outside the data lock, after the mutation
// is fully visible.
func (m *Memory) notify(kind pricing.ChangeKind) {
	m.subMu.Lock()
	fns := make([]func(pricing.ChangeKind), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(kind)
	}
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot + rollback on error. Notifications from
// writes inside fn fire as they happen; a failed transaction restores
// state and notifies once more so subscribers re-fetch.
func (tm *TxMemory) WithTx(_ context.Context, fn func(pricing.Store) error) error {
	tm.mu.Lock()
	snapshot := tm.snapshotLocked()
	tm.mu.Unlock()

	if err := fn(tm.Memory); err != nil {
		tm.mu.Lock()
		tm.restoreLocked(snapshot)
		tm.mu.Unlock()
		tm.notify(pricing.ChangeLedger)
		return err
	}
	return nil
}

type memorySnapshot struct {
	items   []pricing.PriceItem
	rules   *pricing.PriceRuleConfig
	entries []pricing.LedgerEntry
}

func (tm *TxMemory) snapshotLocked() memorySnapshot {
	snap := memorySnapshot{
		items:   append([]pricing.PriceItem(nil), tm.items...),
		entries: append([]pricing.LedgerEntry(nil), tm.entries...),
	}
	if tm.rules != nil {
		r := *tm.rules
		snap.rules = &r
	}
	return snap
}

func (tm *TxMemory) restoreLocked(s memorySnapshot) {
	tm.items = s.items
	tm.rules = s.rules
	tm.entries = s.entries
}
