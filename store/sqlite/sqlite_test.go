package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmark/pricing-engine/pricing"
	"github.com/freshmark/pricing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testItem(id string, price string) pricing.PriceItem {
	p := decimal.RequireFromString(price)
	return pricing.PriceItem{
		ID:                   id,
		Name:                 "Item " + id,
		Category:             "Dairy",
		OriginalPrice:        p,
		CurrentPrice:         p,
		Quantity:             100,
		DaysUntilExpiry:      12,
		SuggestedDiscountPct: 0,
	}
}

func testEntry(id string) pricing.LedgerEntry {
	old := decimal.RequireFromString("3.99")
	new_ := decimal.RequireFromString("1.00")
	return pricing.LedgerEntry{
		ID:        id,
		Timestamp: time.Now().UTC(),
		Actor:     "alice",
		Action:    pricing.ActionPriceChange,
		Details: pricing.EntryDetails{
			ItemID:      "milk",
			ItemName:    "Fresh Milk",
			Description: "Price updated for Fresh Milk from $3.99 to $1.00",
			OldValue:    &old,
			NewValue:    &new_,
		},
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func TestCatalog_RoundTrip_PreservesOrderAndPrecision(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	items := []pricing.PriceItem{testItem("b", "2.49"), testItem("a", "3.99")}
	items[1].SuggestedDiscountPct = 75
	items[1].CurrentPrice = decimal.RequireFromString("1.00")
	require.NoError(t, st.SaveCatalog(ctx, items))

	loaded, err := st.LoadCatalog(ctx)
	require.NoError(t, err)

	require.Len(t, loaded, 2)
	assert.Equal(t, "b", loaded[0].ID, "insertion order preserved, not key order")
	assert.Equal(t, "a", loaded[1].ID)
	assert.True(t, loaded[1].OriginalPrice.Equal(decimal.RequireFromString("3.99")))
	assert.True(t, loaded[1].CurrentPrice.Equal(decimal.RequireFromString("1.00")))
	assert.Equal(t, 75, loaded[1].SuggestedDiscountPct)
}

func TestCatalog_SaveReplacesWholesale(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCatalog(ctx, []pricing.PriceItem{testItem("a", "1.00"), testItem("b", "2.00")}))
	require.NoError(t, st.SaveCatalog(ctx, []pricing.PriceItem{testItem("c", "3.00")}))

	loaded, err := st.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c", loaded[0].ID)
}

// =============================================================================
// RULES
// =============================================================================

func TestRules_NilUntilFirstSave(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rules, err := st.LoadRules(ctx)
	require.NoError(t, err)
	assert.Nil(t, rules)

	saved := pricing.DefaultRules()
	saved.MaxDiscountPct = 60
	require.NoError(t, st.SaveRules(ctx, saved))

	rules, err = st.LoadRules(ctx)
	require.NoError(t, err)
	require.NotNil(t, rules)
	assert.Equal(t, saved, *rules)

	// Second save overwrites the single row.
	saved.MaxDiscountPct = 40
	require.NoError(t, st.SaveRules(ctx, saved))
	rules, err = st.LoadRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, rules.MaxDiscountPct)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestLedger_EntriesMostRecentFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, st.Append(ctx, testEntry(fmt.Sprintf("e-%d", i))))
	}

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e-2", entries[0].ID)
	assert.Equal(t, "e-0", entries[2].ID)
}

func TestLedger_EntryRoundTrip_PreservesDetails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := testEntry("e-1")
	require.NoError(t, st.Append(ctx, in))

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, in.Actor, got.Actor)
	assert.Equal(t, in.Action, got.Action)
	assert.Equal(t, in.Details.Description, got.Details.Description)
	require.NotNil(t, got.Details.OldValue)
	assert.True(t, got.Details.OldValue.Equal(*in.Details.OldValue))
	assert.True(t, got.Details.NewValue.Equal(*in.Details.NewValue))
	assert.True(t, got.Timestamp.Equal(in.Timestamp))
}

func TestLedger_AppendBatch_ChronologicalOrderIn(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, testEntry("older")))
	require.NoError(t, st.AppendBatch(ctx, []pricing.LedgerEntry{
		testEntry("b-1"), testEntry("b-2"), testEntry("b-3"),
	}))

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "b-3", entries[0].ID)
	assert.Equal(t, "b-1", entries[2].ID)
	assert.Equal(t, "older", entries[3].ID)
}

func TestLedger_DuplicateEntryID_Rejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, testEntry("e-1")))
	assert.Error(t, st.Append(ctx, testEntry("e-1")))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollbackLeavesNoTrace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx pricing.Store) error {
		if err := tx.SaveCatalog(ctx, []pricing.PriceItem{testItem("a", "1.00")}); err != nil {
			return err
		}
		if err := tx.Append(ctx, testEntry("e-1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	items, err := st.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWithTx_CommitVisibleAndNotifiedOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var kinds []pricing.ChangeKind
	cancel := st.Subscribe(func(kind pricing.ChangeKind) { kinds = append(kinds, kind) })
	defer cancel()

	err := st.WithTx(ctx, func(tx pricing.Store) error {
		if err := tx.SaveCatalog(ctx, []pricing.PriceItem{testItem("a", "1.00")}); err != nil {
			return err
		}
		return tx.AppendBatch(ctx, []pricing.LedgerEntry{testEntry("e-1"), testEntry("e-2")})
	})
	require.NoError(t, err)

	items, err := st.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// One notification per changed kind, fired after commit.
	assert.ElementsMatch(t, []pricing.ChangeKind{pricing.ChangeCatalog, pricing.ChangeLedger}, kinds)
}
