package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func rec(id, worker, payDate, key string, created time.Time) generic.Record {
	return generic.Record{
		ID:        generic.CalculationID(id),
		WorkerRef: generic.WorkerRef(worker),
		PayDate:   generic.MustParseDate(payDate),
		PayCycle:  "weekly",
		Gross:     decimal.RequireFromString("880.00"),
		Scale:     "nat1004.scale2",
		Base:      decimal.NewFromInt(124),
		Lines: []generic.RecordLine{
			{Kind: "medicare_levy_reduction", Amount: decimal.NewFromInt(-18)},
			{Kind: "extra_pay_period", Amount: decimal.NewFromInt(3)},
		},
		Withheld:       decimal.NewFromInt(109),
		IdempotencyKey: key,
		Metadata:       map[string]string{"source": "test"},
		CreatedAt:      created,
	}
}

var t0 = time.Date(2024, time.October, 15, 9, 0, 0, 0, time.UTC)

func TestStore_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	want := rec("calc-1", "emp-1", "2024-10-15", "run-1/emp-1", t0)
	require.NoError(t, store.Append(ctx, want))

	got, err := store.Get(ctx, "calc-1")
	require.NoError(t, err)

	assert.Equal(t, want.WorkerRef, got.WorkerRef)
	assert.Equal(t, "2024-10-15", got.PayDate.String())
	assert.Equal(t, "weekly", got.PayCycle)
	assert.True(t, want.Gross.Equal(got.Gross), "gross %s", got.Gross)
	assert.True(t, want.Withheld.Equal(got.Withheld), "withheld %s", got.Withheld)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "medicare_levy_reduction", got.Lines[0].Kind)
	assert.True(t, got.Lines[0].Amount.Equal(decimal.NewFromInt(-18)))
	assert.Equal(t, "test", got.Metadata["source"])
	assert.True(t, t0.Equal(got.CreatedAt))
}

func TestStore_GetMissing(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

func TestStore_DuplicateIdempotencyKey(t *testing.T) {
	// GIVEN: a record written with a key
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Append(ctx, rec("calc-1", "emp-1", "2024-10-15", "run-1/emp-1", t0)))

	// WHEN: another record reuses the key
	err := store.Append(ctx, rec("calc-2", "emp-1", "2024-10-15", "run-1/emp-1", t0.Add(time.Second)))

	// THEN: it is rejected and the original is still findable by key
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	original, err := store.FindByIdempotencyKey(ctx, "run-1/emp-1")
	require.NoError(t, err)
	assert.Equal(t, generic.CalculationID("calc-1"), original.ID)
}

func TestStore_EmptyKeysDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Append(ctx, rec("calc-1", "emp-1", "2024-10-15", "", t0)))
	require.NoError(t, store.Append(ctx, rec("calc-2", "emp-1", "2024-10-22", "", t0.Add(time.Second))))

	_, err := store.FindByIdempotencyKey(ctx, "")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

func TestStore_LoadByWorker(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// Appended out of pay-date order
	for i, pd := range []string{"2024-10-15", "2024-06-28", "2024-07-05", "2025-07-04"} {
		id := "emp-1-" + pd
		require.NoError(t, store.Append(ctx, rec(id, "emp-1", pd, "", t0.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, store.Append(ctx, rec("emp-2", "emp-2", "2024-10-15", "", t0)))

	fy := generic.AustralianFiscalYear.FiscalYear(2025)
	got, err := store.LoadByWorker(ctx, "emp-1", fy.Start, fy.End)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-07-05", got[0].PayDate.String())
	assert.Equal(t, "2024-10-15", got[1].PayDate.String())
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i := 0; i < 5; i++ {
		id := []string{"a", "b", "c", "d", "e"}[i]
		require.NoError(t, store.Append(ctx, rec(id, "emp-1", "2024-10-15", "", t0.Add(time.Duration(i)*time.Millisecond))))
	}

	got, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, generic.CalculationID("e"), got[0].ID)
	assert.Equal(t, generic.CalculationID("d"), got[1].ID)
	assert.Equal(t, generic.CalculationID("c"), got[2].ID)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Append(ctx, rec("calc-1", "emp-1", "2024-10-15", "k", t0)))

	require.NoError(t, store.Reset(ctx))

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// keys are free again after a reset
	require.NoError(t, store.Append(ctx, rec("calc-2", "emp-1", "2024-10-15", "k", t0)))
}

func TestStore_WithJournal(t *testing.T) {
	ctx := context.Background()
	journal := generic.NewJournal(newStore(t))

	r := rec("", "emp-1", "2024-10-15", "run-9/emp-1", time.Time{})
	first, replayed, err := journal.Record(ctx, r)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEmpty(t, first.ID)

	second, replayed, err := journal.Record(ctx, r)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
}
