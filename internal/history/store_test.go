package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr(v float64) *float64 { return &v }

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Record(ctx, Entry{Expression: "2+2", Postfix: "2 2 +", Result: ptr(4)})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = store.Record(ctx, Entry{Expression: "5/0", Postfix: "5 0 /", ErrorKind: "DivisionByZero", Error: "cannot divide by zero"})
	require.NoError(t, err)

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "5/0", entries[0].Expression)
	assert.False(t, entries[0].Succeeded())
	assert.Equal(t, "DivisionByZero", entries[0].ErrorKind)

	assert.Equal(t, "2+2", entries[1].Expression)
	require.True(t, entries[1].Succeeded())
	assert.Equal(t, 4.0, *entries[1].Result)
	assert.Equal(t, "2 2 +", entries[1].Postfix)
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Record(ctx, Entry{Expression: "1", Result: ptr(1)})
		require.NoError(t, err)
	}

	entries, err := store.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestListEmpty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	saved, err := store.Record(ctx, Entry{Expression: "(2+3)*4", Result: ptr(20), CreatedAt: created})
	require.NoError(t, err)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "(2+3)*4", got.Expression)
	assert.Equal(t, 20.0, *got.Result)
	assert.True(t, created.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)

	_, err = store.Get(ctx, saved.ID+100)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPruneAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, expr := range []string{"1", "2", "3", "4"} {
		_, err := store.Record(ctx, Entry{Expression: expr, Result: ptr(0)})
		require.NoError(t, err)
	}

	removed, err := store.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "4", entries[0].Expression)
	assert.Equal(t, "3", entries[1].Expression)

	require.NoError(t, store.Clear(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpenInMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Record(context.Background(), Entry{Expression: "1+1", Result: ptr(2)})
	require.NoError(t, err)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Record(context.Background(), Entry{Expression: "9-1", Result: ptr(8)})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "9-1", entries[0].Expression)
}

func TestRecorderWithSession(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var seen []Entry
	recorder := NewRecorder(store, 2, func(e Entry) { seen = append(seen, e) })
	s := session.New(session.WithRecorder(recorder))

	s.PressAll(ctx, "1+1=")
	s.PressAll(ctx, "*3=")
	s.PressAll(ctx, "/0=")

	require.Len(t, seen, 3)
	assert.Equal(t, "2*3", seen[1].Expression)
	assert.Equal(t, "2 3 *", seen[1].Postfix)

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "recorder prunes to its limit")
	assert.Equal(t, "6/0", entries[0].Expression)
	assert.Equal(t, calc.KindDivisionByZero.String(), entries[0].ErrorKind)
	assert.Contains(t, entries[0].Error, "cannot divide by zero")
}

func TestNewEntry(t *testing.T) {
	ok := NewEntry(session.Evaluation{SessionID: "keypad", Expression: "1+2", Postfix: calc.Compile("1+2"), Result: 3})
	require.True(t, ok.Succeeded())
	assert.Equal(t, "keypad", ok.SessionID)
	assert.Equal(t, 3.0, *ok.Result)
	assert.Equal(t, "1 2 +", ok.Postfix)

	_, err := calc.Evaluate("+")
	failed := NewEntry(session.Evaluation{Expression: "+", Err: err})
	assert.False(t, failed.Succeeded())
	assert.Equal(t, "InvalidExpression", failed.ErrorKind)
}

func TestSessionIDRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stored, err := store.Record(ctx, Entry{SessionID: "api", Expression: "1", Postfix: "1", Result: ptr(1)})
	require.NoError(t, err)

	got, err := store.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "api", got.SessionID)
}
