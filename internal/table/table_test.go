package table

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/catalog"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/storage"
	"pauldb/internal/types"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func usersSchema() *schema.Table {
	return &schema.Table{
		Name:      "users",
		KeyColumn: "id",
		Columns: []schema.Column{
			{Name: "id", Type: types.Serial, Unique: true, Indexed: true},
			{Name: "email", Type: types.String, Unique: true, Indexed: true},
			{Name: "age", Type: types.UInt16.Nullable()},
			{Name: "greeting", Kind: schema.Computed, Type: types.String, Compute: func(r schema.Record) (any, error) {
				return "hi " + r["email"].(string), nil
			}},
		},
	}
}

func openHandle(t *testing.T) *Handle {
	t.Helper()
	cat, err := catalog.Open(storage.NewPager(storage.NewMemoryMedium()), testLogger())
	require.NoError(t, err)
	meta, err := cat.Resolve("default", "users", usersSchema(), true)
	require.NoError(t, err)
	h, err := Open(cat, meta, usersSchema(), 0, testLogger())
	require.NoError(t, err)
	return h
}

func TestInsertAssignsSerialAndComputesColumn(t *testing.T) {
	h := openHandle(t)
	ctx := context.Background()

	id1, err := h.Insert(ctx, schema.Record{"email": "a@example.com"})
	require.NoError(t, err)
	id2, err := h.Insert(ctx, schema.Record{"email": "b@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	rec, ok, err := h.LookupUnique(ctx, "email", "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(0), rec["id"])
	assert.Equal(t, "hi a@example.com", rec["greeting"])
}

func TestUniqueViolation(t *testing.T) {
	h := openHandle(t)
	ctx := context.Background()
	_, err := h.Insert(ctx, schema.Record{"email": "dup@example.com"})
	require.NoError(t, err)
	_, err = h.Insert(ctx, schema.Record{"email": "dup@example.com"})
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestUniqueWithoutIndexedStillEnforced(t *testing.T) {
	sch := &schema.Table{
		Name: "accounts",
		Columns: []schema.Column{
			{Name: "handle", Type: types.String, Unique: true},
			{Name: "note", Type: types.String.Nullable()},
		},
	}
	cat, err := catalog.Open(storage.NewPager(storage.NewMemoryMedium()), testLogger())
	require.NoError(t, err)
	meta, err := cat.Resolve("default", "accounts", sch, true)
	require.NoError(t, err)
	h, err := Open(cat, meta, sch, 0, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = h.Insert(ctx, schema.Record{"handle": "blue"})
	require.NoError(t, err)
	_, err = h.Insert(ctx, schema.Record{"handle": "blue"})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	// The enforcing index is maintained like any explicitly-indexed
	// column's, so it answers lookups too.
	rec, ok, err := h.LookupUnique(ctx, "handle", "blue")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "blue", rec["handle"])
}

func TestMissingRequiredValueIsInvalid(t *testing.T) {
	h := openHandle(t)
	_, err := h.Insert(context.Background(), schema.Record{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestUpdateWhereReindexes(t *testing.T) {
	h := openHandle(t)
	ctx := context.Background()
	_, err := h.Insert(ctx, schema.Record{"email": "old@example.com"})
	require.NoError(t, err)

	_, err = h.UpdateWhere(ctx, "email", "old@example.com", schema.Record{"email": "new@example.com"})
	require.NoError(t, err)

	_, ok, err := h.LookupUnique(ctx, "email", "old@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	rec, ok, err := h.LookupUnique(ctx, "email", "new@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new@example.com", rec["email"])
}

func TestRemoveDropsIndexEntries(t *testing.T) {
	h := openHandle(t)
	ctx := context.Background()
	id, err := h.Insert(ctx, schema.Record{"email": "gone@example.com"})
	require.NoError(t, err)

	require.NoError(t, h.Remove(ctx, id))
	_, ok, err := h.LookupUnique(ctx, "email", "gone@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing a missing id is a no-op
	require.NoError(t, h.Remove(ctx, id))
}

func TestIterateInsertionOrder(t *testing.T) {
	h := openHandle(t)
	ctx := context.Background()
	var emails []string
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := h.Insert(ctx, schema.Record{"email": e})
		require.NoError(t, err)
		emails = append(emails, e)
	}

	rows, err := h.Iterate(ctx)
	require.NoError(t, err)
	all, err := seq.ToSlice(ctx, rows)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, r := range all {
		assert.Equal(t, emails[i], r.Record["email"])
	}
}

func TestSubscribeFiresAfterCommit(t *testing.T) {
	h := openHandle(t)
	calls := 0
	h.Subscribe(func() { calls++ })
	_, err := h.Insert(context.Background(), schema.Record{"email": "sub@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
