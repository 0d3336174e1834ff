package btree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/storage"
)

func intCmp(a, b any) int {
	x, y := a.(int), b.(int)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func drainEntries(t *testing.T, s interface {
	Next(context.Context) (Entry, bool, error)
}) []Entry {
	t.Helper()
	var out []Entry
	for {
		e, ok, err := s.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func TestInsertGetOrdered(t *testing.T) {
	tree, err := New(NewMemoryNodeList(), intCmp, 4)
	require.NoError(t, err)

	for _, k := range []int{5, 1, 9, 3, 7, 2, 8, 4, 6, 0} {
		require.NoError(t, tree.Insert(k, k*10))
	}

	for _, k := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9} {
		vals, ok, err := tree.Get(k)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []any{k * 10}, vals)
	}

	_, ok, err := tree.Get(42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertDuplicateKeyAccumulatesValues(t *testing.T) {
	tree, err := New(NewMemoryNodeList(), intCmp, 4)
	require.NoError(t, err)

	require.NoError(t, tree.Insert(1, "a"))
	require.NoError(t, tree.Insert(1, "b"))
	require.NoError(t, tree.Insert(1, "c"))

	vals, ok, err := tree.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b", "c"}, vals)
}

func TestSplitKeepsAllKeysInOrder(t *testing.T) {
	tree, err := New(NewMemoryNodeList(), intCmp, 3)
	require.NoError(t, err)

	n := 200
	for i := 0; i < n; i++ {
		require.NoError(t, tree.Insert(i, i))
	}

	seqEntries, err := tree.Range(context.Background(), RangeQuery{})
	require.NoError(t, err)
	entries := drainEntries(t, seqEntries)
	require.Len(t, entries, n)
	for i, e := range entries {
		assert.Equal(t, i, e.Key)
	}
}

func TestRangeBounds(t *testing.T) {
	tree, err := New(NewMemoryNodeList(), intCmp, 4)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, tree.Insert(i, i))
	}

	s, err := tree.Range(context.Background(), RangeQuery{
		Lo: &Bound{Value: 5, Inclusive: true},
		Hi: &Bound{Value: 10, Inclusive: false},
	})
	require.NoError(t, err)
	entries := drainEntries(t, s)
	var keys []int
	for _, e := range entries {
		keys = append(keys, e.Key.(int))
	}
	assert.Equal(t, []int{5, 6, 7, 8, 9}, keys)
}

func TestRemoveValueThenRemoveAll(t *testing.T) {
	tree, err := New(NewMemoryNodeList(), intCmp, 4)
	require.NoError(t, err)
	require.NoError(t, tree.Insert(1, "a"))
	require.NoError(t, tree.Insert(1, "b"))

	require.NoError(t, tree.Remove(1, "a"))
	vals, ok, err := tree.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{"b"}, vals)

	require.NoError(t, tree.RemoveAll(1))
	_, ok, err = tree.Get(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPagedNodeListRoundTrip(t *testing.T) {
	medium := storage.NewMemoryMedium()
	list := NewPagedNodeList(medium, fakeUint32Codec{})

	tree, err := New(list, intCmp, 4)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		require.NoError(t, tree.Insert(i, storage.RowID(i)))
	}
	require.NoError(t, tree.Commit())

	reopened := Open(NewPagedNodeList(medium, fakeUint32Codec{}), intCmp, 4, tree.Root())
	vals, ok, err := reopened.Get(15)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{storage.RowID(15)}, vals)
}

// fakeUint32Codec encodes the int keys used by these tests as a fixed
// 4-byte little-endian integer, matching how an int32 column's codec
// would behave.
type fakeUint32Codec struct{}

func (fakeUint32Codec) FixedSize() (int, bool) { return 4, true }
func (fakeUint32Codec) Size(any) int           { return 4 }
func (fakeUint32Codec) Write(v any, buf []byte, offset int) int {
	x := uint32(v.(int))
	buf[offset] = byte(x)
	buf[offset+1] = byte(x >> 8)
	buf[offset+2] = byte(x >> 16)
	buf[offset+3] = byte(x >> 24)
	return 4
}
func (fakeUint32Codec) Read(buf []byte, offset int) (any, int) {
	x := uint32(buf[offset]) | uint32(buf[offset+1])<<8 | uint32(buf[offset+2])<<16 | uint32(buf[offset+3])<<24
	return int(x), 4
}
