package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreStagingAndCommit(t *testing.T) {
	s := NewMemoryStore()
	id, err := s.Insert([]byte("hello"))
	require.NoError(t, err)

	data, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, s.Commit())

	data, ok, err = s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, s.Remove(id))
	_, ok, err = s.Get(id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Commit())
	_, ok, err = s.Get(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRemoveMissingIsNoop(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Remove(RowID(999)))
}

func TestMemoryStoreDropFailsSubsequentOps(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Drop())
	assert.ErrorIs(t, s.Commit(), ErrDropped)
}

func TestHeapInsertGetIterate(t *testing.T) {
	pager := OpenMemory()
	h, root, err := pager.AllocateHeap()
	require.NoError(t, err)
	assert.NotZero(t, root)

	var ids []RowID
	for i := 0; i < 5; i++ {
		id, err := h.Insert([]byte{byte(i), byte(i + 1)})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, h.Commit())

	for i, id := range ids {
		data, ok, err := h.Get(id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte{byte(i), byte(i + 1)}, data)
	}

	entries, err := drain(h)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestHeapRemoveTombstones(t *testing.T) {
	pager := OpenMemory()
	h, _, err := pager.AllocateHeap()
	require.NoError(t, err)

	id, err := h.Insert([]byte("row"))
	require.NoError(t, err)
	require.NoError(t, h.Remove(id))
	_, ok, err := h.Get(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHeapSetGrowsWithForwarding(t *testing.T) {
	pager := OpenMemory()
	h, _, err := pager.AllocateHeap()
	require.NoError(t, err)

	// Leave too little free space on the first page for the grown row,
	// so Set has to relocate it and leave a forwarding slot behind.
	_, err = h.Insert(make([]byte, 3500))
	require.NoError(t, err)
	id, err := h.Insert([]byte("small"))
	require.NoError(t, err)

	big := make([]byte, 600)
	err = h.Set(id, big)
	require.NoError(t, err)

	data, ok, err := h.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big, data)
	assert.NotEqual(t, PageID(0), id.Page())
}

func TestHeapOverflowsAcrossPages(t *testing.T) {
	pager := OpenMemory()
	h, _, err := pager.AllocateHeap()
	require.NoError(t, err)

	payload := make([]byte, 512)
	var ids []RowID
	for i := 0; i < 50; i++ {
		id, err := h.Insert(payload)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	entries, err := drain(h)
	require.NoError(t, err)
	assert.Len(t, entries, 50)

	pageSet := map[PageID]bool{}
	for _, id := range ids {
		pageSet[id.Page()] = true
	}
	assert.Greater(t, len(pageSet), 1, "expected inserts to overflow into multiple pages")
}

func drain(h *Heap) ([]RowEntry, error) {
	s := h.Iterate(context.Background())
	var out []RowEntry
	for {
		e, ok, err := s.Next(context.Background())
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, e)
	}
}
