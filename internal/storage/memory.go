package storage

import (
	"context"
	"sort"
	"sync"

	"pauldb/internal/seq"
)

// MemoryStore is the in-memory RowStore backend: a plain mapping from
// RowID to encoded bytes, with no paging.
type MemoryStore struct {
	mu        sync.Mutex
	committed map[RowID][]byte
	dirty     map[RowID][]byte
	tombstone map[RowID]bool
	nextID    RowID
	dropped   bool
}

// NewMemoryStore returns an empty in-memory row store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		committed: make(map[RowID][]byte),
		dirty:     make(map[RowID][]byte),
		tombstone: make(map[RowID]bool),
		nextID:    1,
	}
}

func (s *MemoryStore) Insert(data []byte) (RowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return 0, ErrDropped
	}
	id := s.nextID
	s.nextID++
	cp := append([]byte(nil), data...)
	s.dirty[id] = cp
	delete(s.tombstone, id)
	return id, nil
}

func (s *MemoryStore) Get(id RowID) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return nil, false, ErrDropped
	}
	if s.tombstone[id] {
		return nil, false, nil
	}
	if d, ok := s.dirty[id]; ok {
		return d, true, nil
	}
	if d, ok := s.committed[id]; ok {
		return d, true, nil
	}
	return nil, false, nil
}

func (s *MemoryStore) Set(id RowID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return ErrDropped
	}
	s.dirty[id] = append([]byte(nil), data...)
	delete(s.tombstone, id)
	return nil
}

func (s *MemoryStore) Remove(id RowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return ErrDropped
	}
	delete(s.dirty, id)
	s.tombstone[id] = true
	return nil
}

func (s *MemoryStore) Iterate(ctx context.Context) seq.Seq[RowEntry] {
	s.mu.Lock()
	ids := make([]RowID, 0, len(s.committed)+len(s.dirty))
	seen := make(map[RowID]bool)
	for id := range s.committed {
		if !s.tombstone[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	for id := range s.dirty {
		if !seen[id] && !s.tombstone[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.mu.Unlock()

	i := 0
	return seq.Func[RowEntry](func(ctx context.Context) (RowEntry, bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var zero RowEntry
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		if s.dropped {
			return zero, false, ErrDropped
		}
		for i < len(ids) {
			id := ids[i]
			i++
			if s.tombstone[id] {
				continue
			}
			if d, ok := s.dirty[id]; ok {
				return RowEntry{ID: id, Data: d}, true, nil
			}
			if d, ok := s.committed[id]; ok {
				return RowEntry{ID: id, Data: d}, true, nil
			}
		}
		return zero, false, nil
	})
}

func (s *MemoryStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return ErrDropped
	}
	for id, d := range s.dirty {
		s.committed[id] = d
	}
	for id := range s.tombstone {
		delete(s.committed, id)
	}
	s.dirty = make(map[RowID][]byte)
	s.tombstone = make(map[RowID]bool)
	return nil
}

func (s *MemoryStore) Drop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = true
	s.committed = nil
	s.dirty = nil
	s.tombstone = nil
	return nil
}
