package storage

import (
	"fmt"
	"path/filepath"
)

// Pager owns a PageMedium and hands out fresh heaps, used by the
// catalog to materialize a table's or index's backing pages.
type Pager struct {
	medium PageMedium
}

// NewPager wraps a PageMedium.
func NewPager(medium PageMedium) *Pager { return &Pager{medium: medium} }

// Medium returns the underlying PageMedium (used by the B-tree's paged
// node list, which shares the same medium as the row heaps).
func (p *Pager) Medium() PageMedium { return p.medium }

// AllocateHeap allocates a fresh root page and returns a Heap rooted
// there alongside the root page-id (to be recorded in the catalog).
func (p *Pager) AllocateHeap() (*Heap, PageID, error) {
	root, err := p.medium.Allocate()
	if err != nil {
		return nil, 0, fmt.Errorf("storage: allocating heap root: %w", err)
	}
	return NewHeap(p.medium, root), root, nil
}

// OpenHeap opens a Heap rooted at an already-allocated page (used on
// catalog reopen).
func (p *Pager) OpenHeap(root PageID) *Heap {
	return NewHeap(p.medium, root)
}

// OpenFile opens the file-backed engine rooted at dir/db, creating it
// if create is true and it does not yet exist. It returns a Pager the
// catalog can bootstrap or reopen against.
func OpenFile(dir string, create bool) (*Pager, *FileMedium, error) {
	medium, err := OpenFileMedium(filepath.Join(dir, "db"), create)
	if err != nil {
		return nil, nil, err
	}
	return NewPager(medium), medium, nil
}

// OpenLocalKV opens a file-backed engine under dir named by prefix,
// giving the host-facing local_kv() entry point a distinct on-disk
// identity from OpenFile's default "db" file. A Go host has no
// browser-local-storage medium to bind to, so this — like OpenIndexed —
// backs onto the same paged file engine.
func OpenLocalKV(dir, prefix string) (*Pager, *FileMedium, error) {
	if prefix == "" {
		prefix = "local"
	}
	medium, err := OpenFileMedium(filepath.Join(dir, prefix+".kv"), true)
	if err != nil {
		return nil, nil, err
	}
	return NewPager(medium), medium, nil
}

// OpenIndexed opens a file-backed engine under dir named by name,
// giving the host-facing indexed() entry point a distinct on-disk
// identity. See OpenLocalKV.
func OpenIndexed(dir, name string) (*Pager, *FileMedium, error) {
	if name == "" {
		name = "indexed"
	}
	medium, err := OpenFileMedium(filepath.Join(dir, name+".idb"), true)
	if err != nil {
		return nil, nil, err
	}
	return NewPager(medium), medium, nil
}

// OpenMemory returns a Pager over a fresh in-memory medium, used by
// in_memory() and by tests.
func OpenMemory() *Pager {
	return NewPager(NewMemoryMedium())
}
