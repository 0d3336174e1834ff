// Package storage implements PaulDB's pluggable paged row store: the
// contract every persistence backend (in-memory, file-backed heap,
// local-kv, indexed) satisfies, plus the page-medium abstraction the
// file-backed backends and the B-tree node list share.
package storage

import (
	"context"
	"errors"

	"pauldb/internal/seq"
)

// RowID is an opaque, totally ordered identifier assigned by a row
// store on insert. It remains stable for the record's lifetime even if
// the backend relocates the underlying bytes (see Heap's forwarding
// slots).
type RowID uint64

// RowEntry pairs a RowID with its raw encoded bytes, as produced by
// RowStore.Iterate.
type RowEntry struct {
	ID   RowID
	Data []byte
}

// ErrDropped is returned by any operation against a row store after
// Drop has been called.
var ErrDropped = errors.New("storage: row store has been dropped")

// RowStore is the contract every persistence backend satisfies. Writes
// are staged in a dirty buffer and a tombstone set until Commit; Get
// and Iterate read through the staged state so a caller observes its
// own uncommitted writes.
type RowStore interface {
	// Insert stages a new row and returns its assigned RowID.
	Insert(data []byte) (RowID, error)

	// Get returns the row's current bytes. ok is false if the id is
	// missing or tombstoned.
	Get(id RowID) (data []byte, ok bool, err error)

	// Set stages a replacement for an existing row.
	Set(id RowID, data []byte) error

	// Remove stages a tombstone for id. Removing a missing id is a
	// no-op.
	Remove(id RowID) error

	// Iterate returns a lazy sequence over all live rows, reading
	// through any staged (uncommitted) state, in insertion order.
	Iterate(ctx context.Context) seq.Seq[RowEntry]

	// Commit flushes staged writes and tombstones to the backing
	// medium.
	Commit() error

	// Drop releases the store's resources. Every subsequent call
	// (besides Drop itself) fails with ErrDropped.
	Drop() error
}
