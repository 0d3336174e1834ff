// Package table implements the Table Handle: typed insert, lookup,
// scan, update and remove over a single user table, with unique
// constraint enforcement and secondary-index maintenance.
package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pauldb/internal/btree"
	"pauldb/internal/catalog"
	"pauldb/internal/record"
	"pauldb/internal/schema"
	"pauldb/internal/storage"
	"pauldb/internal/types"
)

// defaultIndexOrder is the B-tree order used for a table handle's
// secondary indexes when the host does not configure one.
const defaultIndexOrder = 32

var (
	// ErrInvalidRecord is returned when an inserted or updated record
	// fails schema validation.
	ErrInvalidRecord = errors.New("table: invalid record")
	// ErrUniqueViolation is returned when a unique column's index
	// already contains the value being inserted.
	ErrUniqueViolation = errors.New("table: unique constraint violation")
	// ErrNotFound is returned by the "...OrThrow" lookups.
	ErrNotFound = errors.New("table: row not found")
)

// Handle is a typed view over one user table: its schema, its row
// heap, and its secondary indexes.
type Handle struct {
	cat    *catalog.Catalog
	meta   *catalog.TableMeta
	schema *schema.Table
	codec  *record.Codec
	heap   *storage.Heap
	order  int
	log    *logrus.Logger

	indexes     map[string]*indexEntry
	subscribers []func()
}

type indexEntry struct {
	tree *btree.Tree
	list *btree.PagedNodeList
	col  schema.Column
}

// Open builds a Handle over an already-resolved table. order is the
// B-tree order for the handle's secondary indexes; zero keeps the
// engine default.
func Open(cat *catalog.Catalog, meta *catalog.TableMeta, tableSchema *schema.Table, order int, log *logrus.Logger) (*Handle, error) {
	codec, err := record.NewCodec(tableSchema)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	if order <= 0 {
		order = defaultIndexOrder
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handle{
		cat:     cat,
		meta:    meta,
		schema:  tableSchema,
		codec:   codec,
		heap:    cat.Heap(meta),
		order:   order,
		log:     log,
		indexes: make(map[string]*indexEntry),
	}, nil
}

// Name returns the table's name.
func (h *Handle) Name() string { return h.schema.Name }

// Schema returns the table's current schema.
func (h *Handle) Schema() *schema.Table { return h.schema }

func (h *Handle) checkDropped() error {
	if h.meta.Dropped {
		return catalog.ErrDropped
	}
	return nil
}

// Subscribe registers handler to be invoked after every commit (insert,
// update, or remove), mirroring the host-facing $subscribe re-execution
// hook.
func (h *Handle) Subscribe(handler func()) {
	h.subscribers = append(h.subscribers, handler)
}

func (h *Handle) notify() {
	for _, s := range h.subscribers {
		s()
	}
}

func (h *Handle) ensureIndex(col schema.Column) (*indexEntry, error) {
	if e, ok := h.indexes[col.Name]; ok {
		return e, nil
	}
	codec := col.Type.Codec()
	if codec == nil {
		return nil, fmt.Errorf("table: column %q has no codec, cannot be indexed", col.Name)
	}
	list := btree.NewPagedNodeList(h.cat.Pager().Medium(), codec)
	cmp := btree.Comparator(col.Type.Compare)

	var tree *btree.Tree
	if root, ok := h.cat.IndexRoot(h.meta.ID, col.Name); ok {
		tree = btree.Open(list, cmp, h.order, btree.NodeID(root))
	} else {
		var err error
		tree, err = btree.New(list, cmp, h.order)
		if err != nil {
			return nil, err
		}
		if err := h.cat.RecordIndexRoot(h.meta.ID, col.Name, storage.PageID(tree.Root())); err != nil {
			return nil, err
		}
	}
	e := &indexEntry{tree: tree, list: list, col: col}
	h.indexes[col.Name] = e
	return e, nil
}

// prepareInsert validates rec against the schema, applying defaults and
// auto-assigning serial columns, and returns the fully-populated
// stored-column record.
func (h *Handle) prepareInsert(rec schema.Record) (schema.Record, error) {
	out := rec.Clone()
	for _, col := range h.schema.StoredColumns() {
		v, present := out[col.Name]
		if !present {
			switch {
			case isSerial(col.Type):
				next, err := h.cat.AllocateSerial(h.meta)
				if err != nil {
					return nil, err
				}
				v = next
			case col.HasDefault:
				dv, err := col.Default()
				if err != nil {
					return nil, fmt.Errorf("%w: column %q default: %v", ErrInvalidRecord, col.Name, err)
				}
				v = dv
			case col.Type.IsValid(types.Null{}):
				v = types.Null{}
			default:
				return nil, fmt.Errorf("%w: column %q missing a value", ErrInvalidRecord, col.Name)
			}
			out[col.Name] = v
		}
		if !col.Type.IsValid(v) {
			return nil, fmt.Errorf("%w: column %q has an invalid value", ErrInvalidRecord, col.Name)
		}
	}
	return out, nil
}

// Insert validates rec, enforces unique constraints, persists it, and
// maintains every indexed column, returning the assigned row-id.
func (h *Handle) Insert(ctx context.Context, rec schema.Record) (storage.RowID, error) {
	if err := h.checkDropped(); err != nil {
		return 0, err
	}
	full, err := h.prepareInsert(rec)
	if err != nil {
		return 0, err
	}

	for _, col := range h.schema.Columns {
		if !col.Unique {
			continue
		}
		idx, err := h.ensureIndex(col)
		if err != nil {
			return 0, err
		}
		v, err := col.Value(full)
		if err != nil {
			return 0, err
		}
		if has, err := idx.tree.Has(v); err != nil {
			return 0, err
		} else if has {
			return 0, fmt.Errorf("%w: column %q", ErrUniqueViolation, col.Name)
		}
	}

	buf, err := h.codec.Encode(full)
	if err != nil {
		return 0, err
	}
	rowID, err := h.heap.Insert(buf)
	if err != nil {
		return 0, err
	}

	if err := h.indexRow(full, rowID); err != nil {
		return 0, err
	}
	if err := h.commitAll(); err != nil {
		return 0, err
	}
	h.notify()
	return rowID, nil
}

// InsertMany inserts each record in order; it is semantically
// equivalent to repeated Insert calls and makes no partial-rollback
// promise on a mid-sequence failure.
func (h *Handle) InsertMany(ctx context.Context, recs []schema.Record) ([]storage.RowID, error) {
	ids := make([]storage.RowID, 0, len(recs))
	for _, rec := range recs {
		id, err := h.Insert(ctx, rec)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handle) indexRow(full schema.Record, rowID storage.RowID) error {
	for _, col := range h.schema.IndexedColumns() {
		idx, err := h.ensureIndex(col)
		if err != nil {
			return err
		}
		v, err := col.Value(full)
		if err != nil {
			return err
		}
		if err := idx.tree.Insert(v, rowID); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handle) unindexRow(full schema.Record, rowID storage.RowID) error {
	for _, col := range h.schema.IndexedColumns() {
		idx, err := h.ensureIndex(col)
		if err != nil {
			return err
		}
		v, err := col.Value(full)
		if err != nil {
			return err
		}
		if err := idx.tree.Remove(v, rowID); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handle) commitAll() error {
	if err := h.heap.Commit(); err != nil {
		return err
	}
	for _, idx := range h.indexes {
		if err := idx.tree.Commit(); err != nil {
			return err
		}
		root := storage.PageID(idx.tree.Root())
		if recorded, ok := h.cat.IndexRoot(h.meta.ID, idx.col.Name); !ok || recorded != root {
			if err := h.cat.RecordIndexRoot(h.meta.ID, idx.col.Name, root); err != nil {
				return err
			}
		}
	}
	return nil
}

func isSerial(t interface{ Name() string }) bool {
	return t.Name() == "serial"
}
