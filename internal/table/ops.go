package table

import (
	"context"
	"fmt"

	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/storage"
)

// Row pairs a materialized record with its row-id, the shape table
// scans and index lookups produce for callers that need to act on a
// specific row afterward (update, remove).
type Row struct {
	ID     storage.RowID
	Record schema.Record
}

// materialize decodes a stored-column buffer and derives every computed
// column's value from it.
func (h *Handle) materialize(buf []byte) (schema.Record, error) {
	rec, err := h.codec.Decode(buf)
	if err != nil {
		return nil, err
	}
	for _, col := range h.schema.Columns {
		if col.Kind != schema.Computed {
			continue
		}
		v, err := col.Compute(rec)
		if err != nil {
			return nil, fmt.Errorf("table: computing column %q: %w", col.Name, err)
		}
		rec[col.Name] = v
	}
	return rec, nil
}

func (h *Handle) resolveIndexedColumn(indexName string) (*schema.Column, error) {
	col := h.schema.Column(indexName)
	if col == nil {
		return nil, fmt.Errorf("table: no such column %q", indexName)
	}
	if !col.Indexed && !col.Unique {
		return nil, fmt.Errorf("table: column %q is not indexed", indexName)
	}
	return col, nil
}

// findByIndex resolves value against indexName's index and
// materializes the matching rows, in the index's value-list order.
func (h *Handle) findByIndex(indexName string, value any) ([]Row, error) {
	col, err := h.resolveIndexedColumn(indexName)
	if err != nil {
		return nil, err
	}
	idx, err := h.ensureIndex(*col)
	if err != nil {
		return nil, err
	}
	rowIDs, ok, err := idx.tree.Get(value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out := make([]Row, 0, len(rowIDs))
	for _, v := range rowIDs {
		rowID := v.(storage.RowID)
		data, found, err := h.heap.Get(rowID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		rec, err := h.materialize(data)
		if err != nil {
			return nil, err
		}
		out = append(out, Row{ID: rowID, Record: rec})
	}
	return out, nil
}

// Lookup resolves indexName to its rows matching value, in iteration
// order; non-existence yields an empty slice.
func (h *Handle) Lookup(ctx context.Context, indexName string, value any) ([]schema.Record, error) {
	if err := h.checkDropped(); err != nil {
		return nil, err
	}
	rows, err := h.findByIndex(indexName, value)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record
	}
	return out, nil
}

// LookupUnique returns the single row matching value on a unique
// index, if any.
func (h *Handle) LookupUnique(ctx context.Context, indexName string, value any) (schema.Record, bool, error) {
	rows, err := h.findByIndex(indexName, value)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0].Record, true, nil
}

// LookupUniqueOrThrow is LookupUnique but fails with ErrNotFound
// instead of returning ok=false.
func (h *Handle) LookupUniqueOrThrow(ctx context.Context, indexName string, value any) (schema.Record, error) {
	rec, ok, err := h.LookupUnique(ctx, indexName, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s = %v", ErrNotFound, indexName, value)
	}
	return rec, nil
}

// UpdateWhere locates the row by a unique index, merges patch over
// the stored record, re-validates it, and re-indexes every affected
// column (removing the old key, inserting the new one).
func (h *Handle) UpdateWhere(ctx context.Context, indexName string, value any, patch schema.Record) (schema.Record, error) {
	if err := h.checkDropped(); err != nil {
		return nil, err
	}
	col, err := h.resolveIndexedColumn(indexName)
	if err != nil {
		return nil, err
	}
	idx, err := h.ensureIndex(*col)
	if err != nil {
		return nil, err
	}
	rowIDs, ok, err := idx.tree.Get(value)
	if err != nil {
		return nil, err
	}
	if !ok || len(rowIDs) == 0 {
		return nil, fmt.Errorf("%w: %s = %v", ErrNotFound, indexName, value)
	}
	rowID := rowIDs[0].(storage.RowID)

	data, found, err := h.heap.Get(rowID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s = %v", ErrNotFound, indexName, value)
	}
	oldStored, err := h.codec.Decode(data)
	if err != nil {
		return nil, err
	}

	merged := oldStored.Clone()
	for k, v := range patch {
		merged[k] = v
	}
	for _, c := range h.schema.StoredColumns() {
		v, ok := merged[c.Name]
		if !ok || !c.Type.IsValid(v) {
			return nil, fmt.Errorf("%w: column %q has an invalid value", ErrInvalidRecord, c.Name)
		}
	}

	if err := h.unindexRow(oldStored, rowID); err != nil {
		return nil, err
	}
	buf, err := h.codec.Encode(merged)
	if err != nil {
		return nil, err
	}
	if err := h.heap.Set(rowID, buf); err != nil {
		return nil, err
	}
	if err := h.indexRow(merged, rowID); err != nil {
		return nil, err
	}
	if err := h.commitAll(); err != nil {
		return nil, err
	}
	h.notify()
	return h.materialize(buf)
}

// Remove deletes the row and every index entry derived from it. A
// missing row-id is a no-op.
func (h *Handle) Remove(ctx context.Context, rowID storage.RowID) error {
	if err := h.checkDropped(); err != nil {
		return err
	}
	data, found, err := h.heap.Get(rowID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	stored, err := h.codec.Decode(data)
	if err != nil {
		return err
	}
	if err := h.unindexRow(stored, rowID); err != nil {
		return err
	}
	if err := h.heap.Remove(rowID); err != nil {
		return err
	}
	if err := h.commitAll(); err != nil {
		return err
	}
	h.notify()
	return nil
}

// Iterate streams every live row in insertion order.
func (h *Handle) Iterate(ctx context.Context) (seq.Seq[Row], error) {
	if err := h.checkDropped(); err != nil {
		return nil, err
	}
	entries := h.heap.Iterate(ctx)
	return seq.Map(entries, func(_ context.Context, e storage.RowEntry) (Row, error) {
		rec, err := h.materialize(e.Data)
		if err != nil {
			return Row{}, err
		}
		return Row{ID: e.ID, Record: rec}, nil
	}), nil
}

// ScanIter is a filtered full scan over column == value, used when no
// index exists for column.
func (h *Handle) ScanIter(ctx context.Context, column string, value any) (seq.Seq[Row], error) {
	col := h.schema.Column(column)
	if col == nil {
		return nil, fmt.Errorf("table: no such column %q", column)
	}
	rows, err := h.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return seq.Filter(rows, func(_ context.Context, r Row) (bool, error) {
		v, err := col.Value(r.Record)
		if err != nil {
			return false, err
		}
		return col.Type.Equal(v, value), nil
	}), nil
}
