package catalog

import (
	"context"

	"pauldb/internal/record"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/storage"
)

// registerSchema writes one __dbSchemas row and one __dbTableColumns
// row per column for tableID's schema t, returning the new schema-id.
func (c *Catalog) registerSchema(tableID uint32, t *schema.Table) (uint32, error) {
	schemaID := c.nextSchemaID
	c.nextSchemaID++

	buf, err := c.schemasCodec.Encode(schema.Record{
		"schemaId": schemaID,
		"tableId":  tableID,
		"version":  uint32(t.Version),
	})
	if err != nil {
		return 0, err
	}
	if _, err := c.schemas.Insert(buf); err != nil {
		return 0, err
	}

	for _, col := range t.Columns {
		columnID := c.nextColumnID
		c.nextColumnID++
		buf, err := c.tableColumnsCodec.Encode(schema.Record{
			"columnId":       columnID,
			"schemaId":       schemaID,
			"columnName":     col.Name,
			"typeDescriptor": col.Type.Name(),
			"flags":          columnFlags(col),
		})
		if err != nil {
			return 0, err
		}
		if _, err := c.tableColumns.Insert(buf); err != nil {
			return 0, err
		}
	}
	return schemaID, nil
}

// Resolve looks up (db, table). If absent and create is true, it
// allocates a fresh heap and registers desired as the table's schema;
// desired's Default/Compute functions are always taken from the caller
// since they are Go closures that cannot be persisted — only the
// structural shape (names, types, flags) round-trips through the
// catalog.
func (c *Catalog) Resolve(db, tableName string, desired *schema.Table, create bool) (*TableMeta, error) {
	if m, ok := c.byKey[tableKey(db, tableName)]; ok {
		if m.Dropped {
			return nil, ErrDropped
		}
		return m, nil
	}
	if !create {
		return nil, ErrTableNotFound
	}

	_, root, err := c.pager.AllocateHeap()
	if err != nil {
		return nil, err
	}

	tableID := c.nextTableID
	c.nextTableID++

	buf, err := c.tablesCodec.Encode(schema.Record{
		"db":         db,
		"tableName":  tableName,
		"heapPageId": uint32(root),
		"tableId":    tableID,
		"dropped":    uint32(0),
		"nextSerial": uint32(0),
	})
	if err != nil {
		return nil, err
	}
	rowID, err := c.tables.Insert(buf)
	if err != nil {
		return nil, err
	}
	if err := c.tables.Commit(); err != nil {
		return nil, err
	}

	schemaID, err := c.registerSchema(tableID, desired)
	if err != nil {
		return nil, err
	}
	if err := c.schemas.Commit(); err != nil {
		return nil, err
	}
	if err := c.tableColumns.Commit(); err != nil {
		return nil, err
	}

	m := &TableMeta{
		ID:       tableID,
		DB:       db,
		Name:     tableName,
		HeapRoot: root,
		SchemaID: schemaID,
		Version:  uint32(desired.Version),
		Schema:   desired,
		rowID:    rowID,
	}
	c.byID[tableID] = m
	c.byKey[tableKey(db, tableName)] = m
	c.log.WithField("table", tableName).Info("catalog: created table")
	return m, nil
}

// Heap opens the row heap backing a resolved table.
func (c *Catalog) Heap(m *TableMeta) *storage.Heap {
	return c.pager.OpenHeap(m.HeapRoot)
}

// IndexRoot returns the page-id rooting tableID's indexName index, or
// ok=false if it has not been materialized yet.
func (c *Catalog) IndexRoot(tableID uint32, indexName string) (storage.PageID, bool) {
	root, ok := c.indexRoots[indexKey(tableID, indexName)]
	return root, ok
}

// RecordIndexRoot persists root as tableID/indexName's index root when
// that index is first materialized and again whenever a root split
// replaces it; on reopen the last row recorded wins. The caller (the table
// handle) allocates root itself — as the node-id of the B-tree's own
// fresh root leaf — since the index's node list and the catalog's
// page allocator share the same medium.
func (c *Catalog) RecordIndexRoot(tableID uint32, indexName string, root storage.PageID) error {
	buf, err := c.indexesCodec.Encode(schema.Record{
		"tableId":    tableID,
		"indexName":  indexName,
		"heapPageId": uint32(root),
	})
	if err != nil {
		return err
	}
	if _, err := c.indexes.Insert(buf); err != nil {
		return err
	}
	if err := c.indexes.Commit(); err != nil {
		return err
	}
	c.indexRoots[indexKey(tableID, indexName)] = root
	return nil
}

// Pager exposes the underlying page medium for constructing a paged
// B-tree node list over an index's root.
func (c *Catalog) Pager() *storage.Pager { return c.pager }

// AllocateSerial returns m's next serial value and persists the
// incremented counter in m's __dbTables row, so serial assignment
// resumes from the catalog on reopen instead of scanning the heap.
func (c *Catalog) AllocateSerial(m *TableMeta) (uint32, error) {
	v := m.NextSerial
	droppedFlag := uint32(0)
	if m.Dropped {
		droppedFlag = 1
	}
	buf, err := c.tablesCodec.Encode(schema.Record{
		"db":         m.DB,
		"tableName":  m.Name,
		"heapPageId": uint32(m.HeapRoot),
		"tableId":    m.ID,
		"dropped":    droppedFlag,
		"nextSerial": v + 1,
	})
	if err != nil {
		return 0, err
	}
	if err := c.tables.Set(m.rowID, buf); err != nil {
		return 0, err
	}
	if err := c.tables.Commit(); err != nil {
		return 0, err
	}
	m.NextSerial = v + 1
	return v, nil
}

// Migration describes a schema change: the row transform from an old
// record to a new one under newSchema.
type Migration struct {
	Name      string
	NewSchema *schema.Table
	Transform func(schema.Record) (schema.Record, error)
}

// Migrate executes m against an already-resolved old table: it reads
// every old row through Transform into memory, tombstones the old
// table-id, creates a fresh table-id under NewSchema, then hands each
// transformed row to insertNew. The caller is responsible for
// re-materializing indexes against the new table as rows are inserted.
func (c *Catalog) Migrate(old *TableMeta, m Migration, oldCodec *record.Codec, insertNew func(schema.Record) error) (*TableMeta, error) {
	if old.Dropped {
		return nil, ErrDropped
	}
	// Stream the old table's rows before its catalog row is tombstoned
	// (the old heap's pages stay intact; only the __dbTables row
	// pointing at them is marked dropped).
	oldHeap := c.Heap(old)
	rows := make([]schema.Record, 0)
	if err := seq.ForEach(context.Background(), oldHeap.Iterate(context.Background()), func(e storage.RowEntry) error {
		rec, err := oldCodec.Decode(e.Data)
		if err != nil {
			return err
		}
		newRec, err := m.Transform(rec)
		if err != nil {
			return err
		}
		rows = append(rows, newRec)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := c.dropTable(old); err != nil {
		return nil, err
	}
	newMeta, err := c.Resolve(old.DB, old.Name, m.NewSchema, true)
	if err != nil {
		return nil, err
	}
	for _, rec := range rows {
		if err := insertNew(rec); err != nil {
			return nil, err
		}
	}

	c.log.WithField("migration", m.Name).Info("catalog: migration complete")
	return newMeta, nil
}

// dropTable tombstones m's __dbTables row; any TableMeta already held
// by a caller is marked Dropped in place so subsequent operations
// against it observe ErrDropped.
func (c *Catalog) dropTable(m *TableMeta) error {
	buf, err := c.tablesCodec.Encode(schema.Record{
		"db":         m.DB,
		"tableName":  m.Name,
		"heapPageId": uint32(m.HeapRoot),
		"tableId":    m.ID,
		"dropped":    uint32(1),
		"nextSerial": m.NextSerial,
	})
	if err != nil {
		return err
	}
	if err := c.tables.Set(m.rowID, buf); err != nil {
		return err
	}
	if err := c.tables.Commit(); err != nil {
		return err
	}
	m.Dropped = true
	delete(c.byKey, tableKey(m.DB, m.Name))
	return nil
}
