// Package catalog implements PaulDB's system tables: the bootstrap and
// reopen sequence, user-table resolution and lazy creation, lazy index
// materialization, and schema migration.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"pauldb/internal/record"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/storage"
	"pauldb/internal/types"
)

func parseDescriptor(s string) (types.Type, error) { return types.ParseTypeName(s) }

// pageIdsRoot is the one fixed page-id in the whole file: the root of
// the __dbPageIds heap, always the first page a fresh medium hands out.
const pageIdsRoot storage.PageID = 1

var (
	// ErrTableNotFound is returned resolving an unknown (db, table)
	// without create permission.
	ErrTableNotFound = errors.New("catalog: table not found")
	// ErrDropped is returned for any operation against a table-id that
	// migration or an explicit drop has superseded.
	ErrDropped = errors.New("catalog: table dropped")
)

// TableMeta is the catalog's resolved view of a user table: its
// identity, its current heap root, and its schema as last registered.
type TableMeta struct {
	ID         uint32
	DB         string
	Name       string
	HeapRoot   storage.PageID
	SchemaID   uint32
	Version    uint32
	Schema     *schema.Table
	Dropped    bool
	NextSerial uint32

	rowID storage.RowID
}

// Catalog owns the five system tables and the in-memory indexes over
// them built during bootstrap/reopen.
type Catalog struct {
	pager *storage.Pager
	log   *logrus.Logger

	pageIds      *storage.Heap
	tables       *storage.Heap
	schemas      *storage.Heap
	tableColumns *storage.Heap
	indexes      *storage.Heap

	pageIdsCodec      *record.Codec
	tablesCodec       *record.Codec
	schemasCodec      *record.Codec
	tableColumnsCodec *record.Codec
	indexesCodec      *record.Codec

	byKey map[string]*TableMeta // db + "\x00" + table
	byID  map[uint32]*TableMeta

	indexRoots    map[string]storage.PageID // fmt: tableID/indexName
	schemaToTable map[uint32]uint32         // schemaId -> tableId

	nextTableID  uint32
	nextSchemaID uint32
	nextColumnID uint32
}

func tableKey(db, name string) string { return db + "\x00" + name }
func indexKey(tableID uint32, name string) string { return fmt.Sprintf("%d/%s", tableID, name) }

// Open bootstraps a fresh database or reopens an existing one against
// pager, in either case leaving the Catalog ready to resolve tables.
func Open(pager *storage.Pager, log *logrus.Logger) (*Catalog, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Catalog{
		pager:             pager,
		log:               log,
		pageIdsCodec:      newCodec(dbPageIdsSchema()),
		tablesCodec:       newCodec(dbTablesSchema()),
		schemasCodec:      newCodec(dbSchemasSchema()),
		tableColumnsCodec: newCodec(dbTableColumnsSchema()),
		indexesCodec:      newCodec(dbIndexesSchema()),
		byKey:             make(map[string]*TableMeta),
		byID:              make(map[uint32]*TableMeta),
		indexRoots:        make(map[string]storage.PageID),
		schemaToTable:     make(map[uint32]uint32),
		nextTableID:       1,
		nextSchemaID:      1,
		nextColumnID:      1,
	}

	if fm, ok := pager.Medium().(*storage.FileMedium); ok {
		if err := storage.VerifyOrWriteRootHeader(fm, pageIdsRoot); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	if _, err := pager.Medium().Read(pageIdsRoot); err != nil {
		return c.bootstrap()
	}
	return c.reopen()
}

func (c *Catalog) bootstrap() (*Catalog, error) {
	pageIdsHeap, root, err := c.pager.AllocateHeap()
	if err != nil {
		return nil, err
	}
	if root != pageIdsRoot {
		return nil, fmt.Errorf("catalog: expected %s root at page %d, got %d", tableDbPageIds, pageIdsRoot, root)
	}
	tablesHeap, tablesRoot, err := c.pager.AllocateHeap()
	if err != nil {
		return nil, err
	}
	schemasHeap, schemasRoot, err := c.pager.AllocateHeap()
	if err != nil {
		return nil, err
	}
	columnsHeap, columnsRoot, err := c.pager.AllocateHeap()
	if err != nil {
		return nil, err
	}
	indexesHeap, indexesRoot, err := c.pager.AllocateHeap()
	if err != nil {
		return nil, err
	}

	c.pageIds, c.tables, c.schemas, c.tableColumns, c.indexes =
		pageIdsHeap, tablesHeap, schemasHeap, columnsHeap, indexesHeap

	roots := []struct {
		typ string
		id  storage.PageID
	}{
		{tableDbPageIds, pageIdsRoot},
		{tableDbTables, tablesRoot},
		{tableDbSchemas, schemasRoot},
		{tableDbTableColumns, columnsRoot},
		{tableDbIndexes, indexesRoot},
	}
	for _, r := range roots {
		buf, err := c.pageIdsCodec.Encode(schema.Record{"pageType": r.typ, "pageId": uint32(r.id)})
		if err != nil {
			return nil, err
		}
		if _, err := c.pageIds.Insert(buf); err != nil {
			return nil, err
		}
	}
	if err := c.pageIds.Commit(); err != nil {
		return nil, err
	}

	// Register the system tables' own schemas (version 0), so the
	// catalog describes itself through the same mechanism it uses to
	// describe user tables.
	for i, t := range []*schema.Table{
		dbPageIdsSchema(), dbTablesSchema(), dbSchemasSchema(), dbTableColumnsSchema(), dbIndexesSchema(),
	} {
		tableID := uint32(i + 1)
		if _, err := c.registerSchema(tableID, t); err != nil {
			return nil, err
		}
	}
	c.nextTableID = 6
	if err := c.schemas.Commit(); err != nil {
		return nil, err
	}
	if err := c.tableColumns.Commit(); err != nil {
		return nil, err
	}

	c.log.Info("catalog: bootstrapped system tables")
	return c, nil
}

func (c *Catalog) reopen() (*Catalog, error) {
	c.pageIds = c.pager.OpenHeap(pageIdsRoot)

	roots := make(map[string]storage.PageID)
	if err := seq.ForEach(context.Background(), c.pageIds.Iterate(context.Background()), func(e storage.RowEntry) error {
		rec, err := c.pageIdsCodec.Decode(e.Data)
		if err != nil {
			return err
		}
		roots[rec["pageType"].(string)] = storage.PageID(rec["pageId"].(uint32))
		return nil
	}); err != nil {
		return nil, err
	}

	for _, name := range []string{tableDbTables, tableDbSchemas, tableDbTableColumns, tableDbIndexes} {
		if _, ok := roots[name]; !ok {
			return nil, fmt.Errorf("catalog: %s missing from %s", name, tableDbPageIds)
		}
	}
	c.tables = c.pager.OpenHeap(roots[tableDbTables])
	c.schemas = c.pager.OpenHeap(roots[tableDbSchemas])
	c.tableColumns = c.pager.OpenHeap(roots[tableDbTableColumns])
	c.indexes = c.pager.OpenHeap(roots[tableDbIndexes])

	if err := c.loadTables(); err != nil {
		return nil, err
	}
	if err := c.loadSchemas(); err != nil {
		return nil, err
	}
	if err := c.loadColumns(); err != nil {
		return nil, err
	}
	if err := c.loadIndexes(); err != nil {
		return nil, err
	}
	c.log.Info("catalog: reopened")
	return c, nil
}

func (c *Catalog) loadTables() error {
	return seq.ForEach(context.Background(), c.tables.Iterate(context.Background()), func(e storage.RowEntry) error {
		rec, err := c.tablesCodec.Decode(e.Data)
		if err != nil {
			return err
		}
		id := rec["tableId"].(uint32)
		m := &TableMeta{
			ID:         id,
			DB:         rec["db"].(string),
			Name:       rec["tableName"].(string),
			HeapRoot:   storage.PageID(rec["heapPageId"].(uint32)),
			Dropped:    rec["dropped"].(uint32) != 0,
			NextSerial: rec["nextSerial"].(uint32),
			rowID:      e.ID,
		}
		c.byID[id] = m
		if !m.Dropped {
			c.byKey[tableKey(m.DB, m.Name)] = m
		}
		if id >= c.nextTableID {
			c.nextTableID = id + 1
		}
		return nil
	})
}

func (c *Catalog) loadSchemas() error {
	return seq.ForEach(context.Background(), c.schemas.Iterate(context.Background()), func(e storage.RowEntry) error {
		rec, err := c.schemasCodec.Decode(e.Data)
		if err != nil {
			return err
		}
		schemaID := rec["schemaId"].(uint32)
		tableID := rec["tableId"].(uint32)
		c.schemaToTable[schemaID] = tableID
		if schemaID >= c.nextSchemaID {
			c.nextSchemaID = schemaID + 1
		}
		if m, ok := c.byID[tableID]; ok {
			m.SchemaID = schemaID
			m.Version = rec["version"].(uint32)
		}
		return nil
	})
}

// indexedColumn pairs a decoded column with the columnId it was
// stored under, so columns can be restored in their original order
// even though __dbTableColumns rows for one schema need not be
// contiguous or ordered in the heap.
type indexedColumn struct {
	id  uint32
	col schema.Column
}

func (c *Catalog) loadColumns() error {
	bySchema := make(map[uint32][]indexedColumn)
	if err := seq.ForEach(context.Background(), c.tableColumns.Iterate(context.Background()), func(e storage.RowEntry) error {
		rec, err := c.tableColumnsCodec.Decode(e.Data)
		if err != nil {
			return err
		}
		columnID := rec["columnId"].(uint32)
		schemaID := rec["schemaId"].(uint32)
		typ, err := parseDescriptor(rec["typeDescriptor"].(string))
		if err != nil {
			return err
		}
		flags := rec["flags"].(uint32)
		col := schema.Column{
			Name:       rec["columnName"].(string),
			Type:       typ,
			Unique:     flags&flagUnique != 0,
			Indexed:    flags&flagIndexed != 0,
			HasDefault: flags&flagHasDefault != 0,
		}
		if flags&flagComputed != 0 {
			col.Kind = schema.Computed
		}
		bySchema[schemaID] = append(bySchema[schemaID], indexedColumn{id: columnID, col: col})
		if columnID >= c.nextColumnID {
			c.nextColumnID = columnID + 1
		}
		return nil
	}); err != nil {
		return err
	}

	cols := make(map[uint32][]schema.Column, len(bySchema))
	for schemaID, entries := range bySchema {
		sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
		out := make([]schema.Column, len(entries))
		for i, e := range entries {
			out[i] = e.col
		}
		cols[schemaID] = out
	}

	for _, m := range c.byID {
		if entries, ok := cols[m.SchemaID]; ok {
			m.Schema = &schema.Table{Name: m.Name, Columns: entries, Version: int(m.Version)}
		}
	}
	return nil
}

func (c *Catalog) loadIndexes() error {
	return seq.ForEach(context.Background(), c.indexes.Iterate(context.Background()), func(e storage.RowEntry) error {
		rec, err := c.indexesCodec.Decode(e.Data)
		if err != nil {
			return err
		}
		tableID := rec["tableId"].(uint32)
		name := rec["indexName"].(string)
		root := storage.PageID(rec["heapPageId"].(uint32))
		c.indexRoots[indexKey(tableID, name)] = root
		return nil
	})
}

// Close marks every resolved table dropped in memory (nothing is
// persisted), so any handle still holding a TableMeta fails with
// ErrDropped after the host shuts the database down. A later reopen
// reloads the metas fresh from disk.
func (c *Catalog) Close() {
	for _, m := range c.byID {
		m.Dropped = true
	}
	c.byKey = make(map[string]*TableMeta)
}

// Tables returns every live (non-dropped) user table the catalog
// currently knows about, sorted by (db, name). Used by introspection
// tooling (the CLI's "open" command); never consulted by query
// execution itself.
func (c *Catalog) Tables() []TableMeta {
	out := make([]TableMeta, 0, len(c.byKey))
	for _, m := range c.byKey {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DB != out[j].DB {
			return out[i].DB < out[j].DB
		}
		return out[i].Name < out[j].Name
	})
	return out
}
