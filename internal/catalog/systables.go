package catalog

import (
	"pauldb/internal/record"
	"pauldb/internal/schema"
	"pauldb/internal/types"
)

// The catalog's own system tables. Each is described by an ordinary
// schema.Table so it is readable through the same record.Codec
// mechanism used for user tables.
const (
	tableDbPageIds      = "__dbPageIds"
	tableDbTables       = "__dbTables"
	tableDbSchemas      = "__dbSchemas"
	tableDbTableColumns = "__dbTableColumns"
	tableDbIndexes      = "__dbIndexes"
)

func dbPageIdsSchema() *schema.Table {
	return &schema.Table{
		Name: tableDbPageIds,
		Columns: []schema.Column{
			{Name: "pageType", Type: types.String},
			{Name: "pageId", Type: types.UInt32},
		},
	}
}

func dbTablesSchema() *schema.Table {
	return &schema.Table{
		Name: tableDbTables,
		Columns: []schema.Column{
			{Name: "db", Type: types.String},
			{Name: "tableName", Type: types.String},
			{Name: "heapPageId", Type: types.UInt32},
			{Name: "tableId", Type: types.UInt32},
			{Name: "dropped", Type: types.UInt32},
			{Name: "nextSerial", Type: types.UInt32},
		},
	}
}

func dbSchemasSchema() *schema.Table {
	return &schema.Table{
		Name: tableDbSchemas,
		Columns: []schema.Column{
			{Name: "schemaId", Type: types.UInt32},
			{Name: "tableId", Type: types.UInt32},
			{Name: "version", Type: types.UInt32},
		},
	}
}

func dbTableColumnsSchema() *schema.Table {
	return &schema.Table{
		Name: tableDbTableColumns,
		Columns: []schema.Column{
			{Name: "columnId", Type: types.UInt32},
			{Name: "schemaId", Type: types.UInt32},
			{Name: "columnName", Type: types.String},
			{Name: "typeDescriptor", Type: types.String},
			{Name: "flags", Type: types.UInt32},
		},
	}
}

func dbIndexesSchema() *schema.Table {
	return &schema.Table{
		Name: tableDbIndexes,
		Columns: []schema.Column{
			{Name: "tableId", Type: types.UInt32},
			{Name: "indexName", Type: types.String},
			{Name: "heapPageId", Type: types.UInt32},
		},
	}
}

// Column flag bits packed into __dbTableColumns.flags.
const (
	flagUnique = 1 << iota
	flagIndexed
	flagComputed
	flagHasDefault
)

func columnFlags(c schema.Column) uint32 {
	var f uint32
	if c.Unique {
		f |= flagUnique
	}
	if c.Indexed {
		f |= flagIndexed
	}
	if c.Kind == schema.Computed {
		f |= flagComputed
	}
	if c.HasDefault {
		f |= flagHasDefault
	}
	return f
}

func newCodec(t *schema.Table) *record.Codec {
	c, err := record.NewCodec(t)
	if err != nil {
		// System table schemas are fixed and entirely primitive-typed;
		// this can only fail from a programming error here.
		panic("catalog: system table schema not serializable: " + err.Error())
	}
	return c
}
