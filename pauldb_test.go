package pauldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/catalog"
	"pauldb/internal/expr"
	"pauldb/internal/plan"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/types"
)

func catsSchema() *schema.Table {
	return &schema.Table{
		Name: "cats",
		Columns: []schema.Column{
			{Name: "id", Type: types.Serial, Unique: true, Indexed: true},
			{Name: "name", Type: types.String},
		},
	}
}

func TestModelInsertAndQueryRoundTrip(t *testing.T) {
	db, err := InMemory(OpenOptions{})
	require.NoError(t, err)
	defer db.Shutdown()

	model, err := db.Model("default", Schema{"cats": catsSchema()})
	require.NoError(t, err)

	cats := model.Tables["cats"]
	_, err = cats.Insert(context.Background(), schema.Record{"name": "Felix"})
	require.NoError(t, err)

	scan := plan.NewTableScan(cats, "cats")
	nameCol := cats.Schema().Column("name")
	sel := plan.NewSelect(scan, "", []plan.NamedExpr{
		{Name: "name", Expr: expr.NewColumnRef("cats", *nameCol)},
	})

	out, err := model.Query(context.Background(), sel)
	require.NoError(t, err)
	rows, err := seq.ToSlice(context.Background(), out)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	rec, ok := rows[0].(schema.Record)
	require.True(t, ok, "single $0-wrapped row should unwrap to a bare Record")
	assert.Equal(t, "Felix", rec["name"])
}

func TestDBTablesListsLiveTables(t *testing.T) {
	db, err := InMemory(OpenOptions{})
	require.NoError(t, err)
	defer db.Shutdown()

	_, err = db.Model("default", Schema{"cats": catsSchema()})
	require.NoError(t, err)

	tables := db.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, "cats", tables[0].Name)
}

func TestShutdownClosesFurtherAccess(t *testing.T) {
	db, err := InMemory(OpenOptions{})
	require.NoError(t, err)

	require.NoError(t, db.Shutdown())

	_, err = db.Model("default", Schema{"cats": catsSchema()})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestModelMigrateTransformsExistingRows(t *testing.T) {
	db, err := InMemory(OpenOptions{})
	require.NoError(t, err)
	defer db.Shutdown()

	model, err := db.Model("default", Schema{"cats": catsSchema()})
	require.NoError(t, err)
	oldHandle := model.Tables["cats"]
	_, err = oldHandle.Insert(context.Background(), schema.Record{"name": "Felix"})
	require.NoError(t, err)

	newSchema := &schema.Table{
		Name: "cats",
		Columns: []schema.Column{
			{Name: "id", Type: types.Serial, Unique: true, Indexed: true},
			{Name: "name", Type: types.String},
			{Name: "species", Type: types.String},
		},
	}
	newHandle, err := model.Migrate("cats", Migration{
		Name:      "add species",
		NewSchema: newSchema,
		Transform: func(r schema.Record) (schema.Record, error) {
			r["species"] = "cat"
			return r, nil
		},
	})
	require.NoError(t, err)
	assert.Same(t, newHandle, model.Tables["cats"])

	// The superseded handle is tombstoned: any further access fails.
	_, err = oldHandle.Insert(context.Background(), schema.Record{"name": "Tom"})
	assert.ErrorIs(t, err, catalog.ErrDropped)

	rows, err := newHandle.Iterate(context.Background())
	require.NoError(t, err)
	all, err := seq.ToSlice(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "cat", all[0].Record["species"])
}
