package plan

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/agg"
	"pauldb/internal/catalog"
	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/storage"
	"pauldb/internal/table"
	"pauldb/internal/types"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func catsSchema() *schema.Table {
	return &schema.Table{
		Name: "cats",
		Columns: []schema.Column{
			{Name: "id", Type: types.Serial, Unique: true, Indexed: true},
			{Name: "name", Type: types.String},
			{Name: "age", Type: types.Int32},
			{Name: "ownerId", Type: types.Serial.Nullable(), Indexed: true},
		},
	}
}

func humansSchema() *schema.Table {
	return &schema.Table{
		Name: "humans",
		Columns: []schema.Column{
			{Name: "id", Type: types.Serial, Unique: true, Indexed: true},
			{Name: "name", Type: types.String},
		},
	}
}

func openTable(t *testing.T, cat *catalog.Catalog, sch *schema.Table) *table.Handle {
	t.Helper()
	meta, err := cat.Resolve("default", sch.Name, sch, true)
	require.NoError(t, err)
	h, err := table.Open(cat, meta, sch, 0, testLogger())
	require.NoError(t, err)
	return h
}

// fixture builds one catalog with a "humans" table (Alice, Bob) and a
// "cats" table (Felix -> Alice, Tom -> Bob, Biscuit -> nobody).
func fixture(t *testing.T) (cats, humans *table.Handle) {
	t.Helper()
	ctx := context.Background()
	cat, err := catalog.Open(storage.NewPager(storage.NewMemoryMedium()), testLogger())
	require.NoError(t, err)

	humans = openTable(t, cat, humansSchema())
	_, err = humans.Insert(ctx, schema.Record{"name": "Alice"})
	require.NoError(t, err)
	_, err = humans.Insert(ctx, schema.Record{"name": "Bob"})
	require.NoError(t, err)

	humanRows, err := humans.Iterate(ctx)
	require.NoError(t, err)
	all, err := seq.ToSlice(ctx, humanRows)
	require.NoError(t, err)
	require.Len(t, all, 2)
	aliceID := all[0].Record["id"].(uint32)
	bobID := all[1].Record["id"].(uint32)

	cats = openTable(t, cat, catsSchema())
	_, err = cats.Insert(ctx, schema.Record{"name": "Felix", "age": int32(3), "ownerId": aliceID})
	require.NoError(t, err)
	_, err = cats.Insert(ctx, schema.Record{"name": "Tom", "age": int32(7), "ownerId": bobID})
	require.NoError(t, err)
	_, err = cats.Insert(ctx, schema.Record{"name": "Biscuit", "age": int32(1), "ownerId": types.Null{}})
	require.NoError(t, err)
	return cats, humans
}

func execAll(t *testing.T, n Node) []row.Row {
	t.Helper()
	out, err := n.Execute(context.Background())
	require.NoError(t, err)
	rows, err := seq.ToSlice(context.Background(), out)
	require.NoError(t, err)
	return rows
}

func TestTableScanStreamsEveryRow(t *testing.T) {
	cats, _ := fixture(t)
	scan := NewTableScan(cats, "cats")

	rows := execAll(t, scan)

	assert.Len(t, rows, 3)
	assert.Equal(t, "Felix", rows[0]["cats"]["name"])
}

func TestFilterKeepsMatchingRows(t *testing.T) {
	cats, _ := fixture(t)
	scan := NewTableScan(cats, "cats")
	ageCol := cats.Schema().Column("age")
	pred := &expr.Compare{
		Left:  expr.NewColumnRef("cats", *ageCol),
		Op:    expr.Gte,
		Right: mustLit(t, int32(3)),
	}
	f := &Filter{Child: scan, Predicate: pred}

	rows := execAll(t, f)

	assert.Len(t, rows, 2)
	for _, r := range rows {
		age := r["cats"]["age"].(int32)
		assert.True(t, age >= 3)
	}
}

func TestSelectProjectsAndWrapsUnderDefaultAlias(t *testing.T) {
	cats, _ := fixture(t)
	scan := NewTableScan(cats, "cats")
	nameCol := cats.Schema().Column("name")
	sel := NewSelect(scan, "", []NamedExpr{{Name: "catName", Expr: expr.NewColumnRef("cats", *nameCol)}})

	rows := execAll(t, sel)

	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], DefaultAlias)
	assert.Equal(t, "Felix", rows[0][DefaultAlias]["catName"])
}

func TestLimitYieldsFirstNRows(t *testing.T) {
	cats, _ := fixture(t)
	scan := NewTableScan(cats, "cats")
	lim := &Limit{Child: scan, N: 2}

	rows := execAll(t, lim)

	assert.Len(t, rows, 2)
}

// countingNode is a leaf that records how many rows have been pulled
// from it, to observe Limit's pull behavior directly.
type countingNode struct {
	rows  []row.Row
	pulls int
}

func (c *countingNode) Execute(context.Context) (seq.Seq[row.Row], error) {
	i := 0
	return seq.Func[row.Row](func(context.Context) (row.Row, bool, error) {
		if i >= len(c.rows) {
			return nil, false, nil
		}
		c.pulls++
		r := c.rows[i]
		i++
		return r, true, nil
	}), nil
}

func (c *countingNode) Children() []Node       { return nil }
func (c *countingNode) Describe() string       { return "counting" }
func (c *countingNode) ToJSON() map[string]any { return map[string]any{"kind": "counting"} }

func TestLimitPullsExactlyNFromChild(t *testing.T) {
	child := &countingNode{rows: []row.Row{
		{"t": schema.Record{"n": int32(1)}},
		{"t": schema.Record{"n": int32(2)}},
		{"t": schema.Record{"n": int32(3)}},
	}}
	lim := &Limit{Child: child, N: 2}

	rows := execAll(t, lim)

	assert.Len(t, rows, 2)
	assert.Equal(t, 2, child.pulls)
}

func TestOrderByDescendingByAge(t *testing.T) {
	cats, _ := fixture(t)
	scan := NewTableScan(cats, "cats")
	ageCol := cats.Schema().Column("age")
	ob := &OrderBy{Child: scan, Keys: []SortKey{{Expr: expr.NewColumnRef("cats", *ageCol), Desc: true}}}

	rows := execAll(t, ob)

	require.Len(t, rows, 3)
	ages := []int32{
		rows[0]["cats"]["age"].(int32),
		rows[1]["cats"]["age"].(int32),
		rows[2]["cats"]["age"].(int32),
	}
	assert.Equal(t, []int32{7, 3, 1}, ages)
}

func TestJoinMatchesCatsToOwners(t *testing.T) {
	cats, humans := fixture(t)
	catScan := NewTableScan(cats, "cats")
	humanScan := NewTableScan(humans, "humans")
	ownerCol := cats.Schema().Column("ownerId")
	idCol := humans.Schema().Column("id")
	pred := &expr.Compare{
		Left:  expr.NewColumnRef("cats", *ownerCol),
		Op:    expr.Eq,
		Right: expr.NewColumnRef("humans", *idCol),
	}
	j := &Join{Left: catScan, Right: humanScan, Predicate: pred}

	rows := execAll(t, j)

	// Biscuit has no owner; its ownerId is NULL and compares unequal to
	// every humans.id, so the inner join drops it.
	assert.Len(t, rows, 2)
	for _, r := range rows {
		assert.Contains(t, r, "cats")
		assert.Contains(t, r, "humans")
	}
}

func TestLeftJoinEmitsUnmatchedLeftAlone(t *testing.T) {
	cats, humans := fixture(t)
	catScan := NewTableScan(cats, "cats")
	humanScan := NewTableScan(humans, "humans")
	ownerCol := cats.Schema().Column("ownerId")
	idCol := humans.Schema().Column("id")
	pred := &expr.Compare{
		Left:  expr.NewColumnRef("cats", *ownerCol),
		Op:    expr.Eq,
		Right: expr.NewColumnRef("humans", *idCol),
	}
	lj := &LeftJoin{Left: catScan, Right: humanScan, Predicate: pred}

	rows := execAll(t, lj)

	require.Len(t, rows, 3)
	var sawUnmatched bool
	for _, r := range rows {
		if r["cats"]["name"] == "Biscuit" {
			sawUnmatched = true
			assert.NotContains(t, r, "humans")
		}
	}
	assert.True(t, sawUnmatched)
}

func TestGroupByEmitsInInsertionOrderWithMax(t *testing.T) {
	cats, _ := fixture(t)
	scan := NewTableScan(cats, "cats")
	ownerCol := cats.Schema().Column("ownerId")
	ageCol := cats.Schema().Column("age")
	maxAge, err := agg.NewMax(expr.NewColumnRef("cats", *ageCol))
	require.NoError(t, err)

	gb := NewGroupBy(scan,
		[]GroupKey{{Name: "owner", Expr: expr.NewColumnRef("cats", *ownerCol)}},
		&agg.MultiAggregation{Fields: []agg.NamedAggregation{{Name: "oldest", Agg: maxAge}}},
		"",
	)

	rows := execAll(t, gb)

	// Three distinct ownerId values (Alice, Bob, NULL) in first-seen
	// (insertion) order: Felix/Alice, Tom/Bob, Biscuit/NULL.
	require.Len(t, rows, 3)
	assert.Equal(t, int32(3), rows[0][DefaultAlias]["oldest"])
	assert.Equal(t, int32(7), rows[1][DefaultAlias]["oldest"])
	assert.Equal(t, int32(1), rows[2][DefaultAlias]["oldest"])
}

func TestAggregateFoldsWholeInputIntoOneRow(t *testing.T) {
	cats, _ := fixture(t)
	scan := NewTableScan(cats, "cats")
	agAgg := NewAggregate(scan, &agg.MultiAggregation{Fields: []agg.NamedAggregation{{Name: "n", Agg: agg.Count{}}}}, "")

	rows := execAll(t, agAgg)

	require.Len(t, rows, 1)
	assert.Equal(t, uint32(3), rows[0][DefaultAlias]["n"])
}

func TestCorrelatedSubQueryCountsCatsPerHuman(t *testing.T) {
	cats, humans := fixture(t)
	nameCol := humans.Schema().Column("name")
	idCol := humans.Schema().Column("id")
	ownerCol := cats.Schema().Column("ownerId")

	// For each human, count the cats whose ownerId matches that human's
	// id — the inner plan's predicate references the outer "humans"
	// alias, bound per row by the SubQuery expression.
	perHuman := NewAggregate(
		&Filter{
			Child: NewTableScan(cats, "cats"),
			Predicate: &expr.Compare{
				Left:  expr.NewColumnRef("cats", *ownerCol),
				Op:    expr.Eq,
				Right: expr.NewColumnRef("humans", *idCol),
			},
		},
		&agg.MultiAggregation{Fields: []agg.NamedAggregation{{Name: "n", Agg: agg.Count{}}}},
		"",
	)

	sel := NewSelect(NewTableScan(humans, "humans"), "", []NamedExpr{
		{Name: "name", Expr: expr.NewColumnRef("humans", *nameCol)},
		{Name: "cats", Expr: &expr.SubQuery{Plan: perHuman, ResultType: types.UInt32}},
	})

	rows := execAll(t, sel)

	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0][DefaultAlias]["name"])
	assert.Equal(t, uint32(1), rows[0][DefaultAlias]["cats"])
	assert.Equal(t, "Bob", rows[1][DefaultAlias]["name"])
	assert.Equal(t, uint32(1), rows[1][DefaultAlias]["cats"])
}

func mustLit(t *testing.T, v int32) expr.Expression {
	t.Helper()
	l, err := expr.NewLiteral(v, types.Int32)
	require.NoError(t, err)
	return l
}
