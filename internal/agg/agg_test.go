package agg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/schema"
	"pauldb/internal/types"
)

func ctxFor(age int32) *expr.Context {
	return &expr.Context{
		Ctx: context.Background(),
		Row: row.Row{"cats": schema.Record{"age": age}},
	}
}

func ageRef() expr.Expression {
	return expr.NewColumnRef("cats", schema.Column{Name: "age", Type: types.Int32})
}

func fold(t *testing.T, a Aggregation, ages []int32) any {
	t.Helper()
	acc, err := a.Init()
	require.NoError(t, err)
	for _, age := range ages {
		acc, err = a.Update(acc, ctxFor(age))
		require.NoError(t, err)
	}
	result, err := a.Result(acc)
	require.NoError(t, err)
	return result
}

func TestCount(t *testing.T) {
	result := fold(t, Count{}, []int32{1, 2, 3})
	assert.Equal(t, uint32(3), result)
}

func TestMaxAndMin(t *testing.T) {
	maxAgg, err := NewMax(ageRef())
	require.NoError(t, err)
	minAgg, err := NewMin(ageRef())
	require.NoError(t, err)

	assert.Equal(t, int32(9), fold(t, maxAgg, []int32{3, 9, 1}))
	assert.Equal(t, int32(1), fold(t, minAgg, []int32{3, 9, 1}))
}

func TestMaxNoRowsFallsBackToMinValue(t *testing.T) {
	maxAgg, err := NewMax(ageRef())
	require.NoError(t, err)

	minValue, ok := types.Int32.MinValue()
	require.True(t, ok)
	assert.Equal(t, minValue, fold(t, maxAgg, nil))
}

func TestNewMaxRejectsTypeWithNoMinValue(t *testing.T) {
	jsonRef := expr.NewColumnRef("cats", schema.Column{Name: "tags", Type: types.JSON})

	_, err := NewMax(jsonRef)

	var noMin *ErrNoMinValue
	assert.True(t, errors.As(err, &noMin))
}

func TestSum(t *testing.T) {
	sumAgg, err := NewSum(ageRef())
	require.NoError(t, err)

	assert.Equal(t, int32(6), fold(t, sumAgg, []int32{1, 2, 3}))
}

func TestNewSumRejectsNonNumericType(t *testing.T) {
	nameRef := expr.NewColumnRef("cats", schema.Column{Name: "name", Type: types.String})

	_, err := NewSum(nameRef)

	assert.Error(t, err)
}

func TestFirstIgnoresLaterRows(t *testing.T) {
	firstAgg := &First{Expr: ageRef()}

	assert.Equal(t, int32(7), fold(t, firstAgg, []int32{7, 8, 9}))
}

func TestArrayAgg(t *testing.T) {
	arrAgg := &ArrayAgg{Expr: ageRef()}

	result := fold(t, arrAgg, []int32{1, 2})

	assert.Equal(t, []any{int32(1), int32(2)}, result)
}

func TestMultiAggregationResultRecord(t *testing.T) {
	maxAgg, err := NewMax(ageRef())
	require.NoError(t, err)
	multi := &MultiAggregation{Fields: []NamedAggregation{
		{Name: "n", Agg: Count{}},
		{Name: "oldest", Agg: maxAgg},
	}}

	acc, err := multi.Init()
	require.NoError(t, err)
	for _, age := range []int32{4, 10, 2} {
		acc, err = multi.Update(acc, ctxFor(age))
		require.NoError(t, err)
	}
	rec, err := multi.ResultRecord(acc)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), rec["n"])
	assert.Equal(t, int32(10), rec["oldest"])
}

func TestFilteredSkipsNonMatchingRows(t *testing.T) {
	pred := &expr.Compare{Left: ageRef(), Op: expr.Gte, Right: literal(t, int32(5))}
	filtered := Filter(Count{}, pred)

	result := fold(t, filtered, []int32{1, 5, 9, 2})

	assert.Equal(t, uint32(2), result)
}

func TestFilteredNonNullSkipsNullValues(t *testing.T) {
	nullableAge := expr.NewColumnRef("humans", schema.Column{Name: "age", Type: types.Int32.Nullable()})
	filtered := FilterNonNull(Count{}, nullableAge)

	acc, err := filtered.Init()
	require.NoError(t, err)

	// Row with the "humans" alias bound: non-null age, counted.
	acc, err = filtered.Update(acc, &expr.Context{Ctx: context.Background(), Row: row.Row{"humans": schema.Record{"age": int32(30)}}})
	require.NoError(t, err)
	// Row missing the "humans" alias entirely: ColumnRef yields Null, skipped.
	acc, err = filtered.Update(acc, &expr.Context{Ctx: context.Background(), Row: row.Row{}})
	require.NoError(t, err)

	result, err := filtered.Result(acc)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), result)
}

func literal(t *testing.T, v any) expr.Expression {
	t.Helper()
	l, err := expr.NewLiteral(v, types.Int32)
	require.NoError(t, err)
	return l
}
