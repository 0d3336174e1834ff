package expr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/row"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
	"pauldb/internal/types"
)

func ctxFor(r row.Row) *Context { return &Context{Ctx: context.Background(), Row: r} }

func mustLiteral(t *testing.T, v any, typ types.Type) *Literal {
	t.Helper()
	l, err := NewLiteral(v, typ)
	require.NoError(t, err)
	return l
}

func TestColumnRefResolvesBoundAlias(t *testing.T) {
	col := schema.Column{Name: "name", Type: types.String}
	ref := NewColumnRef("cats", col)

	v, err := ref.Resolve(ctxFor(row.Row{"cats": schema.Record{"name": "Felix"}}))

	require.NoError(t, err)
	assert.Equal(t, "Felix", v)
}

func TestColumnRefUnboundNullableYieldsNull(t *testing.T) {
	col := schema.Column{Name: "name", Type: types.String.Nullable()}
	ref := NewColumnRef("humans", col)

	v, err := ref.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, types.Null{}, v)
}

func TestColumnRefUnboundNonNullableErrors(t *testing.T) {
	col := schema.Column{Name: "name", Type: types.String}
	ref := NewColumnRef("humans", col)

	_, err := ref.Resolve(ctxFor(row.Row{}))

	var unbound *ErrColumnUnbound
	assert.True(t, errors.As(err, &unbound))
}

func TestNewLiteralRejectsInvalidValue(t *testing.T) {
	_, err := NewLiteral("not an int", types.Int32)
	assert.Error(t, err)
}

func TestNotNegatesBoolean(t *testing.T) {
	n := &Not{Operand: mustLiteral(t, true, types.Bool)}

	v, err := n.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestAndOrAlwaysResolvesBothSides(t *testing.T) {
	cases := []struct {
		op   LogicalOp
		l, r bool
		want bool
	}{
		{And, true, true, true},
		{And, true, false, false},
		{Or, false, false, false},
		{Or, false, true, true},
	}
	for _, tc := range cases {
		a := &AndOr{Op: tc.op, Left: mustLiteral(t, tc.l, types.Bool), Right: mustLiteral(t, tc.r, types.Bool)}
		v, err := a.Resolve(ctxFor(row.Row{}))
		require.NoError(t, err)
		assert.Equal(t, tc.want, v)
	}
}

func TestCompareOperators(t *testing.T) {
	left := mustLiteral(t, int32(3), types.Int32)
	right := mustLiteral(t, int32(5), types.Int32)

	cases := []struct {
		op   CompareOp
		want bool
	}{
		{Eq, false}, {Neq, true}, {Lt, true}, {Lte, true}, {Gt, false}, {Gte, false},
	}
	for _, tc := range cases {
		c := &Compare{Left: left, Op: tc.op, Right: right}
		v, err := c.Resolve(ctxFor(row.Row{}))
		require.NoError(t, err)
		assert.Equal(t, tc.want, v, tc.op)
	}
}

func TestCompareTypeMismatch(t *testing.T) {
	c := &Compare{Left: mustLiteral(t, int32(1), types.Int32), Op: Eq, Right: mustLiteral(t, "x", types.String)}

	_, err := c.Resolve(ctxFor(row.Row{}))

	var mismatch *ErrTypeMismatch
	assert.True(t, errors.As(err, &mismatch))
}

func TestInMatchesAnyCandidate(t *testing.T) {
	left := mustLiteral(t, int32(2), types.Int32)
	in := &In{Left: left, Candidates: []Expression{
		mustLiteral(t, int32(1), types.Int32),
		mustLiteral(t, int32(2), types.Int32),
	}}

	v, err := in.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestInNoMatch(t *testing.T) {
	left := mustLiteral(t, int32(9), types.Int32)
	in := &In{Left: left, Candidates: []Expression{mustLiteral(t, int32(1), types.Int32)}}

	v, err := in.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestCoalesceReturnsFirstNonNull(t *testing.T) {
	col := schema.Column{Name: "nick", Type: types.String.Nullable()}
	c := &Coalesce{
		Exprs: []Expression{NewColumnRef("humans", col)},
		Last:  mustLiteral(t, "default", types.String),
	}

	v, err := c.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, "default", v)
}

func TestCoalesceReturnsFirstNonNullValue(t *testing.T) {
	col := schema.Column{Name: "nick", Type: types.String.Nullable()}
	c := &Coalesce{
		Exprs: []Expression{NewColumnRef("humans", col)},
		Last:  mustLiteral(t, "default", types.String),
	}

	v, err := c.Resolve(ctxFor(row.Row{"humans": schema.Record{"nick": "Al"}}))

	require.NoError(t, err)
	assert.Equal(t, "Al", v)
}

func TestOverlapsSharesElement(t *testing.T) {
	arrType := types.Int32.Array()
	left, err := NewLiteral([]any{int32(1), int32(2)}, arrType)
	require.NoError(t, err)
	right, err := NewLiteral([]any{int32(2), int32(3)}, arrType)
	require.NoError(t, err)

	o := &Overlaps{Left: left, Right: right}
	v, err := o.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestOverlapsNoSharedElement(t *testing.T) {
	arrType := types.Int32.Array()
	left, _ := NewLiteral([]any{int32(1)}, arrType)
	right, _ := NewLiteral([]any{int32(2)}, arrType)

	o := &Overlaps{Left: left, Right: right}
	v, err := o.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, false, v)
}

// fakePlan is a minimal Executable stub for SubQuery tests, standing
// in for a real plan.Node without expr needing to import internal/plan.
type fakePlan struct {
	rows []row.Row
}

func (f *fakePlan) Execute(context.Context) (seq.Seq[row.Row], error) {
	return seq.FromSlice(f.rows), nil
}

func TestSubQuerySingleCell(t *testing.T) {
	sq := &SubQuery{
		Plan:       &fakePlan{rows: []row.Row{{"$0": schema.Record{"count": uint32(3)}}}},
		ResultType: types.UInt32,
	}

	v, err := sq.Resolve(ctxFor(row.Row{}))

	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)
}

func TestSubQueryNoRowsErrors(t *testing.T) {
	sq := &SubQuery{Plan: &fakePlan{rows: nil}, ResultType: types.UInt32}

	_, err := sq.Resolve(ctxFor(row.Row{}))

	var shapeErr *ErrSubQueryShape
	assert.True(t, errors.As(err, &shapeErr))
}

func TestSubQueryTooManyRowsErrors(t *testing.T) {
	rows := []row.Row{
		{"$0": schema.Record{"count": uint32(1)}},
		{"$0": schema.Record{"count": uint32(2)}},
	}
	sq := &SubQuery{Plan: &fakePlan{rows: rows}, ResultType: types.UInt32}

	_, err := sq.Resolve(ctxFor(row.Row{}))

	var shapeErr *ErrSubQueryShape
	assert.True(t, errors.As(err, &shapeErr))
}

func TestSubQueryMultiCellRowErrors(t *testing.T) {
	rows := []row.Row{{"$0": schema.Record{"a": int32(1), "b": int32(2)}}}
	sq := &SubQuery{Plan: &fakePlan{rows: rows}, ResultType: types.Int32}

	_, err := sq.Resolve(ctxFor(row.Row{}))

	var shapeErr *ErrSubQueryShape
	assert.True(t, errors.As(err, &shapeErr))
}
