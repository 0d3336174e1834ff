package expr

import (
	"context"

	"pauldb/internal/row"
	"pauldb/internal/seq"
	"pauldb/internal/types"
)

type outerRowKey struct{}

// WithOuterRow returns a context carrying r as the ambient outer row a
// correlated sub-query's expressions may reference. Nested sub-queries
// layer: the inner plan sees its own outer row merged over any aliases
// already ambient.
func WithOuterRow(ctx context.Context, r row.Row) context.Context {
	if existing, ok := OuterRow(ctx); ok {
		r = existing.Merge(r)
	}
	return context.WithValue(ctx, outerRowKey{}, r)
}

// OuterRow returns the ambient outer row installed by WithOuterRow, if
// the current resolution is happening inside a sub-query.
func OuterRow(ctx context.Context) (row.Row, bool) {
	r, ok := ctx.Value(outerRowKey{}).(row.Row)
	return r, ok
}

// SubQuery executes Plan and takes up to two rows: more than one is a
// shape error, none is a shape error, and the single row must itself
// carry exactly one alias with exactly one cell. ResultType is the
// statically-known type of that cell, supplied by the plan builder that
// constructed Plan.
type SubQuery struct {
	Plan       Executable
	ResultType types.Type
}

// Resolve implements Expression. It bounds its own work via seq.Take(2)
// regardless of how many rows Plan could produce, and installs the
// current row as the plan's ambient outer row so Plan's own predicates
// can correlate against it.
func (s *SubQuery) Resolve(ctx *Context) (any, error) {
	out, err := s.Plan.Execute(WithOuterRow(ctx.Ctx, ctx.Row))
	if err != nil {
		return nil, err
	}
	rows, err := seq.ToSlice(ctx.Ctx, seq.Take(out, 2))
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, &ErrSubQueryShape{Reason: "no rows"}
	case 1:
		return singleCell(rows[0])
	default:
		return nil, &ErrSubQueryShape{Reason: "more than one row"}
	}
}

func singleCell(r row.Row) (any, error) {
	if len(r) != 1 {
		return nil, &ErrSubQueryShape{Reason: "row does not have exactly one column"}
	}
	for _, rec := range r {
		if len(rec) != 1 {
			return nil, &ErrSubQueryShape{Reason: "row does not have exactly one column"}
		}
		for _, v := range rec {
			return v, nil
		}
	}
	panic("unreachable")
}

// Type implements Expression.
func (s *SubQuery) Type() types.Type { return s.ResultType }

// Describe implements Expression.
func (s *SubQuery) Describe() string { return "SUBQUERY(...)" }

// ToJSON implements Expression.
func (s *SubQuery) ToJSON() map[string]any {
	return map[string]any{"kind": "subQuery", "type": s.ResultType.Name()}
}
