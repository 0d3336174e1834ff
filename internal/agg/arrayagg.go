package agg

import (
	"pauldb/internal/expr"
	"pauldb/internal/types"
)

// ArrayAgg appends every value Expr resolves to into an array, in the
// order rows are folded.
type ArrayAgg struct {
	Expr expr.Expression
}

// Init implements Aggregation.
func (a *ArrayAgg) Init() (Accumulator, error) { return []any{}, nil }

// Update implements Aggregation.
func (a *ArrayAgg) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	v, err := a.Expr.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return append(acc.([]any), v), nil
}

// Result implements Aggregation.
func (a *ArrayAgg) Result(acc Accumulator) (any, error) { return acc.([]any), nil }

// Type implements Aggregation.
func (a *ArrayAgg) Type() types.Type { return a.Expr.Type().Array() }

// Describe implements Aggregation.
func (a *ArrayAgg) Describe() string { return "arrayAgg(" + a.Expr.Describe() + ")" }

// ToJSON implements Aggregation.
func (a *ArrayAgg) ToJSON() map[string]any {
	return map[string]any{"kind": "arrayAgg", "expr": a.Expr.ToJSON()}
}
