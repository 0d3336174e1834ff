package agg

import (
	"pauldb/internal/expr"
	"pauldb/internal/types"
)

type firstAcc struct {
	value any
	seen  bool
}

// First captures the first value Expr resolves to and ignores every
// subsequent row.
type First struct {
	Expr expr.Expression
}

// Init implements Aggregation.
func (f *First) Init() (Accumulator, error) { return &firstAcc{}, nil }

// Update implements Aggregation.
func (f *First) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	a := acc.(*firstAcc)
	if a.seen {
		return a, nil
	}
	v, err := f.Expr.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	a.value, a.seen = v, true
	return a, nil
}

// Result implements Aggregation.
func (f *First) Result(acc Accumulator) (any, error) { return acc.(*firstAcc).value, nil }

// Type implements Aggregation.
func (f *First) Type() types.Type { return f.Expr.Type() }

// Describe implements Aggregation.
func (f *First) Describe() string { return "first(" + f.Expr.Describe() + ")" }

// ToJSON implements Aggregation.
func (f *First) ToJSON() map[string]any {
	return map[string]any{"kind": "first", "expr": f.Expr.ToJSON()}
}
