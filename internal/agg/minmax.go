package agg

import (
	"pauldb/internal/expr"
	"pauldb/internal/types"
)

// minMaxAcc tracks the best value seen so far plus whether any row has
// been folded in yet, so the first row always wins regardless of the
// type's minimum.
type minMaxAcc struct {
	value any
	seen  bool
}

// Max returns the greatest value Expr resolves to under its Type's
// ordering.
type Max struct {
	Expr expr.Expression
}

// NewMax builds a Max aggregation, failing if Expr's type has no
// minimum value.
func NewMax(e expr.Expression) (*Max, error) {
	if _, ok := e.Type().MinValue(); !ok {
		return nil, &ErrNoMinValue{Type: e.Type().Name()}
	}
	return &Max{Expr: e}, nil
}

// Init implements Aggregation.
func (m *Max) Init() (Accumulator, error) { return &minMaxAcc{}, nil }

// Update implements Aggregation.
func (m *Max) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	a := acc.(*minMaxAcc)
	v, err := m.Expr.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !a.seen || m.Expr.Type().Compare(v, a.value) > 0 {
		a.value, a.seen = v, true
	}
	return a, nil
}

// Result implements Aggregation.
func (m *Max) Result(acc Accumulator) (any, error) {
	a := acc.(*minMaxAcc)
	if !a.seen {
		v, _ := m.Expr.Type().MinValue()
		return v, nil
	}
	return a.value, nil
}

// Type implements Aggregation.
func (m *Max) Type() types.Type { return m.Expr.Type() }

// Describe implements Aggregation.
func (m *Max) Describe() string { return "max(" + m.Expr.Describe() + ")" }

// ToJSON implements Aggregation.
func (m *Max) ToJSON() map[string]any { return map[string]any{"kind": "max", "expr": m.Expr.ToJSON()} }

// Min returns the least value Expr resolves to under its Type's
// ordering.
type Min struct {
	Expr expr.Expression
}

// NewMin builds a Min aggregation, failing if Expr's type has no
// minimum value.
func NewMin(e expr.Expression) (*Min, error) {
	if _, ok := e.Type().MinValue(); !ok {
		return nil, &ErrNoMinValue{Type: e.Type().Name()}
	}
	return &Min{Expr: e}, nil
}

// Init implements Aggregation.
func (m *Min) Init() (Accumulator, error) { return &minMaxAcc{}, nil }

// Update implements Aggregation.
func (m *Min) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	a := acc.(*minMaxAcc)
	v, err := m.Expr.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !a.seen || m.Expr.Type().Compare(v, a.value) < 0 {
		a.value, a.seen = v, true
	}
	return a, nil
}

// Result implements Aggregation.
func (m *Min) Result(acc Accumulator) (any, error) {
	a := acc.(*minMaxAcc)
	if !a.seen {
		v, _ := m.Expr.Type().MinValue()
		return v, nil
	}
	return a.value, nil
}

// Type implements Aggregation.
func (m *Min) Type() types.Type { return m.Expr.Type() }

// Describe implements Aggregation.
func (m *Min) Describe() string { return "min(" + m.Expr.Describe() + ")" }

// ToJSON implements Aggregation.
func (m *Min) ToJSON() map[string]any { return map[string]any{"kind": "min", "expr": m.Expr.ToJSON()} }
