package agg

import (
	"pauldb/internal/expr"
	"pauldb/internal/types"
)

// Filtered wraps Inner, skipping rows for which Pred resolves false.
type Filtered struct {
	Inner Aggregation
	Pred  expr.Expression
}

// Filter builds a Filtered aggregation.
func Filter(inner Aggregation, pred expr.Expression) *Filtered {
	return &Filtered{Inner: inner, Pred: pred}
}

// Init implements Aggregation.
func (f *Filtered) Init() (Accumulator, error) { return f.Inner.Init() }

// Update implements Aggregation.
func (f *Filtered) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	keep, err := f.Pred.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if b, ok := keep.(bool); !ok || !b {
		return acc, nil
	}
	return f.Inner.Update(acc, ctx)
}

// Result implements Aggregation.
func (f *Filtered) Result(acc Accumulator) (any, error) { return f.Inner.Result(acc) }

// Type implements Aggregation.
func (f *Filtered) Type() types.Type { return f.Inner.Type() }

// Describe implements Aggregation.
func (f *Filtered) Describe() string { return f.Inner.Describe() + ".filter(" + f.Pred.Describe() + ")" }

// ToJSON implements Aggregation.
func (f *Filtered) ToJSON() map[string]any {
	return map[string]any{"kind": "filtered", "inner": f.Inner.ToJSON(), "pred": f.Pred.ToJSON()}
}

// FilteredNonNull wraps Inner, skipping rows for which Value resolves
// to the NULL sentinel.
type FilteredNonNull struct {
	Inner Aggregation
	Value expr.Expression
}

// FilterNonNull builds a FilteredNonNull aggregation.
func FilterNonNull(inner Aggregation, value expr.Expression) *FilteredNonNull {
	return &FilteredNonNull{Inner: inner, Value: value}
}

// Init implements Aggregation.
func (f *FilteredNonNull) Init() (Accumulator, error) { return f.Inner.Init() }

// Update implements Aggregation.
func (f *FilteredNonNull) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	v, err := f.Value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if _, isNull := v.(types.Null); isNull {
		return acc, nil
	}
	return f.Inner.Update(acc, ctx)
}

// Result implements Aggregation.
func (f *FilteredNonNull) Result(acc Accumulator) (any, error) { return f.Inner.Result(acc) }

// Type implements Aggregation.
func (f *FilteredNonNull) Type() types.Type { return f.Inner.Type() }

// Describe implements Aggregation.
func (f *FilteredNonNull) Describe() string {
	return f.Inner.Describe() + ".filterNonNull(" + f.Value.Describe() + ")"
}

// ToJSON implements Aggregation.
func (f *FilteredNonNull) ToJSON() map[string]any {
	return map[string]any{"kind": "filteredNonNull", "inner": f.Inner.ToJSON(), "value": f.Value.ToJSON()}
}
