// Package agg implements PaulDB's aggregations: Count, Min, Max, Sum,
// First, ArrayAgg, the MultiAggregation composer GroupBy and Aggregate
// drive, and the Filter/FilterNonNull wrappers.
package agg

import (
	"fmt"

	"pauldb/internal/expr"
	"pauldb/internal/types"
)

// Accumulator is the opaque per-group fold state an Aggregation
// threads through Init/Update/Result. Each Aggregation implementation
// defines its own concrete accumulator type.
type Accumulator any

// Aggregation is a fold (init, update, result) producing one value from
// many rows.
type Aggregation interface {
	// Init returns the accumulator's zero state.
	Init() (Accumulator, error)
	// Update folds one row's contribution into acc.
	Update(acc Accumulator, ctx *expr.Context) (Accumulator, error)
	// Result extracts the final value from acc.
	Result(acc Accumulator) (any, error)
	// Type returns the aggregation's static result type.
	Type() types.Type
	// Describe renders a short human-readable form.
	Describe() string
	// ToJSON renders the aggregation as a JSON-serializable tree.
	ToJSON() map[string]any
}

// ErrNoMinValue is returned building a Min/Max aggregation over a type
// that carries no minimum.
type ErrNoMinValue struct {
	Type string
}

func (e *ErrNoMinValue) Error() string {
	return fmt.Sprintf("agg: type %s has no minimum value, cannot seed min/max", e.Type)
}
