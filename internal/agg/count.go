package agg

import (
	"pauldb/internal/expr"
	"pauldb/internal/types"
)

// Count accumulates the number of rows it is folded over, ignoring
// their content.
type Count struct{}

// Init implements Aggregation.
func (Count) Init() (Accumulator, error) { return int64(0), nil }

// Update implements Aggregation.
func (Count) Update(acc Accumulator, _ *expr.Context) (Accumulator, error) {
	return acc.(int64) + 1, nil
}

// Result implements Aggregation.
func (Count) Result(acc Accumulator) (any, error) { return uint32(acc.(int64)), nil }

// Type implements Aggregation.
func (Count) Type() types.Type { return types.UInt32 }

// Describe implements Aggregation.
func (Count) Describe() string { return "count(*)" }

// ToJSON implements Aggregation.
func (Count) ToJSON() map[string]any { return map[string]any{"kind": "count"} }
