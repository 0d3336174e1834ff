package agg

import (
	"pauldb/internal/expr"
	"pauldb/internal/schema"
	"pauldb/internal/types"
)

// NamedAggregation pairs an output field name with the aggregation
// producing it, preserving the order the caller declared them in.
type NamedAggregation struct {
	Name string
	Agg  Aggregation
}

// MultiAggregation composes a record of independently-folded named
// aggregations into a single Aggregation whose accumulator, and whose
// result, is keyed by field name — the shape GroupBy and Aggregate
// drive.
type MultiAggregation struct {
	Fields []NamedAggregation
}

type multiAcc map[string]Accumulator

// Init implements Aggregation.
func (m *MultiAggregation) Init() (Accumulator, error) {
	acc := make(multiAcc, len(m.Fields))
	for _, f := range m.Fields {
		a, err := f.Agg.Init()
		if err != nil {
			return nil, err
		}
		acc[f.Name] = a
	}
	return acc, nil
}

// Update implements Aggregation.
func (m *MultiAggregation) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	a := acc.(multiAcc)
	for _, f := range m.Fields {
		next, err := f.Agg.Update(a[f.Name], ctx)
		if err != nil {
			return nil, err
		}
		a[f.Name] = next
	}
	return a, nil
}

// Result implements Aggregation, returning a schema.Record of one
// cell per field.
func (m *MultiAggregation) Result(acc Accumulator) (any, error) {
	a := acc.(multiAcc)
	out := make(schema.Record, len(m.Fields))
	for _, f := range m.Fields {
		v, err := f.Agg.Result(a[f.Name])
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// Type implements Aggregation. A MultiAggregation has no single
// scalar type, so Type returns nil; each field's type is its
// Fields[i].Agg.Type().
func (m *MultiAggregation) Type() types.Type { return nil }

// Describe implements Aggregation.
func (m *MultiAggregation) Describe() string {
	s := "{"
	for i, f := range m.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ": " + f.Agg.Describe()
	}
	return s + "}"
}

// ToJSON implements Aggregation.
func (m *MultiAggregation) ToJSON() map[string]any {
	fields := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		fields[f.Name] = f.Agg.ToJSON()
	}
	return map[string]any{"kind": "multi", "fields": fields}
}

// ResultRecord is a typed convenience over Result for callers (GroupBy,
// Aggregate) that already know they are dealing with a
// MultiAggregation and want a schema.Record back directly.
func (m *MultiAggregation) ResultRecord(acc Accumulator) (schema.Record, error) {
	v, err := m.Result(acc)
	if err != nil {
		return nil, err
	}
	return v.(schema.Record), nil
}
