package plan

import (
	"context"

	"pauldb/internal/agg"
	"pauldb/internal/row"
	"pauldb/internal/seq"
)

// Aggregate folds every row of Child through Aggregation and emits
// exactly one row, wrapped under Alias — GroupBy with no group keys.
type Aggregate struct {
	Aggregation *agg.MultiAggregation
	Child       Node
	Alias       string
}

// NewAggregate builds an Aggregate, defaulting Alias to DefaultAlias.
func NewAggregate(child Node, aggregation *agg.MultiAggregation, alias string) *Aggregate {
	if alias == "" {
		alias = DefaultAlias
	}
	return &Aggregate{Child: child, Aggregation: aggregation, Alias: alias}
}

// Execute implements Node. Like GroupBy, this blocks until Child is
// fully exhausted.
func (a *Aggregate) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	in, err := a.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := a.Aggregation.Init()
	if err != nil {
		return nil, err
	}
	if err := seq.ForEach(ctx, in, func(r row.Row) error {
		next, err := a.Aggregation.Update(acc, exprContext(ctx, r))
		if err != nil {
			return err
		}
		acc = next
		return nil
	}); err != nil {
		return nil, err
	}
	rec, err := a.Aggregation.ResultRecord(acc)
	if err != nil {
		return nil, err
	}
	return seq.FromSlice([]row.Row{{a.Alias: rec}}), nil
}

// Children implements Node.
func (a *Aggregate) Children() []Node { return []Node{a.Child} }

// Describe implements Node.
func (a *Aggregate) Describe() string { return "Aggregate(" + a.Child.Describe() + " -> " + a.Alias + ")" }

// ToJSON implements Node.
func (a *Aggregate) ToJSON() map[string]any {
	return map[string]any{"kind": "aggregate", "child": a.Child.ToJSON(), "alias": a.Alias, "aggregation": a.Aggregation.ToJSON()}
}
