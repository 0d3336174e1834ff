package plan

import (
	"context"

	"pauldb/internal/agg"
	"pauldb/internal/btree"
	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
)

// GroupKey names one column of the group-key tuple and the expression
// that computes it.
type GroupKey struct {
	Name string
	Expr expr.Expression
}

// GroupBy partitions Child's rows by the resolved group-key tuple,
// folds each partition through Aggregation, and emits one row per
// non-empty partition — in the order groups were first seen, not
// group-key order — wrapped under Alias.
//
// Grouping is tracked with an in-memory B-tree keyed by the tuple,
// compared element-wise via each key's type comparator; the tree only
// needs to answer "have I seen this tuple", so its stored value is the
// group's position in the insertion-order slice that actually drives
// emission.
type GroupBy struct {
	Child       Node
	Keys        []GroupKey
	Aggregation *agg.MultiAggregation
	Alias       string
}

// NewGroupBy builds a GroupBy, defaulting Alias to DefaultAlias.
func NewGroupBy(child Node, keys []GroupKey, aggregation *agg.MultiAggregation, alias string) *GroupBy {
	if alias == "" {
		alias = DefaultAlias
	}
	return &GroupBy{Child: child, Keys: keys, Aggregation: aggregation, Alias: alias}
}

type groupState struct {
	keyVals []any
	acc     agg.Accumulator
}

func (g *GroupBy) keyCompare(a, b any) int {
	at, bt := a.([]any), b.([]any)
	for i, k := range g.Keys {
		if c := k.Expr.Type().Compare(at[i], bt[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Execute implements Node. GroupBy, like OrderBy, is a blocking
// operator: it cannot emit a row until Child is fully exhausted.
func (g *GroupBy) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	in, err := g.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}

	tree, err := btree.New(btree.NewMemoryNodeList(), btree.Comparator(g.keyCompare), 8)
	if err != nil {
		return nil, err
	}
	var groups []*groupState

	if err := seq.ForEach(ctx, in, func(r row.Row) error {
		ec := exprContext(ctx, r)
		keyVals := make([]any, len(g.Keys))
		for i, k := range g.Keys {
			v, err := k.Expr.Resolve(ec)
			if err != nil {
				return err
			}
			keyVals[i] = v
		}

		var gs *groupState
		existing, ok, err := tree.Get(keyVals)
		if err != nil {
			return err
		}
		if ok {
			gs = groups[existing[0].(int)]
		} else {
			acc, err := g.Aggregation.Init()
			if err != nil {
				return err
			}
			gs = &groupState{keyVals: keyVals, acc: acc}
			groups = append(groups, gs)
			if err := tree.Insert(keyVals, len(groups)-1); err != nil {
				return err
			}
		}
		acc, err := g.Aggregation.Update(gs.acc, ec)
		if err != nil {
			return err
		}
		gs.acc = acc
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]row.Row, len(groups))
	for i, gs := range groups {
		rec, err := g.Aggregation.ResultRecord(gs.acc)
		if err != nil {
			return nil, err
		}
		merged := make(schema.Record, len(g.Keys)+len(rec))
		for j, k := range g.Keys {
			merged[k.Name] = gs.keyVals[j]
		}
		for k, v := range rec {
			merged[k] = v
		}
		out[i] = row.Row{g.Alias: merged}
	}
	return seq.FromSlice(out), nil
}

// Children implements Node.
func (g *GroupBy) Children() []Node { return []Node{g.Child} }

// Describe implements Node.
func (g *GroupBy) Describe() string { return "GroupBy(" + g.Child.Describe() + " -> " + g.Alias + ")" }

// ToJSON implements Node.
func (g *GroupBy) ToJSON() map[string]any {
	keys := make([]string, len(g.Keys))
	for i, k := range g.Keys {
		keys[i] = k.Name
	}
	return map[string]any{
		"kind": "groupBy", "child": g.Child.ToJSON(), "alias": g.Alias,
		"keys": keys, "aggregation": g.Aggregation.ToJSON(),
	}
}
