package plan

import (
	"context"
	"sort"

	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/seq"
)

// SortKey is one OrderBy column: the expression to sort by and its
// direction.
type SortKey struct {
	Expr expr.Expression
	Desc bool
}

// OrderBy buffers the whole of Child, resolves every sort key once per
// row, and sorts stably by Keys left-to-right with early-exit on the
// first key that differs. Like GroupBy, this is a blocking operator: it
// cannot yield a single row until Child is fully exhausted, so it must
// be kept out of hot inner loops over large inputs.
type OrderBy struct {
	Child Node
	Keys  []SortKey
}

type sortedRow struct {
	row  row.Row
	keys []any
}

// Execute implements Node.
func (o *OrderBy) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	in, err := o.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := seq.ToSlice(ctx, in)
	if err != nil {
		return nil, err
	}

	buffered := make([]sortedRow, len(rows))
	for i, r := range rows {
		keys := make([]any, len(o.Keys))
		ec := exprContext(ctx, r)
		for j, k := range o.Keys {
			v, err := k.Expr.Resolve(ec)
			if err != nil {
				return nil, err
			}
			keys[j] = v
		}
		buffered[i] = sortedRow{row: r, keys: keys}
	}

	sort.SliceStable(buffered, func(i, j int) bool {
		for k, key := range o.Keys {
			c := key.Expr.Type().Compare(buffered[i].keys[k], buffered[j].keys[k])
			if key.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	out := make([]row.Row, len(buffered))
	for i, b := range buffered {
		out[i] = b.row
	}
	return seq.FromSlice(out), nil
}

// Children implements Node.
func (o *OrderBy) Children() []Node { return []Node{o.Child} }

// Describe implements Node.
func (o *OrderBy) Describe() string { return "OrderBy(" + o.Child.Describe() + ")" }

// ToJSON implements Node.
func (o *OrderBy) ToJSON() map[string]any {
	keys := make([]map[string]any, len(o.Keys))
	for i, k := range o.Keys {
		keys[i] = map[string]any{"expr": k.Expr.ToJSON(), "desc": k.Desc}
	}
	return map[string]any{"kind": "orderBy", "child": o.Child.ToJSON(), "keys": keys}
}
