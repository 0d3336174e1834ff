package plan

import (
	"context"

	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/seq"
)

// Filter yields only the rows of Child for which Predicate resolves
// true.
type Filter struct {
	Child     Node
	Predicate expr.Expression
}

// Execute implements Node.
func (f *Filter) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	in, err := f.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return seq.Filter(in, func(c context.Context, r row.Row) (bool, error) {
		v, err := f.Predicate.Resolve(exprContext(c, r))
		if err != nil {
			return false, err
		}
		b, ok := v.(bool)
		return ok && b, nil
	}), nil
}

// Children implements Node.
func (f *Filter) Children() []Node { return []Node{f.Child} }

// Describe implements Node.
func (f *Filter) Describe() string { return "Filter(" + f.Child.Describe() + ", " + f.Predicate.Describe() + ")" }

// ToJSON implements Node.
func (f *Filter) ToJSON() map[string]any {
	return map[string]any{"kind": "filter", "child": f.Child.ToJSON(), "predicate": f.Predicate.ToJSON()}
}
