package plan

import (
	"context"

	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/seq"
)

// Join is a nested-loops inner join: Right is materialized once and
// reused across every row of Left; merged rows for which Predicate
// holds are emitted.
type Join struct {
	Left, Right Node
	Predicate   expr.Expression
}

// Execute implements Node.
func (j *Join) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	leftSeq, err := j.Left.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rightIn, err := j.Right.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rightRows, err := seq.ToSlice(ctx, rightIn)
	if err != nil {
		return nil, err
	}

	var curLeft row.Row
	haveLeft := false
	idx := 0

	return seq.Func[row.Row](func(c context.Context) (row.Row, bool, error) {
		for {
			if !haveLeft {
				lr, ok, err := leftSeq.Next(c)
				if err != nil || !ok {
					return nil, false, err
				}
				curLeft, idx, haveLeft = lr, 0, true
			}
			for idx < len(rightRows) {
				merged := curLeft.Merge(rightRows[idx])
				idx++
				keep, err := j.Predicate.Resolve(exprContext(c, merged))
				if err != nil {
					return nil, false, err
				}
				if b, ok := keep.(bool); ok && b {
					return merged, true, nil
				}
			}
			haveLeft = false
		}
	}), nil
}

// Children implements Node.
func (j *Join) Children() []Node { return []Node{j.Left, j.Right} }

// Describe implements Node.
func (j *Join) Describe() string {
	return "Join(" + j.Left.Describe() + ", " + j.Right.Describe() + ", " + j.Predicate.Describe() + ")"
}

// ToJSON implements Node.
func (j *Join) ToJSON() map[string]any {
	return map[string]any{"kind": "join", "left": j.Left.ToJSON(), "right": j.Right.ToJSON(), "predicate": j.Predicate.ToJSON()}
}
