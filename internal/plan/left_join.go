package plan

import (
	"context"

	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/seq"
)

// LeftJoin is Join, except a Left row that matches no Right row is
// still emitted, alone — every right-side alias is simply absent from
// the merged row, which ColumnRef already resolves to NULL for any
// column whose type admits it.
type LeftJoin struct {
	Left, Right Node
	Predicate   expr.Expression
}

// Execute implements Node.
func (lj *LeftJoin) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	leftSeq, err := lj.Left.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rightIn, err := lj.Right.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rightRows, err := seq.ToSlice(ctx, rightIn)
	if err != nil {
		return nil, err
	}

	var curLeft row.Row
	haveLeft := false
	matched := false
	idx := 0

	return seq.Func[row.Row](func(c context.Context) (row.Row, bool, error) {
		for {
			if !haveLeft {
				lr, ok, err := leftSeq.Next(c)
				if err != nil || !ok {
					return nil, false, err
				}
				curLeft, idx, matched, haveLeft = lr, 0, false, true
			}
			for idx < len(rightRows) {
				merged := curLeft.Merge(rightRows[idx])
				idx++
				keep, err := lj.Predicate.Resolve(exprContext(c, merged))
				if err != nil {
					return nil, false, err
				}
				if b, ok := keep.(bool); ok && b {
					matched = true
					return merged, true, nil
				}
			}
			haveLeft = false
			if !matched {
				return curLeft, true, nil
			}
		}
	}), nil
}

// Children implements Node.
func (lj *LeftJoin) Children() []Node { return []Node{lj.Left, lj.Right} }

// Describe implements Node.
func (lj *LeftJoin) Describe() string {
	return "LeftJoin(" + lj.Left.Describe() + ", " + lj.Right.Describe() + ", " + lj.Predicate.Describe() + ")"
}

// ToJSON implements Node.
func (lj *LeftJoin) ToJSON() map[string]any {
	return map[string]any{"kind": "leftJoin", "left": lj.Left.ToJSON(), "right": lj.Right.ToJSON(), "predicate": lj.Predicate.ToJSON()}
}
