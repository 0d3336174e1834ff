package expr

import "pauldb/internal/types"

// Overlaps is true iff Left and Right, both array-typed, share at least
// one element under the element type's equality.
type Overlaps struct {
	Left, Right Expression
}

// Resolve implements Expression.
func (o *Overlaps) Resolve(ctx *Context) (any, error) {
	elem, ok := types.ArrayElem(o.Left.Type())
	if !ok {
		return nil, &ErrTypeMismatch{Op: "OVERLAPS", LeftType: o.Left.Type().Name(), RightType: o.Right.Type().Name()}
	}
	lv, err := o.Left.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := o.Right.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	la, ok := lv.([]any)
	if !ok {
		return nil, &ErrTypeMismatch{Op: "OVERLAPS", LeftType: o.Left.Type().Name(), LeftValue: lv}
	}
	ra, ok := rv.([]any)
	if !ok {
		return nil, &ErrTypeMismatch{Op: "OVERLAPS", RightType: o.Right.Type().Name(), RightValue: rv}
	}
	return types.Overlaps(elem, la, ra), nil
}

// Type implements Expression.
func (o *Overlaps) Type() types.Type { return types.Bool }

// Describe implements Expression.
func (o *Overlaps) Describe() string {
	return o.Left.Describe() + " OVERLAPS " + o.Right.Describe()
}

// ToJSON implements Expression.
func (o *Overlaps) ToJSON() map[string]any {
	return map[string]any{"kind": "overlaps", "left": o.Left.ToJSON(), "right": o.Right.ToJSON()}
}
