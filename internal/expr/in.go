package expr

import "pauldb/internal/types"

// In is true iff Left resolves to a value equal to any of Candidates
// under Left's type equality.
type In struct {
	Left       Expression
	Candidates []Expression
}

// Resolve implements Expression.
func (in *In) Resolve(ctx *Context) (any, error) {
	lv, err := in.Left.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	typ := in.Left.Type()
	for _, cand := range in.Candidates {
		cv, err := cand.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		if !typ.IsValid(cv) {
			return nil, &ErrTypeMismatch{Op: "IN", LeftType: typ.Name(), RightType: cand.Type().Name(), LeftValue: lv, RightValue: cv}
		}
		if typ.Equal(lv, cv) {
			return true, nil
		}
	}
	return false, nil
}

// Type implements Expression.
func (in *In) Type() types.Type { return types.Bool }

// Describe implements Expression.
func (in *In) Describe() string {
	s := in.Left.Describe() + " IN ("
	for i, c := range in.Candidates {
		if i > 0 {
			s += ", "
		}
		s += c.Describe()
	}
	return s + ")"
}

// ToJSON implements Expression.
func (in *In) ToJSON() map[string]any {
	cands := make([]map[string]any, len(in.Candidates))
	for i, c := range in.Candidates {
		cands[i] = c.ToJSON()
	}
	return map[string]any{"kind": "in", "left": in.Left.ToJSON(), "candidates": cands}
}
