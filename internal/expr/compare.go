package expr

import (
	"fmt"

	"pauldb/internal/types"
)

// CompareOp is one of the six comparison operators Compare supports.
type CompareOp string

const (
	Eq  CompareOp = "="
	Neq CompareOp = "!="
	Lt  CompareOp = "<"
	Lte CompareOp = "<="
	Gt  CompareOp = ">"
	Gte CompareOp = ">="
)

// Compare asserts left and right are type-compatible — each side's type
// accepts the other side's resolved value — then delegates to whichever
// operand's type passes both checks, using its Equal for =/!= and its
// Compare for the ordering operators.
type Compare struct {
	Left  Expression
	Op    CompareOp
	Right Expression
}

func (c *Compare) commonType(lv, rv any) (types.Type, error) {
	lt, rt := c.Left.Type(), c.Right.Type()
	if lt.IsValid(lv) && lt.IsValid(rv) {
		return lt, nil
	}
	if rt.IsValid(lv) && rt.IsValid(rv) {
		return rt, nil
	}
	return nil, &ErrTypeMismatch{Op: string(c.Op), LeftType: lt.Name(), RightType: rt.Name(), LeftValue: lv, RightValue: rv}
}

// Resolve implements Expression.
func (c *Compare) Resolve(ctx *Context) (any, error) {
	lv, err := c.Left.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := c.Right.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	typ, err := c.commonType(lv, rv)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case Eq:
		return typ.Equal(lv, rv), nil
	case Neq:
		return !typ.Equal(lv, rv), nil
	case Lt:
		return typ.Compare(lv, rv) < 0, nil
	case Lte:
		return typ.Compare(lv, rv) <= 0, nil
	case Gt:
		return typ.Compare(lv, rv) > 0, nil
	case Gte:
		return typ.Compare(lv, rv) >= 0, nil
	default:
		return nil, fmt.Errorf("expr: unknown comparison op %q", c.Op)
	}
}

// Type implements Expression.
func (c *Compare) Type() types.Type { return types.Bool }

// Describe implements Expression.
func (c *Compare) Describe() string {
	return c.Left.Describe() + " " + string(c.Op) + " " + c.Right.Describe()
}

// ToJSON implements Expression.
func (c *Compare) ToJSON() map[string]any {
	return map[string]any{"kind": "compare", "op": string(c.Op), "left": c.Left.ToJSON(), "right": c.Right.ToJSON()}
}
