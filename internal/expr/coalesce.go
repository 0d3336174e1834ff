package expr

import "pauldb/internal/types"

// Coalesce resolves Exprs left to right, returning the first non-null
// result; Last is non-nullable and is both the final fallback and the
// expression whose Type determines Coalesce's result type.
type Coalesce struct {
	Exprs []Expression
	Last  Expression
}

// Resolve implements Expression.
func (c *Coalesce) Resolve(ctx *Context) (any, error) {
	for _, e := range c.Exprs {
		v, err := e.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		if _, isNull := v.(types.Null); !isNull {
			return v, nil
		}
	}
	return c.Last.Resolve(ctx)
}

// Type implements Expression.
func (c *Coalesce) Type() types.Type { return c.Last.Type() }

// Describe implements Expression.
func (c *Coalesce) Describe() string {
	s := "COALESCE("
	for _, e := range c.Exprs {
		s += e.Describe() + ", "
	}
	return s + c.Last.Describe() + ")"
}

// ToJSON implements Expression.
func (c *Coalesce) ToJSON() map[string]any {
	exprs := make([]map[string]any, len(c.Exprs))
	for i, e := range c.Exprs {
		exprs[i] = e.ToJSON()
	}
	return map[string]any{"kind": "coalesce", "exprs": exprs, "last": c.Last.ToJSON()}
}
