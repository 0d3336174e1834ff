package expr

import (
	"pauldb/internal/schema"
	"pauldb/internal/types"
)

// ColumnRef reads a single column of a single aliased table out of the
// current row. For a computed column it invokes the column's Compute
// function on the aliased record rather than reading a stored value.
type ColumnRef struct {
	Alias  string
	Column schema.Column
}

// NewColumnRef builds a ColumnRef over column as seen through alias.
func NewColumnRef(alias string, column schema.Column) *ColumnRef {
	return &ColumnRef{Alias: alias, Column: column}
}

// Resolve implements Expression. An alias absent from the current row
// falls back to the ambient outer row of an enclosing sub-query before
// resolving to NULL (nullable types) or failing.
func (c *ColumnRef) Resolve(ctx *Context) (any, error) {
	rec, ok := ctx.Row[c.Alias]
	if !ok {
		if outer, found := OuterRow(ctx.Ctx); found {
			rec, ok = outer[c.Alias]
		}
	}
	if !ok {
		if _, nullable := types.Inner(c.Column.Type); nullable {
			return types.Null{}, nil
		}
		return nil, &ErrColumnUnbound{Alias: c.Alias, Column: c.Column.Name}
	}
	return c.Column.Value(rec)
}

// Type implements Expression.
func (c *ColumnRef) Type() types.Type { return c.Column.Type }

// Describe implements Expression.
func (c *ColumnRef) Describe() string { return c.Alias + "." + c.Column.Name }

// ToJSON implements Expression.
func (c *ColumnRef) ToJSON() map[string]any {
	return map[string]any{
		"kind":   "columnRef",
		"alias":  c.Alias,
		"column": c.Column.Name,
		"type":   c.Column.Type.Name(),
	}
}
