package expr

import (
	"fmt"

	"pauldb/internal/types"
)

// Literal is a constant value carrying its own Type. Construction fails
// if the value does not validate against the declared type.
type Literal struct {
	Value any
	Typ   types.Type
}

// NewLiteral builds a Literal, failing if value is not valid for typ.
func NewLiteral(value any, typ types.Type) (*Literal, error) {
	if !typ.IsValid(value) {
		return nil, &types.ErrInvalidValue{Type: typ.Name(), Value: value}
	}
	return &Literal{Value: value, Typ: typ}, nil
}

// Resolve implements Expression.
func (l *Literal) Resolve(*Context) (any, error) { return l.Value, nil }

// Type implements Expression.
func (l *Literal) Type() types.Type { return l.Typ }

// Describe implements Expression.
func (l *Literal) Describe() string { return fmt.Sprintf("%v", l.Value) }

// ToJSON implements Expression.
func (l *Literal) ToJSON() map[string]any {
	return map[string]any{"kind": "literal", "value": l.Value, "type": l.Typ.Name()}
}
