package agg

import (
	"fmt"

	"pauldb/internal/expr"
	"pauldb/internal/types"
)

// Sum folds Expr's resolved values with numeric addition, accumulating
// in float64 and converting back to Expr's own representation on
// Result.
type Sum struct {
	Expr expr.Expression
}

// NewSum builds a Sum aggregation over a numeric-typed expression.
func NewSum(e expr.Expression) (*Sum, error) {
	if _, err := numericKind(e.Type()); err != nil {
		return nil, err
	}
	return &Sum{Expr: e}, nil
}

// Init implements Aggregation.
func (s *Sum) Init() (Accumulator, error) { return float64(0), nil }

// Update implements Aggregation.
func (s *Sum) Update(acc Accumulator, ctx *expr.Context) (Accumulator, error) {
	v, err := s.Expr.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	f, err := toFloat64(v)
	if err != nil {
		return nil, err
	}
	return acc.(float64) + f, nil
}

// Result implements Aggregation.
func (s *Sum) Result(acc Accumulator) (any, error) {
	return fromFloat64(s.Expr.Type(), acc.(float64))
}

// Type implements Aggregation.
func (s *Sum) Type() types.Type { return s.Expr.Type() }

// Describe implements Aggregation.
func (s *Sum) Describe() string { return "sum(" + s.Expr.Describe() + ")" }

// ToJSON implements Aggregation.
func (s *Sum) ToJSON() map[string]any { return map[string]any{"kind": "sum", "expr": s.Expr.ToJSON()} }

func numericKind(t types.Type) (string, error) {
	switch t.Name() {
	case "int16", "int32", "uint16", "uint32", "serial", "float":
		return t.Name(), nil
	default:
		return "", fmt.Errorf("agg: sum requires a numeric type, got %s", t.Name())
	}
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("agg: value %#v is not numeric", v)
	}
}

func fromFloat64(t types.Type, f float64) (any, error) {
	switch t.Name() {
	case "int16":
		return int16(f), nil
	case "int32":
		return int32(f), nil
	case "uint16":
		return uint16(f), nil
	case "uint32", "serial":
		return uint32(f), nil
	case "float":
		return f, nil
	default:
		return nil, fmt.Errorf("agg: cannot convert sum back to type %s", t.Name())
	}
}
