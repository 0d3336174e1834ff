package plan

import (
	"context"

	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/schema"
	"pauldb/internal/seq"
)

// NamedExpr pairs an output column name with the expression producing
// it, in the order the caller declared them.
type NamedExpr struct {
	Name string
	Expr expr.Expression
}

// Select projects Child's rows through Columns, evaluating each
// expression exactly once per row, and wraps the resulting record under
// Alias (default "$0") so the outermost result of any plan is
// addressable uniformly.
type Select struct {
	Child   Node
	Alias   string
	Columns []NamedExpr
}

// NewSelect builds a Select, defaulting Alias to DefaultAlias.
func NewSelect(child Node, alias string, columns []NamedExpr) *Select {
	if alias == "" {
		alias = DefaultAlias
	}
	return &Select{Child: child, Alias: alias, Columns: columns}
}

// Execute implements Node.
func (s *Select) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	in, err := s.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return seq.Map(in, func(c context.Context, r row.Row) (row.Row, error) {
		ec := exprContext(c, r)
		out := make(schema.Record, len(s.Columns))
		for _, col := range s.Columns {
			v, err := col.Expr.Resolve(ec)
			if err != nil {
				return nil, err
			}
			out[col.Name] = v
		}
		return row.Row{s.Alias: out}, nil
	}), nil
}

// Children implements Node.
func (s *Select) Children() []Node { return []Node{s.Child} }

// Describe implements Node.
func (s *Select) Describe() string { return "Select(" + s.Child.Describe() + " -> " + s.Alias + ")" }

// ToJSON implements Node.
func (s *Select) ToJSON() map[string]any {
	cols := make(map[string]any, len(s.Columns))
	for _, col := range s.Columns {
		cols[col.Name] = col.Expr.ToJSON()
	}
	return map[string]any{"kind": "select", "child": s.Child.ToJSON(), "alias": s.Alias, "columns": cols}
}
