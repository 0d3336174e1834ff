// Package plan implements PaulDB's relational-algebra query plan
// operators: TableScan, Filter, Select, Limit, OrderBy, Join, LeftJoin,
// GroupBy, and Aggregate, executed as a lazy pull-based pipeline over
// multi-table rows.
package plan

import (
	"context"

	"pauldb/internal/expr"
	"pauldb/internal/row"
	"pauldb/internal/seq"
)

// DefaultAlias is the alias Select, GroupBy, and Aggregate wrap their
// shaped output under when the caller does not override it, so the
// outermost result of any plan is always addressable uniformly.
const DefaultAlias = "$0"

// Node is the common contract every plan operator satisfies. Execute is
// the sole suspension boundary: everything between two calls to Next on
// the returned sequence is synchronous in-memory work.
type Node interface {
	// Describe renders a short human-readable form for plan printing.
	Describe() string
	// ToJSON renders the operator (and its children) as a
	// JSON-serializable tree.
	ToJSON() map[string]any
	// Children returns the operator's direct plan inputs, in
	// evaluation order.
	Children() []Node
	// Execute begins pulling rows from this operator's children and
	// returns a lazy sequence of the rows it produces.
	Execute(ctx context.Context) (seq.Seq[row.Row], error)
}

// exprContext adapts a plain context.Context plus a row into the
// expr.Context every predicate/projection expression resolves
// against.
func exprContext(ctx context.Context, r row.Row) *expr.Context {
	return &expr.Context{Ctx: ctx, Row: r}
}
