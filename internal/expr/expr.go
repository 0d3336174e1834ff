// Package expr implements PaulDB's typed expression tree: column
// references, literals, comparisons, logical combinators, IN, COALESCE,
// array overlap, and correlated sub-queries. Every expression knows its
// own result Type statically, resolves against a multi-table row, and
// is JSON-serializable for plan printing and persistence.
package expr

import (
	"context"
	"fmt"

	"pauldb/internal/row"
	"pauldb/internal/seq"
	"pauldb/internal/types"
)

// Context carries the ambient state an expression resolves against:
// the current multi-table row and a cancellation-bearing context for
// any suspension point a sub-query introduces.
type Context struct {
	Ctx context.Context
	Row row.Row
}

// With returns a copy of c bound to a different row, used by plan
// operators to evaluate the same expression across many input rows.
func (c *Context) With(r row.Row) *Context {
	return &Context{Ctx: c.Ctx, Row: r}
}

// Expression is the common contract every node of the tree satisfies.
type Expression interface {
	// Resolve evaluates the expression against ctx.
	Resolve(ctx *Context) (any, error)
	// Type returns the expression's static result type.
	Type() types.Type
	// Describe renders a short human-readable form for plan printing.
	Describe() string
	// ToJSON renders the expression as a JSON-serializable tree.
	ToJSON() map[string]any
}

// Executable is the minimal contract a query plan node exposes to a
// Sub-query expression — executing it yields a lazy sequence of
// multi-table rows. internal/plan.Node satisfies this structurally;
// expr never imports internal/plan, which would otherwise cycle back
// (plan.Filter holds an Expression as its predicate).
type Executable interface {
	Execute(ctx context.Context) (seq.Seq[row.Row], error)
}

// ErrTypeMismatch is returned when two operands of a Compare or In are
// not compatible under each other's Type.IsValid, when a Not or AndOr
// operand is not boolean, or when an Overlaps operand is not an array.
type ErrTypeMismatch struct {
	Op         string
	LeftType   string
	RightType  string
	LeftValue  any
	RightValue any
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("expr: %s: %s (%v) is not compatible with %s (%v)", e.Op, e.LeftType, e.LeftValue, e.RightType, e.RightValue)
}

// ErrColumnUnbound is returned resolving a ColumnRef whose table alias
// is absent from the row and whose column type admits no NULL (i.e. a
// non-nullable column on the unmatched side of a LeftJoin).
type ErrColumnUnbound struct {
	Alias  string
	Column string
}

func (e *ErrColumnUnbound) Error() string {
	return fmt.Sprintf("expr: column %q of unbound alias %q has no null value to fall back to", e.Column, e.Alias)
}

// ErrSubQueryShape is returned when a Sub-query expression's plan does
// not yield exactly one row of exactly one cell.
type ErrSubQueryShape struct {
	Reason string
}

func (e *ErrSubQueryShape) Error() string { return "expr: sub-query: " + e.Reason }
