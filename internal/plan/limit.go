package plan

import (
	"context"
	"fmt"

	"pauldb/internal/row"
	"pauldb/internal/seq"
)

// Limit yields at most N rows of Child, and never pulls an (N+1)-th
// row from Child (seq.Take already guarantees this), so a bounded query
// over an expensive child does exactly N rows of work.
type Limit struct {
	Child Node
	N     int
}

// Execute implements Node.
func (l *Limit) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	in, err := l.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return seq.Take(in, l.N), nil
}

// Children implements Node.
func (l *Limit) Children() []Node { return []Node{l.Child} }

// Describe implements Node.
func (l *Limit) Describe() string { return fmt.Sprintf("Limit(%s, %d)", l.Child.Describe(), l.N) }

// ToJSON implements Node.
func (l *Limit) ToJSON() map[string]any {
	return map[string]any{"kind": "limit", "child": l.Child.ToJSON(), "n": l.N}
}
