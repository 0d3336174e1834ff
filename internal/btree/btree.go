package btree

import (
	"context"
	"fmt"
	"sort"

	"pauldb/internal/seq"
)

// Comparator orders two keys the same way the indexed column's
// types.Type.Compare does: negative if a < b, zero if equal, positive
// if a > b.
type Comparator func(a, b any) int

// Bound is one side of a Range query. A nil Bound means unbounded on
// that side.
type Bound struct {
	Value     any
	Inclusive bool
}

// RangeQuery restricts a Range scan to keys between Lo and Hi. Either
// side may be nil for an unbounded scan in that direction.
type RangeQuery struct {
	Lo *Bound
	Hi *Bound
}

// Tree is an ordered key -> []value index over a NodeList. Duplicate
// keys accumulate values on the same leaf entry rather than occupying
// separate slots. There is no rebalancing on delete; nodes only merge
// entries away, never nodes.
type Tree struct {
	list  NodeList
	cmp   Comparator
	order int
	root  NodeID
}

// New creates an empty tree backed by list, with at most order
// entries per leaf and order children per internal node before a
// split.
func New(list NodeList, cmp Comparator, order int) (*Tree, error) {
	if order < 3 {
		return nil, fmt.Errorf("btree: order must be >= 3, got %d", order)
	}
	root, err := list.CreateLeaf()
	if err != nil {
		return nil, err
	}
	return &Tree{list: list, cmp: cmp, order: order, root: root.ID}, nil
}

// Open reopens a tree whose root node already exists in list (used
// when the catalog records an index's root node-id across restarts).
func Open(list NodeList, cmp Comparator, order int, root NodeID) *Tree {
	return &Tree{list: list, cmp: cmp, order: order, root: root}
}

// Root returns the current root node-id, to be persisted by the
// catalog when it changes (splits replace the root).
func (t *Tree) Root() NodeID { return t.root }

// Commit flushes dirty nodes to the underlying medium.
func (t *Tree) Commit() error { return t.list.Commit() }

type pathStep struct {
	node  *Node
	child int
}

// descend walks from the root to the leaf that would hold key,
// recording the internal nodes and child indices passed through so a
// split can propagate back up.
func (t *Tree) descend(key any) ([]pathStep, *Node, error) {
	var path []pathStep
	n, err := t.list.Get(t.root)
	if err != nil {
		return nil, nil, err
	}
	for n.Kind == InternalKind {
		idx := sort.Search(len(n.Keys), func(i int) bool { return t.cmp(key, n.Keys[i]) < 0 })
		path = append(path, pathStep{node: n, child: idx})
		child, err := t.list.Get(n.Children[idx])
		if err != nil {
			return nil, nil, err
		}
		n = child
	}
	return path, n, nil
}

// Get returns the values stored under key, if present.
func (t *Tree) Get(key any) ([]any, bool, error) {
	_, leaf, err := t.descend(key)
	if err != nil {
		return nil, false, err
	}
	i, found := t.findEntry(leaf, key)
	if !found {
		return nil, false, nil
	}
	return leaf.Entries[i].Values, true, nil
}

// Has reports whether key is present.
func (t *Tree) Has(key any) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

func (t *Tree) findEntry(leaf *Node, key any) (int, bool) {
	i := sort.Search(len(leaf.Entries), func(i int) bool { return t.cmp(leaf.Entries[i].Key, key) >= 0 })
	if i < len(leaf.Entries) && t.cmp(leaf.Entries[i].Key, key) == 0 {
		return i, true
	}
	return i, false
}

// Insert adds value under key, appending to any existing entry for key.
func (t *Tree) Insert(key, value any) error {
	path, leaf, err := t.descend(key)
	if err != nil {
		return err
	}
	i, found := t.findEntry(leaf, key)
	if found {
		leaf.Entries[i].Values = append(leaf.Entries[i].Values, value)
		t.list.MarkDirty(leaf.ID)
		return nil
	}
	entry := Entry{Key: key, Values: []any{value}}
	leaf.Entries = append(leaf.Entries, Entry{})
	copy(leaf.Entries[i+1:], leaf.Entries[i:])
	leaf.Entries[i] = entry
	t.list.MarkDirty(leaf.ID)

	if len(leaf.Entries) <= t.order {
		return nil
	}
	return t.splitLeaf(path, leaf)
}

// splitLeaf splits an overflowing leaf in two and promotes the first
// key of the new right leaf into the parent, recursing upward through
// path if the parent overflows in turn.
func (t *Tree) splitLeaf(path []pathStep, leaf *Node) error {
	mid := len(leaf.Entries) / 2
	right, err := t.list.CreateLeaf()
	if err != nil {
		return err
	}
	right.Entries = append([]Entry(nil), leaf.Entries[mid:]...)
	right.Next = leaf.Next
	leaf.Entries = leaf.Entries[:mid]
	leaf.Next = right.ID
	t.list.MarkDirty(leaf.ID)
	t.list.MarkDirty(right.ID)

	promotedKey := right.Entries[0].Key
	return t.insertIntoParent(path, leaf.ID, promotedKey, right.ID)
}

// insertIntoParent inserts (promotedKey, rightID) into the parent
// recorded at the end of path, splitting that parent (and recursing
// further up, or creating a new root) if it overflows.
func (t *Tree) insertIntoParent(path []pathStep, leftID NodeID, promotedKey any, rightID NodeID) error {
	if len(path) == 0 {
		newRoot, err := t.list.CreateInternal()
		if err != nil {
			return err
		}
		newRoot.Keys = []any{promotedKey}
		newRoot.Children = []NodeID{leftID, rightID}
		t.list.MarkDirty(newRoot.ID)
		t.root = newRoot.ID
		return nil
	}

	step := path[len(path)-1]
	parent := step.node
	idx := step.child
	parent.Keys = append(parent.Keys, nil)
	copy(parent.Keys[idx+1:], parent.Keys[idx:])
	parent.Keys[idx] = promotedKey

	parent.Children = append(parent.Children, 0)
	copy(parent.Children[idx+2:], parent.Children[idx+1:])
	parent.Children[idx+1] = rightID
	t.list.MarkDirty(parent.ID)

	if len(parent.Children) <= t.order {
		return nil
	}
	return t.splitInternal(path[:len(path)-1], parent)
}

func (t *Tree) splitInternal(rest []pathStep, n *Node) error {
	mid := len(n.Keys) / 2
	promoted := n.Keys[mid]

	right, err := t.list.CreateInternal()
	if err != nil {
		return err
	}
	right.Keys = append([]any(nil), n.Keys[mid+1:]...)
	right.Children = append([]NodeID(nil), n.Children[mid+1:]...)

	n.Keys = n.Keys[:mid]
	n.Children = n.Children[:mid+1]
	t.list.MarkDirty(n.ID)
	t.list.MarkDirty(right.ID)

	return t.insertIntoParent(rest, n.ID, promoted, right.ID)
}

// Remove deletes value from key's entry. If that was the only value,
// the entry is removed entirely. Removing the last entry from a leaf
// leaves an underfull leaf in place.
func (t *Tree) Remove(key, value any) error {
	_, leaf, err := t.descend(key)
	if err != nil {
		return err
	}
	i, found := t.findEntry(leaf, key)
	if !found {
		return nil
	}
	values := leaf.Entries[i].Values
	for j, v := range values {
		if v == value {
			values = append(values[:j], values[j+1:]...)
			break
		}
	}
	if len(values) == 0 {
		leaf.Entries = append(leaf.Entries[:i], leaf.Entries[i+1:]...)
	} else {
		leaf.Entries[i].Values = values
	}
	t.list.MarkDirty(leaf.ID)
	return nil
}

// RemoveAll deletes every value under key.
func (t *Tree) RemoveAll(key any) error {
	_, leaf, err := t.descend(key)
	if err != nil {
		return err
	}
	i, found := t.findEntry(leaf, key)
	if !found {
		return nil
	}
	leaf.Entries = append(leaf.Entries[:i], leaf.Entries[i+1:]...)
	t.list.MarkDirty(leaf.ID)
	return nil
}

// Range returns entries in key order within q, walking leaf Next
// pointers once the starting leaf is located — an O(log n + k) scan.
func (t *Tree) Range(ctx context.Context, q RangeQuery) (seq.Seq[Entry], error) {
	leaf, err := t.firstLeafFor(q.Lo)
	if err != nil {
		return nil, err
	}
	idx := 0
	if leaf != nil && q.Lo != nil {
		i, found := t.findEntry(leaf, q.Lo.Value)
		if found && !q.Lo.Inclusive {
			i++
		}
		idx = i
	}

	return seq.Func[Entry](func(ctx context.Context) (Entry, bool, error) {
		var zero Entry
		for {
			if err := ctx.Err(); err != nil {
				return zero, false, err
			}
			if leaf == nil {
				return zero, false, nil
			}
			if idx >= len(leaf.Entries) {
				if leaf.Next == 0 {
					leaf = nil
					return zero, false, nil
				}
				next, err := t.list.Get(leaf.Next)
				if err != nil {
					return zero, false, err
				}
				leaf = next
				idx = 0
				continue
			}
			e := leaf.Entries[idx]
			if q.Hi != nil {
				c := t.cmp(e.Key, q.Hi.Value)
				if c > 0 || (c == 0 && !q.Hi.Inclusive) {
					leaf = nil
					return zero, false, nil
				}
			}
			idx++
			return e, true, nil
		}
	}), nil
}

// firstLeafFor returns the leaf that would contain lo.Value, or the
// leftmost leaf if lo is nil.
func (t *Tree) firstLeafFor(lo *Bound) (*Node, error) {
	var key any
	if lo != nil {
		key = lo.Value
	}
	n, err := t.list.Get(t.root)
	if err != nil {
		return nil, err
	}
	for n.Kind == InternalKind {
		idx := 0
		if lo != nil {
			idx = sort.Search(len(n.Keys), func(i int) bool { return t.cmp(key, n.Keys[i]) < 0 })
		}
		child, err := t.list.Get(n.Children[idx])
		if err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}
