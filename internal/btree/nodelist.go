package btree

import (
	"fmt"

	"pauldb/internal/storage"
	"pauldb/internal/types"
)

// NodeList is the abstract, node-id-agnostic backing store a Tree
// operates over: get by id, create a fresh leaf or internal node, mark
// a node dirty, and commit dirty nodes to the medium. The same Tree
// algorithm runs over MemoryNodeList or PagedNodeList without change.
type NodeList interface {
	Get(id NodeID) (*Node, error)
	CreateLeaf() (*Node, error)
	CreateInternal() (*Node, error)
	MarkDirty(id NodeID)
	Commit() error
}

// MemoryNodeList is an in-memory arena: every node lives only in
// process memory, so MarkDirty/Commit are no-ops. Used by GroupBy's
// ephemeral grouping tree and by in-memory-database indexes.
type MemoryNodeList struct {
	nodes map[NodeID]*Node
	next  NodeID
}

// NewMemoryNodeList returns an empty in-memory node arena.
func NewMemoryNodeList() *MemoryNodeList {
	return &MemoryNodeList{nodes: make(map[NodeID]*Node), next: 1}
}

func (l *MemoryNodeList) Get(id NodeID) (*Node, error) {
	n, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("btree: node %d not found", id)
	}
	return n, nil
}

func (l *MemoryNodeList) CreateLeaf() (*Node, error) {
	id := l.next
	l.next++
	n := &Node{ID: id, Kind: LeafKind}
	l.nodes[id] = n
	return n, nil
}

func (l *MemoryNodeList) CreateInternal() (*Node, error) {
	id := l.next
	l.next++
	n := &Node{ID: id, Kind: InternalKind}
	l.nodes[id] = n
	return n, nil
}

func (l *MemoryNodeList) MarkDirty(NodeID) {}

func (l *MemoryNodeList) Commit() error { return nil }

// PagedNodeList persists nodes as fixed-size pages through a
// storage.PageMedium — the same medium the row heap uses — keyed by
// keyCodec for the index's column type. Values are always
// storage.RowID.
type PagedNodeList struct {
	medium   storage.PageMedium
	keyCodec types.Codec
	cache    map[NodeID]*Node
	dirty    map[NodeID]bool
}

// NewPagedNodeList wraps medium for an index whose keys are encoded by
// keyCodec.
func NewPagedNodeList(medium storage.PageMedium, keyCodec types.Codec) *PagedNodeList {
	return &PagedNodeList{medium: medium, keyCodec: keyCodec, cache: make(map[NodeID]*Node), dirty: make(map[NodeID]bool)}
}

func (l *PagedNodeList) Get(id NodeID) (*Node, error) {
	if n, ok := l.cache[id]; ok {
		return n, nil
	}
	raw, err := l.medium.Read(storage.PageID(id))
	if err != nil {
		return nil, err
	}
	n, err := decodeNode(id, raw, l.keyCodec)
	if err != nil {
		return nil, err
	}
	l.cache[id] = n
	return n, nil
}

func (l *PagedNodeList) CreateLeaf() (*Node, error) {
	pid, err := l.medium.Allocate()
	if err != nil {
		return nil, err
	}
	n := &Node{ID: NodeID(pid), Kind: LeafKind}
	l.cache[n.ID] = n
	l.dirty[n.ID] = true
	return n, nil
}

func (l *PagedNodeList) CreateInternal() (*Node, error) {
	pid, err := l.medium.Allocate()
	if err != nil {
		return nil, err
	}
	n := &Node{ID: NodeID(pid), Kind: InternalKind}
	l.cache[n.ID] = n
	l.dirty[n.ID] = true
	return n, nil
}

func (l *PagedNodeList) MarkDirty(id NodeID) { l.dirty[id] = true }

func (l *PagedNodeList) Commit() error {
	for id := range l.dirty {
		n, ok := l.cache[id]
		if !ok {
			continue
		}
		buf, err := encodeNode(n, l.keyCodec)
		if err != nil {
			return err
		}
		if err := l.medium.Write(storage.PageID(id), buf); err != nil {
			return err
		}
	}
	l.dirty = make(map[NodeID]bool)
	return l.medium.Sync()
}
