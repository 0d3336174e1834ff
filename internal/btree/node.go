// Package btree implements PaulDB's B-tree index: an ordered mapping
// from an indexed value to a list of row-ids, operating over an
// abstract node list so the same algorithm runs atop an in-memory arena
// or a paged persistent store.
package btree

import (
	"encoding/binary"
	"fmt"

	"pauldb/internal/storage"
	"pauldb/internal/types"
)

// NodeID is an opaque handle into a NodeList: an arena index for
// MemoryNodeList, or a page-id for PagedNodeList.
type NodeID uint64

// Kind discriminates a leaf node from an internal node.
type Kind uint8

const (
	LeafKind Kind = iota
	InternalKind
)

// Entry is one leaf-level (key, values) pair. Duplicates are modeled by
// appending to Values rather than by repeating the key.
type Entry struct {
	Key    any
	Values []any
}

// Node is a B-tree node. Leaf nodes carry Entries and a Next pointer to
// the next leaf for ordered traversal; internal nodes carry Keys and
// Children with len(Children) == len(Keys)+1.
type Node struct {
	ID       NodeID
	Kind     Kind
	Entries  []Entry  // leaf only
	Next     NodeID   // leaf only; 0 = none
	Keys     []any    // internal only
	Children []NodeID // internal only
}

// encodeNode serializes n using keyCodec for keys and fixed 8-byte
// little-endian integers for row-id values, node-ids and child pointers
// — a node header (type, count) followed by the entries, serialized by
// the key and value types.
func encodeNode(n *Node, keyCodec types.Codec) ([]byte, error) {
	switch n.Kind {
	case LeafKind:
		return encodeLeaf(n, keyCodec)
	case InternalKind:
		return encodeInternal(n, keyCodec)
	default:
		return nil, fmt.Errorf("btree: unknown node kind %d", n.Kind)
	}
}

func encodeLeaf(n *Node, keyCodec types.Codec) ([]byte, error) {
	size := 1 + 4 + 8
	for _, e := range n.Entries {
		size += keyCodec.Size(e.Key) + 4 + 8*len(e.Values)
	}
	buf := make([]byte, size)
	buf[0] = byte(LeafKind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(n.Entries)))
	binary.LittleEndian.PutUint64(buf[5:13], uint64(n.Next))
	pos := 13
	for _, e := range n.Entries {
		pos += keyCodec.Write(e.Key, buf, pos)
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(e.Values)))
		pos += 4
		for _, v := range e.Values {
			binary.LittleEndian.PutUint64(buf[pos:pos+8], valueToUint64(v))
			pos += 8
		}
	}
	return buf, nil
}

func encodeInternal(n *Node, keyCodec types.Codec) ([]byte, error) {
	size := 1 + 4
	for _, k := range n.Keys {
		size += keyCodec.Size(k)
	}
	size += 8 * len(n.Children)
	buf := make([]byte, size)
	buf[0] = byte(InternalKind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(n.Keys)))
	pos := 5
	for _, k := range n.Keys {
		pos += keyCodec.Write(k, buf, pos)
	}
	for _, c := range n.Children {
		binary.LittleEndian.PutUint64(buf[pos:pos+8], uint64(c))
		pos += 8
	}
	return buf, nil
}

func decodeNode(id NodeID, buf []byte, keyCodec types.Codec) (*Node, error) {
	if len(buf) < 5 {
		return nil, fmt.Errorf("btree: truncated node page")
	}
	kind := Kind(buf[0])
	count := int(binary.LittleEndian.Uint32(buf[1:5]))
	switch kind {
	case LeafKind:
		next := NodeID(binary.LittleEndian.Uint64(buf[5:13]))
		pos := 13
		entries := make([]Entry, count)
		for i := 0; i < count; i++ {
			k, n := keyCodec.Read(buf, pos)
			pos += n
			vc := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
			pos += 4
			values := make([]any, vc)
			for j := 0; j < vc; j++ {
				values[j] = uint64ToValue(binary.LittleEndian.Uint64(buf[pos : pos+8]))
				pos += 8
			}
			entries[i] = Entry{Key: k, Values: values}
		}
		return &Node{ID: id, Kind: LeafKind, Entries: entries, Next: next}, nil
	case InternalKind:
		pos := 5
		keys := make([]any, count)
		for i := 0; i < count; i++ {
			k, n := keyCodec.Read(buf, pos)
			pos += n
			keys[i] = k
		}
		children := make([]NodeID, count+1)
		for i := 0; i <= count; i++ {
			children[i] = NodeID(binary.LittleEndian.Uint64(buf[pos : pos+8]))
			pos += 8
		}
		return &Node{ID: id, Kind: InternalKind, Keys: keys, Children: children}, nil
	default:
		return nil, fmt.Errorf("btree: unknown node kind %d in page", kind)
	}
}

// valueToUint64/uint64ToValue encode a paged index's row-id values.
// PagedNodeList is only ever used for table column indexes, whose
// values are always storage.RowID, so this round-trips without a
// generic value codec.
func valueToUint64(v any) uint64 {
	switch x := v.(type) {
	case storage.RowID:
		return uint64(x)
	case uint64:
		return x
	default:
		panic(fmt.Sprintf("btree: paged node list cannot encode value of type %T", v))
	}
}

func uint64ToValue(u uint64) any { return storage.RowID(u) }
