package types

import "encoding/binary"

// arrayType maps an inner Type elementwise. Values are []any whose
// elements all satisfy the inner type. Ordering is lexicographic,
// falling back to length ordering once one operand is exhausted.
type arrayType struct {
	inner Type
}

func newArray(inner Type) Type {
	return &arrayType{inner: inner}
}

func (t *arrayType) Name() string { return t.inner.Name() + "[]" }

func (t *arrayType) IsValid(v any) bool {
	arr, ok := v.([]any)
	if !ok {
		return false
	}
	for _, e := range arr {
		if !t.inner.IsValid(e) {
			return false
		}
	}
	return true
}

func (t *arrayType) Equal(a, b any) bool {
	av, bv := a.([]any), b.([]any)
	if len(av) != len(bv) {
		return false
	}
	for i := range av {
		if !t.inner.Equal(av[i], bv[i]) {
			return false
		}
	}
	return true
}

func (t *arrayType) Compare(a, b any) int {
	av, bv := a.([]any), b.([]any)
	n := len(av)
	if len(bv) < n {
		n = len(bv)
	}
	for i := 0; i < n; i++ {
		if c := t.inner.Compare(av[i], bv[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(av) < len(bv):
		return -1
	case len(av) > len(bv):
		return 1
	default:
		return 0
	}
}

func (t *arrayType) MinValue() (any, bool) { return []any{}, true }

func (t *arrayType) Nullable() Type { return newNullable(t) }

func (t *arrayType) Array() Type { return newArray(t) }

func (t *arrayType) Codec() Codec {
	inner := t.inner.Codec()
	if inner == nil {
		return nil
	}
	return &variableCodec{
		size: func(v any) int {
			n := 4
			for _, e := range v.([]any) {
				n += inner.Size(e)
			}
			return n
		},
		write: func(v any, buf []byte, off int) int {
			arr := v.([]any)
			binary.LittleEndian.PutUint32(buf[off:], uint32(len(arr)))
			pos := off + 4
			for _, e := range arr {
				pos += inner.Write(e, buf, pos)
			}
			return pos - off
		},
		read: func(buf []byte, off int) (any, int) {
			count := int(binary.LittleEndian.Uint32(buf[off:]))
			pos := off + 4
			arr := make([]any, count)
			for i := 0; i < count; i++ {
				v, n := inner.Read(buf, pos)
				arr[i] = v
				pos += n
			}
			return arr, pos - off
		},
	}
}

// ArrayElem returns the element type wrapped by an array composition,
// for callers (e.g. the Overlaps expression) that need to recover it
// from a statically-known array Type.
func ArrayElem(t Type) (Type, bool) {
	a, ok := t.(*arrayType)
	if !ok {
		return nil, false
	}
	return a.inner, true
}

// Overlaps reports whether any element of a equals any element of b
// under the element type's equality, used by the Overlaps expression.
func Overlaps(elem Type, a, b []any) bool {
	for _, x := range a {
		for _, y := range b {
			if elem.Equal(x, y) {
				return true
			}
		}
	}
	return false
}
