package types

// nullableType wraps an inner Type, admitting the explicit Null
// sentinel as a value strictly ordered below every non-null value.
type nullableType struct {
	inner Type
}

func newNullable(inner Type) Type {
	if n, ok := inner.(*nullableType); ok {
		return n
	}
	return &nullableType{inner: inner}
}

func (t *nullableType) Name() string { return t.inner.Name() + "?" }

func (t *nullableType) IsValid(v any) bool {
	if isNull(v) {
		return true
	}
	return t.inner.IsValid(v)
}

func (t *nullableType) Equal(a, b any) bool {
	an, bn := isNull(a), isNull(b)
	if an || bn {
		return an && bn
	}
	return t.inner.Equal(a, b)
}

func (t *nullableType) Compare(a, b any) int {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	default:
		return t.inner.Compare(a, b)
	}
}

func (t *nullableType) MinValue() (any, bool) { return Null{}, true }

func (t *nullableType) Nullable() Type { return t }

func (t *nullableType) Array() Type { return newArray(t) }

func (t *nullableType) Codec() Codec {
	inner := t.inner.Codec()
	if inner == nil {
		return nil
	}
	return &variableCodec{
		size: func(v any) int {
			if isNull(v) {
				return 1
			}
			return 1 + inner.Size(v)
		},
		write: func(v any, buf []byte, off int) int {
			if isNull(v) {
				buf[off] = 0
				return 1
			}
			buf[off] = 1
			return 1 + inner.Write(v, buf, off+1)
		},
		read: func(buf []byte, off int) (any, int) {
			if buf[off] == 0 {
				return Null{}, 1
			}
			v, n := inner.Read(buf, off+1)
			return v, 1 + n
		},
	}
}

// Inner returns the type wrapped by a nullable composition, for callers
// (e.g. LeftJoin's outer-schema conversion) that need to re-derive the
// underlying type.
func Inner(t Type) (Type, bool) {
	n, ok := t.(*nullableType)
	if !ok {
		return nil, false
	}
	return n.inner, true
}
