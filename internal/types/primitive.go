package types

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// baseType implements Type via closures supplied by each primitive
// constructor; Nullable/Array compositions wrap the receiver.
type baseType struct {
	name     string
	isValid  func(v any) bool
	equal    func(a, b any) bool
	compare  func(a, b any) int
	minValue func() (any, bool)
	codec    Codec
}

func (t *baseType) Name() string             { return t.name }
func (t *baseType) IsValid(v any) bool       { return t.isValid(v) }
func (t *baseType) Equal(a, b any) bool      { return t.equal(a, b) }
func (t *baseType) Compare(a, b any) int     { return t.compare(a, b) }
func (t *baseType) MinValue() (any, bool)    { return t.minValue() }
func (t *baseType) Nullable() Type           { return newNullable(t) }
func (t *baseType) Array() Type              { return newArray(t) }
func (t *baseType) Codec() Codec             { return t.codec }

func noMin() (any, bool) { return nil, false }

func cmpOrdered[T interface {
	~int16 | ~int32 | ~uint16 | ~uint32 | ~float64 | ~string
}](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Bool is the boolean primitive type.
var Bool Type = &baseType{
	name:    "bool",
	isValid: func(v any) bool { _, ok := v.(bool); return ok },
	equal:   func(a, b any) bool { return a.(bool) == b.(bool) },
	compare: func(a, b any) int {
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av && bv {
			return -1
		}
		return 1
	},
	minValue: func() (any, bool) { return false, true },
	codec: &fixedCodec{
		size: 1,
		write: func(v any, buf []byte, off int) {
			if v.(bool) {
				buf[off] = 1
			} else {
				buf[off] = 0
			}
		},
		read: func(buf []byte, off int) any { return buf[off] != 0 },
	},
}

// Int16 is the signed 16-bit integer primitive type.
var Int16 Type = &baseType{
	name:     "int16",
	isValid:  func(v any) bool { _, ok := v.(int16); return ok },
	equal:    func(a, b any) bool { return a.(int16) == b.(int16) },
	compare:  func(a, b any) int { return cmpOrdered(a.(int16), b.(int16)) },
	minValue: func() (any, bool) { return int16(math.MinInt16), true },
	codec:    fixedLE(2, func(v any) uint64 { return uint64(uint16(v.(int16))) }, func(u uint64) any { return int16(uint16(u)) }),
}

// Int32 is the signed 32-bit integer primitive type.
var Int32 Type = &baseType{
	name:     "int32",
	isValid:  func(v any) bool { _, ok := v.(int32); return ok },
	equal:    func(a, b any) bool { return a.(int32) == b.(int32) },
	compare:  func(a, b any) int { return cmpOrdered(a.(int32), b.(int32)) },
	minValue: func() (any, bool) { return int32(math.MinInt32), true },
	codec:    fixedLE(4, func(v any) uint64 { return uint64(uint32(v.(int32))) }, func(u uint64) any { return int32(uint32(u)) }),
}

// UInt16 is the unsigned 16-bit integer primitive type.
var UInt16 Type = &baseType{
	name:     "uint16",
	isValid:  func(v any) bool { _, ok := v.(uint16); return ok },
	equal:    func(a, b any) bool { return a.(uint16) == b.(uint16) },
	compare:  func(a, b any) int { return cmpOrdered(a.(uint16), b.(uint16)) },
	minValue: func() (any, bool) { return uint16(0), true },
	codec:    fixedLE(2, func(v any) uint64 { return uint64(v.(uint16)) }, func(u uint64) any { return uint16(u) }),
}

// UInt32 is the unsigned 32-bit integer primitive type.
var UInt32 Type = &baseType{
	name:     "uint32",
	isValid:  func(v any) bool { _, ok := v.(uint32); return ok },
	equal:    func(a, b any) bool { return a.(uint32) == b.(uint32) },
	compare:  func(a, b any) int { return cmpOrdered(a.(uint32), b.(uint32)) },
	minValue: func() (any, bool) { return uint32(0), true },
	codec:    fixedLE(4, func(v any) uint64 { return uint64(v.(uint32)) }, func(u uint64) any { return uint32(u) }),
}

// Serial is an auto-assigned uint32 primitive type. It validates like
// UInt32; the table handle is responsible for assigning its value.
var Serial Type = &baseType{
	name:     "serial",
	isValid:  func(v any) bool { _, ok := v.(uint32); return ok },
	equal:    func(a, b any) bool { return a.(uint32) == b.(uint32) },
	compare:  func(a, b any) int { return cmpOrdered(a.(uint32), b.(uint32)) },
	minValue: func() (any, bool) { return uint32(0), true },
	codec:    fixedLE(4, func(v any) uint64 { return uint64(v.(uint32)) }, func(u uint64) any { return uint32(u) }),
}

// Float is the 64-bit floating point primitive type.
var Float Type = &baseType{
	name:    "float",
	isValid: func(v any) bool { _, ok := v.(float64); return ok },
	equal:   func(a, b any) bool { return a.(float64) == b.(float64) },
	compare: func(a, b any) int { return cmpOrdered(a.(float64), b.(float64)) },
	minValue: func() (any, bool) {
		return -math.MaxFloat64, true
	},
	codec: fixedLE(8,
		func(v any) uint64 { return math.Float64bits(v.(float64)) },
		func(u uint64) any { return math.Float64frombits(u) }),
}

// String is the UTF-8 string primitive type.
var String Type = &baseType{
	name:     "string",
	isValid:  func(v any) bool { _, ok := v.(string); return ok },
	equal:    func(a, b any) bool { return a.(string) == b.(string) },
	compare:  func(a, b any) int { return cmpOrdered(a.(string), b.(string)) },
	minValue: func() (any, bool) { return "", true },
	codec: &variableCodec{
		size: func(v any) int { return 4 + len(v.(string)) },
		write: func(v any, buf []byte, off int) int {
			return writeBytesPrefixed([]byte(v.(string)), buf, off)
		},
		read: func(buf []byte, off int) (any, int) {
			b, n := readBytesPrefixed(buf, off)
			return string(b), n
		},
	},
}

// Blob is the opaque binary primitive type.
var Blob Type = &baseType{
	name:     "blob",
	isValid:  func(v any) bool { _, ok := v.([]byte); return ok },
	equal:    func(a, b any) bool { return bytes.Equal(a.([]byte), b.([]byte)) },
	compare:  func(a, b any) int { return bytes.Compare(a.([]byte), b.([]byte)) },
	minValue: func() (any, bool) { return []byte{}, true },
	codec: &variableCodec{
		size:  func(v any) int { return 4 + len(v.([]byte)) },
		write: func(v any, buf []byte, off int) int { return writeBytesPrefixed(v.([]byte), buf, off) },
		read: func(buf []byte, off int) (any, int) {
			return readBytesPrefixed(buf, off)
		},
	},
}

// Date is a date-only (no time-of-day) primitive type, stored as days
// since the Unix epoch.
var Date Type = &baseType{
	name: "date",
	isValid: func(v any) bool {
		t, ok := v.(time.Time)
		return ok && t.Equal(truncateToDate(t))
	},
	equal:    func(a, b any) bool { return a.(time.Time).Equal(b.(time.Time)) },
	compare:  func(a, b any) int { return cmpTime(a.(time.Time), b.(time.Time)) },
	minValue: func() (any, bool) { return time.Unix(0, 0).UTC(), true },
	codec: fixedLE(4,
		func(v any) uint64 {
			days := v.(time.Time).Unix() / 86400
			return uint64(uint32(days))
		},
		func(u uint64) any {
			return time.Unix(int64(int32(uint32(u)))*86400, 0).UTC()
		}),
}

// Timestamp is a millisecond-precision instant primitive type.
var Timestamp Type = &baseType{
	name:     "timestamp",
	isValid:  func(v any) bool { _, ok := v.(time.Time); return ok },
	equal:    func(a, b any) bool { return a.(time.Time).Equal(b.(time.Time)) },
	compare:  func(a, b any) int { return cmpTime(a.(time.Time), b.(time.Time)) },
	minValue: func() (any, bool) { return time.Unix(0, 0).UTC(), true },
	codec: fixedLE(8,
		func(v any) uint64 { return uint64(v.(time.Time).UnixMilli()) },
		func(u uint64) any { return time.UnixMilli(int64(u)).UTC() }),
}

// UUID is the 128-bit UUID primitive type.
var UUID Type = &baseType{
	name:    "uuid",
	isValid: func(v any) bool { _, ok := v.(uuid.UUID); return ok },
	equal:   func(a, b any) bool { return a.(uuid.UUID) == b.(uuid.UUID) },
	compare: func(a, b any) int {
		au := a.(uuid.UUID)
		bu := b.(uuid.UUID)
		return bytes.Compare(au[:], bu[:])
	},
	minValue: noMin,
	codec: &fixedCodec{
		size: 16,
		write: func(v any, buf []byte, off int) {
			vu := v.(uuid.UUID)
			copy(buf[off:off+16], vu[:])
		},
		read: func(buf []byte, off int) any {
			var u uuid.UUID
			copy(u[:], buf[off:off+16])
			return u
		},
	},
}

// JSON is the arbitrary-JSON primitive type. Values are any type
// accepted by encoding/json.Marshal; equality and ordering compare the
// canonical marshaled form.
var JSON Type = &baseType{
	name: "json",
	isValid: func(v any) bool {
		_, err := json.Marshal(v)
		return err == nil
	},
	equal: func(a, b any) bool {
		ab, _ := json.Marshal(a)
		bb, _ := json.Marshal(b)
		return bytes.Equal(ab, bb)
	},
	compare: func(a, b any) int {
		ab, _ := json.Marshal(a)
		bb, _ := json.Marshal(b)
		return bytes.Compare(ab, bb)
	},
	minValue: noMin,
	codec: &variableCodec{
		size: func(v any) int { b, _ := json.Marshal(v); return 4 + len(b) },
		write: func(v any, buf []byte, off int) int {
			b, _ := json.Marshal(v)
			return writeBytesPrefixed(b, buf, off)
		},
		read: func(buf []byte, off int) (any, int) {
			b, n := readBytesPrefixed(buf, off)
			var v any
			_ = json.Unmarshal(b, &v)
			return v, n
		},
	},
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// fixedLE builds a fixedCodec for little-endian integer-backed values
// of the given byte size (1, 2, 4 or 8).
func fixedLE(size int, to func(v any) uint64, from func(u uint64) any) Codec {
	return &fixedCodec{
		size: size,
		write: func(v any, buf []byte, off int) {
			u := to(v)
			for i := 0; i < size; i++ {
				buf[off+i] = byte(u >> (8 * i))
			}
		},
		read: func(buf []byte, off int) any {
			var u uint64
			for i := 0; i < size; i++ {
				u |= uint64(buf[off+i]) << (8 * i)
			}
			return from(u)
		},
	}
}
