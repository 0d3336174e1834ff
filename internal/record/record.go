// Package record implements the record codec: packing a record of
// typed, stored cells to and from a byte buffer using a table's column
// list and each column type's codec.
package record

import (
	"fmt"

	"pauldb/internal/schema"
)

// Codec packs/unpacks the stored columns of a table schema in column
// order. A table is serializable only if every stored column carries a
// codec.
type Codec struct {
	columns []schema.Column
}

// NewCodec builds a Codec for a table's stored columns. It returns an
// error if any stored column's type has no codec.
func NewCodec(t *schema.Table) (*Codec, error) {
	stored := t.StoredColumns()
	for _, c := range stored {
		if c.Type.Codec() == nil {
			return nil, fmt.Errorf("record: column %q of table %q has no codec, not serializable", c.Name, t.Name)
		}
	}
	return &Codec{columns: stored}, nil
}

// Encode packs rec's stored columns into a single byte buffer.
func (c *Codec) Encode(rec schema.Record) ([]byte, error) {
	size := 0
	for _, col := range c.columns {
		v, ok := rec[col.Name]
		if !ok {
			return nil, fmt.Errorf("record: missing value for column %q", col.Name)
		}
		size += col.Type.Codec().Size(v)
	}
	buf := make([]byte, size)
	pos := 0
	for _, col := range c.columns {
		pos += col.Type.Codec().Write(rec[col.Name], buf, pos)
	}
	return buf, nil
}

// Decode unpacks a byte buffer produced by Encode back into a record
// containing the stored columns only; computed columns are derived
// separately by the caller (the table handle).
func (c *Codec) Decode(buf []byte) (schema.Record, error) {
	rec := make(schema.Record, len(c.columns))
	pos := 0
	for _, col := range c.columns {
		if pos > len(buf) {
			return nil, fmt.Errorf("record: buffer truncated decoding column %q", col.Name)
		}
		v, n := col.Type.Codec().Read(buf, pos)
		rec[col.Name] = v
		pos += n
	}
	return rec, nil
}
