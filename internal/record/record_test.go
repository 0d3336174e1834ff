package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/schema"
	"pauldb/internal/types"
)

func testTable() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: types.UInt32, Unique: true},
			{Name: "name", Type: types.String},
			{Name: "age", Type: types.UInt16.Nullable()},
		},
		KeyColumn: "id",
	}
}

func TestCodecRoundTrip(t *testing.T) {
	c, err := NewCodec(testTable())
	require.NoError(t, err)

	rec := schema.Record{"id": uint32(1), "name": "Mr. Blue", "age": types.Null{}}
	buf, err := c.Encode(rec)
	require.NoError(t, err)

	got, err := c.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestCodecSkipsComputedColumns(t *testing.T) {
	tbl := &schema.Table{
		Name: "weird",
		Columns: []schema.Column{
			{Name: "computed_thing", Type: types.String, Kind: schema.Computed, Compute: func(schema.Record) (any, error) { return "x", nil }},
		},
	}
	// Computed columns are excluded from StoredColumns, so this should
	// succeed with zero stored columns.
	c, err := NewCodec(tbl)
	require.NoError(t, err)
	buf, err := c.Encode(schema.Record{})
	require.NoError(t, err)
	assert.Empty(t, buf)
}

func TestCodecMissingValue(t *testing.T) {
	c, err := NewCodec(testTable())
	require.NoError(t, err)
	_, err = c.Encode(schema.Record{"id": uint32(1)})
	assert.Error(t, err)
}
