package catalog

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pauldb/internal/schema"
	"pauldb/internal/storage"
	"pauldb/internal/types"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func usersSchema() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: types.UInt32, Unique: true, Indexed: true},
			{Name: "name", Type: types.String},
		},
	}
}

func TestBootstrapThenReopen(t *testing.T) {
	medium := storage.NewMemoryMedium()
	pager := storage.NewPager(medium)

	cat, err := Open(pager, testLogger())
	require.NoError(t, err)

	meta, err := cat.Resolve("default", "users", usersSchema(), true)
	require.NoError(t, err)
	assert.Equal(t, "users", meta.Name)
	assert.NotZero(t, meta.HeapRoot)

	reopened, err := Open(storage.NewPager(medium), testLogger())
	require.NoError(t, err)

	again, err := reopened.Resolve("default", "users", usersSchema(), false)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, again.ID)
	assert.Equal(t, meta.HeapRoot, again.HeapRoot)
	require.NotNil(t, again.Schema)
	assert.Len(t, again.Schema.Columns, 2)
}

func TestResolveMissingWithoutCreateFails(t *testing.T) {
	cat, err := Open(storage.NewPager(storage.NewMemoryMedium()), testLogger())
	require.NoError(t, err)

	_, err = cat.Resolve("default", "ghost", nil, false)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestIndexRootLazyMaterialization(t *testing.T) {
	cat, err := Open(storage.NewPager(storage.NewMemoryMedium()), testLogger())
	require.NoError(t, err)

	meta, err := cat.Resolve("default", "users", usersSchema(), true)
	require.NoError(t, err)

	_, ok := cat.IndexRoot(meta.ID, "id")
	assert.False(t, ok)

	require.NoError(t, cat.RecordIndexRoot(meta.ID, "id", 42))
	root, ok := cat.IndexRoot(meta.ID, "id")
	require.True(t, ok)
	assert.EqualValues(t, 42, root)
}

func TestMigrateCreatesFreshTableAndDropsOld(t *testing.T) {
	cat, err := Open(storage.NewPager(storage.NewMemoryMedium()), testLogger())
	require.NoError(t, err)

	oldMeta, err := cat.Resolve("default", "users", usersSchema(), true)
	require.NoError(t, err)

	oldCodec := newCodec(usersSchema())
	oldHeap := cat.Heap(oldMeta)
	_, err = oldHeap.Insert(mustEncode(t, oldCodec, schema.Record{"id": uint32(1), "name": "ada"}))
	require.NoError(t, err)
	require.NoError(t, oldHeap.Commit())

	newSchema := &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: types.UInt32, Unique: true, Indexed: true},
			{Name: "name", Type: types.String},
			{Name: "active", Type: types.Bool},
		},
		Version: 1,
	}
	var inserted []schema.Record
	newMeta, err := cat.Migrate(oldMeta, Migration{
		Name:      "add-active",
		NewSchema: newSchema,
		Transform: func(rec schema.Record) (schema.Record, error) {
			rec["active"] = true
			return rec, nil
		},
	}, oldCodec, func(rec schema.Record) error {
		inserted = append(inserted, rec)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, oldMeta.Dropped)
	assert.NotEqual(t, oldMeta.ID, newMeta.ID)
	require.Len(t, inserted, 1)
	assert.Equal(t, true, inserted[0]["active"])

	_, err = cat.Resolve("default", "users", nil, false)
	require.NoError(t, err)
}

func mustEncode(t *testing.T, c interface {
	Encode(schema.Record) ([]byte, error)
}, rec schema.Record) []byte {
	t.Helper()
	buf, err := c.Encode(rec)
	require.NoError(t, err)
	return buf
}
