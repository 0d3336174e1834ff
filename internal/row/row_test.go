package row

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pauldb/internal/schema"
)

func TestRowClone(t *testing.T) {
	r := Row{"cats": schema.Record{"name": "Felix"}}
	c := r.Clone()
	c["humans"] = schema.Record{"name": "Bob"}

	assert.Len(t, r, 1)
	assert.Len(t, c, 2)
}

func TestRowMergeOtherWinsOnCollision(t *testing.T) {
	a := Row{"cats": schema.Record{"name": "Felix"}}
	b := Row{"cats": schema.Record{"name": "Tom"}, "humans": schema.Record{"name": "Bob"}}

	merged := a.Merge(b)

	assert.Equal(t, schema.Record{"name": "Tom"}, merged["cats"])
	assert.Equal(t, schema.Record{"name": "Bob"}, merged["humans"])
	assert.Len(t, a, 1, "Merge must not mutate its receiver")
}
