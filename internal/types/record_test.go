package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRecord_PreservesOrder(t *testing.T) {
	var rec RawRecord
	err := json.Unmarshal([]byte(`{"sku":"A-1","name":"Chair","price":349.99,"active":true,"notes":null,"dims":{"w":1}}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "name", "price", "active", "notes", "dims"}, rec.Keys())
	assert.Equal(t, "A-1", rec.Value("sku"))
	assert.Equal(t, "349.99", rec.Value("price"))
	assert.Equal(t, "true", rec.Value("active"))
	assert.Equal(t, "", rec.Value("notes"))
	assert.Equal(t, `{"w":1}`, rec.Value("dims"))
	assert.Equal(t, "A-1", rec.FirstValue())
}

func TestRawRecord_MarshalKeepsOrder(t *testing.T) {
	rec := NewRawRecord("z", "1", "a", "2", "m", `say "hi"`)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":"2","m":"say \"hi\""}`, string(data))
}

func TestRawRecord_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	rec := NewRawRecord("a", "1", "b", "2", "a", "3")

	assert.Equal(t, []string{"a", "b"}, rec.Keys())
	assert.Equal(t, "3", rec.Value("a"))
}

func TestRawRecord_UnmarshalRejectsNonObject(t *testing.T) {
	var rec RawRecord
	err := json.Unmarshal([]byte(`[1,2]`), &rec)
	assert.Error(t, err)
}

func TestRawRecord_CloneIsIndependent(t *testing.T) {
	rec := NewRawRecord("a", "1")
	clone := rec.Clone()
	clone.Set("a", "changed")

	assert.Equal(t, "1", rec.Value("a"))
	assert.Equal(t, "changed", clone.Value("a"))
}
