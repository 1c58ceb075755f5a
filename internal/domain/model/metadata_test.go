package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataAsMap(t *testing.T) {
	t.Parallel()

	t.Run("object", func(t *testing.T) {
		t.Parallel()
		m, err := Metadata(`{"a":1,"b":"two"}`).AsMap()
		require.NoError(t, err)
		assert.Equal(t, float64(1), m["a"])
		assert.Equal(t, "two", m["b"])
	})

	t.Run("string-encoded object", func(t *testing.T) {
		t.Parallel()
		m, err := Metadata(`"{\"a\":1}"`).AsMap()
		require.NoError(t, err)
		assert.Equal(t, float64(1), m["a"])
	})

	t.Run("empty and null decode to empty map", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"", "null"} {
			m, err := Metadata(raw).AsMap()
			require.NoError(t, err)
			assert.Empty(t, m)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := Metadata(`[1,2]`).AsMap()
		require.Error(t, err)
	})
}

func TestMetadataMerge(t *testing.T) {
	t.Parallel()

	base := Metadata(`{"keep":"x","clobber":"old"}`)
	merged := base.Merge(Metadata(`{"clobber":"new","added":true}`))

	m, err := merged.AsMap()
	require.NoError(t, err)
	assert.Equal(t, "x", m["keep"])
	assert.Equal(t, "new", m["clobber"])
	assert.Equal(t, true, m["added"])
}

func TestMetadataMergeMalformedBase(t *testing.T) {
	t.Parallel()

	merged := Metadata(`not-json`).Merge(Metadata(`{"a":1}`))
	m, err := merged.AsMap()
	require.NoError(t, err)
	assert.Equal(t, float64(1), m["a"])
}

func TestMetadataStringValue(t *testing.T) {
	t.Parallel()

	m := Metadata(`{"folder_path":"art/cats","count":3,"empty":""}`)

	v, ok := m.StringValue("folder_path")
	assert.True(t, ok)
	assert.Equal(t, "art/cats", v)

	_, ok = m.StringValue("count")
	assert.False(t, ok)

	_, ok = m.StringValue("empty")
	assert.False(t, ok)

	_, ok = m.StringValue("missing")
	assert.False(t, ok)
}
