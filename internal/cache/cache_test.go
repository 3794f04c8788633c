package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(label string) *Entry {
	return &Entry{
		Label:   label,
		Feature: geojson.NewPolygonFeature([][][]float64{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}),
	}
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "49503")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "49503", testEntry("Grand Rapids MI 49503")))

	e, ok, err := m.Get(ctx, "49503")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Grand Rapids MI 49503", e.Label)
}

func TestMemory_NegativeEntry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "00000", nil))

	e, ok, err := m.Get(ctx, "00000")
	require.NoError(t, err)
	assert.True(t, ok, "negative result is still a hit")
	assert.Nil(t, e)
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "49503", testEntry("x")))
	require.NoError(t, m.Clear(ctx))

	_, ok, err := m.Get(ctx, "49503")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "service-area-cache.json")

	f1 := NewFile(path)
	require.NoError(t, f1.Set(ctx, "49503", testEntry("Grand Rapids MI 49503")))

	f2 := NewFile(path)
	e, ok, err := f2.Get(ctx, "49503")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Grand Rapids MI 49503", e.Label)
	require.NotNil(t, e.Feature)
	assert.True(t, e.Feature.Geometry.IsPolygon())
}

func TestFile_MissingFileIsEmptyCache(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nope.json"))
	_, ok, err := f.Get(context.Background(), "49503")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_CorruptBlobIsEmptyCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f := NewFile(path)
	_, ok, err := f.Get(ctx, "49503")
	require.NoError(t, err, "corruption must never fail the caller")
	assert.False(t, ok)

	// A Set after corruption starts a fresh blob.
	require.NoError(t, f.Set(ctx, "49503", testEntry("x")))
	_, ok, err = f.Get(ctx, "49503")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFile_IgnoresNegativeEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	f := NewFile(path)
	require.NoError(t, f.Set(ctx, "00000", nil))

	_, ok, err := f.Get(ctx, "00000")
	require.NoError(t, err)
	assert.False(t, ok, "durable stores persist successes only")
	assert.NoFileExists(t, path)
}

func TestFile_Clear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	f := NewFile(path)
	require.NoError(t, f.Set(ctx, "49503", testEntry("x")))
	require.NoError(t, f.Clear(ctx))
	assert.NoFileExists(t, path)

	// Clearing an already-empty cache is fine.
	require.NoError(t, f.Clear(ctx))
}
