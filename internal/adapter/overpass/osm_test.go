package overpass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleRings_ReversedSegment(t *testing.T) {
	// Second segment runs the "wrong" direction and must be reversed.
	segments := [][][]float64{
		{{0, 0}, {1, 0}, {1, 1}},
		{{0, 0}, {0, 1}, {1, 1}},
	}
	rings := assembleRings(segments)
	require.Len(t, rings, 1)
	assert.Equal(t, rings[0][0], rings[0][len(rings[0])-1])
	assert.Len(t, rings[0], 5)
}

func TestAssembleRings_DropsUnclosable(t *testing.T) {
	segments := [][][]float64{
		{{0, 0}, {1, 0}},
		{{5, 5}, {6, 6}},
	}
	assert.Empty(t, assembleRings(segments))
}

func TestAssembleRings_AlreadyClosedWay(t *testing.T) {
	segments := [][][]float64{
		{{0, 0}, {1, 0}, {1, 1}, {0, 0}},
	}
	rings := assembleRings(segments)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 4)
}

func TestRelationFeature_MultipleOutersBecomeMultiPolygon(t *testing.T) {
	e := element{
		Type: "relation",
		Members: []member{
			{Type: "way", Role: "outer", Geometry: []coord{{0, 0}, {0, 1}, {1, 1}, {0, 0}}},
			{Type: "way", Role: "outer", Geometry: []coord{{5, 5}, {5, 6}, {6, 6}, {5, 5}}},
		},
	}
	f := relationFeature(e)
	require.NotNil(t, f)
	assert.True(t, f.Geometry.IsMultiPolygon())
	assert.Len(t, f.Geometry.MultiPolygon, 2)
}

func TestRelationFeature_InnerBecomesHole(t *testing.T) {
	e := element{
		Type: "relation",
		Members: []member{
			{Type: "way", Role: "outer", Geometry: []coord{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}},
			{Type: "way", Role: "inner", Geometry: []coord{{4, 4}, {4, 6}, {6, 6}, {4, 4}}},
		},
	}
	f := relationFeature(e)
	require.NotNil(t, f)
	require.True(t, f.Geometry.IsPolygon())
	assert.Len(t, f.Geometry.Polygon, 2, "outer ring plus one hole")
}
