package compose

import (
	"io"
	"log/slog"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

func testComposer() *Composer {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func squareArea(token string, minLon, minLat, maxLon, maxLat float64) domain.ResolvedArea {
	ring := [][]float64{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
	return domain.ResolvedArea{
		Token:   token,
		Label:   token,
		Feature: geojson.NewPolygonFeature([][][]float64{ring}),
	}
}

func TestCompose_EmptyInput(t *testing.T) {
	assert.Nil(t, testComposer().Compose(nil))
}

func TestCompose_SinglePolygonPassesThroughUnmodified(t *testing.T) {
	area := squareArea("49503", 0, 0, 1, 1)
	b := testComposer().Compose([]domain.ResolvedArea{area})
	require.NotNil(t, b)

	assert.Same(t, area.Feature, b.Union, "single polygon union is the input feature itself")
	require.Len(t, b.Outlines, 1)
	assert.Empty(t, b.Overlaps)
	require.Len(t, b.PinCenters, 1)

	label, err := b.Outlines[0].PropertyString("label")
	require.NoError(t, err)
	assert.Equal(t, "49503", label)
}

func TestCompose_DisjointPolygonsHaveNoOverlaps(t *testing.T) {
	areas := []domain.ResolvedArea{
		squareArea("a", 0, 0, 1, 1),
		squareArea("b", 5, 5, 6, 6),
	}
	b := testComposer().Compose(areas)
	require.NotNil(t, b)

	assert.Empty(t, b.Overlaps)
	assert.Len(t, b.Outlines, 2)
	assert.Len(t, b.PinCenters, 2)
	require.NotNil(t, b.Union)
	require.NotNil(t, b.Union.Geometry)
	assert.True(t, b.Union.Geometry.IsMultiPolygon(), "disjoint union is a multipolygon")
}

func TestCompose_IdenticalPolygonsUnionAndOverlap(t *testing.T) {
	areas := []domain.ResolvedArea{
		squareArea("a", 0, 0, 2, 2),
		squareArea("b", 0, 0, 2, 2),
	}
	b := testComposer().Compose(areas)
	require.NotNil(t, b)

	require.Len(t, b.Overlaps, 1, "identical polygons overlap exactly once")

	// Union of two identical squares covers the same bounding box as
	// either input (within simplification tolerance).
	require.NotNil(t, b.Union)
	minLon, minLat, maxLon, maxLat := featureBounds(t, b.Union)
	assert.InDelta(t, 0, minLon, simplifyTolerance)
	assert.InDelta(t, 0, minLat, simplifyTolerance)
	assert.InDelta(t, 2, maxLon, simplifyTolerance)
	assert.InDelta(t, 2, maxLat, simplifyTolerance)
}

func TestCompose_PartialOverlap(t *testing.T) {
	areas := []domain.ResolvedArea{
		squareArea("a", 0, 0, 2, 2),
		squareArea("b", 1, 1, 3, 3),
	}
	b := testComposer().Compose(areas)
	require.NotNil(t, b)
	require.Len(t, b.Overlaps, 1)

	minLon, minLat, maxLon, maxLat := featureBounds(t, b.Overlaps[0])
	assert.InDelta(t, 1, minLon, 1e-9)
	assert.InDelta(t, 1, minLat, 1e-9)
	assert.InDelta(t, 2, maxLon, 1e-9)
	assert.InDelta(t, 2, maxLat, 1e-9)
}

func TestCompose_TouchingPolygonsAreNotOverlapping(t *testing.T) {
	// Share an edge only; the intersection has no area.
	areas := []domain.ResolvedArea{
		squareArea("a", 0, 0, 1, 1),
		squareArea("b", 1, 0, 2, 1),
	}
	b := testComposer().Compose(areas)
	require.NotNil(t, b)
	assert.Empty(t, b.Overlaps)
}

func TestCompose_ThreePolygonsPairwiseOverlaps(t *testing.T) {
	// a∩b and b∩c overlap; a∩c do not.
	areas := []domain.ResolvedArea{
		squareArea("a", 0, 0, 2, 2),
		squareArea("b", 1, 0, 3, 2),
		squareArea("c", 2.5, 0, 4, 2),
	}
	b := testComposer().Compose(areas)
	require.NotNil(t, b)
	assert.Len(t, b.Overlaps, 2)
}

func TestCompose_BadGeometrySkippedFromUnion(t *testing.T) {
	areas := []domain.ResolvedArea{
		squareArea("good", 0, 0, 1, 1),
		{Token: "bad", Label: "bad", Feature: &geojson.Feature{Type: "Feature"}},
	}
	b := testComposer().Compose(areas)
	require.NotNil(t, b)

	assert.Len(t, b.Outlines, 2, "unusable entries still render their outline")
	assert.Len(t, b.PinCenters, 1)
	assert.Same(t, areas[0].Feature, b.Union)
}

func TestCompose_NilFeatureSkipped(t *testing.T) {
	areas := []domain.ResolvedArea{
		squareArea("good", 0, 0, 1, 1),
		{Token: "featureless", Label: "featureless", Feature: nil},
	}
	b := testComposer().Compose(areas)
	require.NotNil(t, b)

	assert.Len(t, b.Outlines, 1)
	assert.Len(t, b.PinCenters, 1)
	assert.Same(t, areas[0].Feature, b.Union)
}

func TestCompose_PinCentersAtCentroids(t *testing.T) {
	b := testComposer().Compose([]domain.ResolvedArea{squareArea("a", 0, 0, 2, 2)})
	require.NotNil(t, b)
	require.Len(t, b.PinCenters, 1)

	pt := b.PinCenters[0].Geometry
	require.True(t, pt.IsPoint())
	assert.InDelta(t, 1, pt.Point[0], 1e-9)
	assert.InDelta(t, 1, pt.Point[1], 1e-9)
}

func TestFallbackBundle_ContainsClientLocation(t *testing.T) {
	b := testComposer().FallbackBundle(-85.67, 42.96)
	require.NotNil(t, b)
	assert.True(t, b.Fallback)
	require.NotNil(t, b.Union)

	minLon, minLat, maxLon, maxLat := featureBounds(t, b.Union)
	assert.Less(t, minLon, -85.67)
	assert.Greater(t, maxLon, -85.67)
	assert.Less(t, minLat, 42.96)
	assert.Greater(t, maxLat, 42.96)

	label, err := b.Union.PropertyString("label")
	require.NoError(t, err)
	assert.Equal(t, FallbackLabel, label)

	ring := b.Union.Geometry.Polygon[0]
	assert.Equal(t, ring[0], ring[len(ring)-1], "fallback ring must be closed")
}

// featureBounds computes the bounding box across a feature's polygon or
// multipolygon coordinates.
func featureBounds(t *testing.T, f *geojson.Feature) (minLon, minLat, maxLon, maxLat float64) {
	t.Helper()
	require.NotNil(t, f.Geometry)

	var rings [][][]float64
	switch {
	case f.Geometry.IsPolygon():
		rings = f.Geometry.Polygon
	case f.Geometry.IsMultiPolygon():
		for _, poly := range f.Geometry.MultiPolygon {
			rings = append(rings, poly...)
		}
	default:
		t.Fatalf("unexpected geometry type %s", f.Geometry.Type)
	}

	first := true
	for _, ring := range rings {
		for _, pt := range ring {
			if first {
				minLon, maxLon, minLat, maxLat = pt[0], pt[0], pt[1], pt[1]
				first = false
				continue
			}
			minLon = min(minLon, pt[0])
			maxLon = max(maxLon, pt[0])
			minLat = min(minLat, pt[1])
			maxLat = max(maxLat, pt[1])
		}
	}
	return minLon, minLat, maxLon, maxLat
}
