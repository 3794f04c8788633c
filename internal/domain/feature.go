package domain

import (
	"math"

	geojson "github.com/paulmach/go.geojson"
)

// kmPerDegreeLat is the equirectangular approximation used for synthetic
// geometry: 1° of latitude ≈ 111 km.
const kmPerDegreeLat = 111.0

// SquareFeature synthesizes a closed square polygon centered on a point,
// with kmRadius as the half-width. Longitude extent is scaled by cos(lat),
// guarded so a degenerate cosine near the poles cannot divide by zero.
func SquareFeature(lon, lat, kmRadius float64) *geojson.Feature {
	dLat := kmRadius / kmPerDegreeLat
	cos := math.Cos(lat * math.Pi / 180)
	if cos == 0 {
		cos = 1
	}
	dLon := kmRadius / (kmPerDegreeLat * cos)

	ring := [][]float64{
		{lon - dLon, lat - dLat},
		{lon + dLon, lat - dLat},
		{lon + dLon, lat + dLat},
		{lon - dLon, lat + dLat},
		{lon - dLon, lat - dLat},
	}
	return geojson.NewPolygonFeature([][][]float64{ring})
}

// CircleFeature synthesizes a closed polygon approximating a circle of
// kmRadius around a point, with the given number of steps (64 matches the
// rendering default). Used as the whole-client fallback area when none of a
// client's tokens resolved.
func CircleFeature(lon, lat, kmRadius float64, steps int) *geojson.Feature {
	if steps < 3 {
		steps = 3
	}
	dLat := kmRadius / kmPerDegreeLat
	cos := math.Cos(lat * math.Pi / 180)
	if cos == 0 {
		cos = 1
	}
	dLon := kmRadius / (kmPerDegreeLat * cos)

	ring := make([][]float64, 0, steps+1)
	for i := 0; i < steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		ring = append(ring, []float64{
			lon + dLon*math.Cos(angle),
			lat + dLat*math.Sin(angle),
		})
	}
	ring = append(ring, ring[0])
	return geojson.NewPolygonFeature([][][]float64{ring})
}

// EnsureFeature wraps a bare Polygon or MultiPolygon geometry into a
// Feature. Features pass through; anything else returns nil.
func EnsureFeature(g *geojson.Geometry) *geojson.Feature {
	if g == nil {
		return nil
	}
	switch g.Type {
	case geojson.GeometryPolygon, geojson.GeometryMultiPolygon:
		return geojson.NewFeature(g)
	}
	return nil
}
