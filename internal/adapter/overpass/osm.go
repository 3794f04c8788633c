package overpass

import (
	geojson "github.com/paulmach/go.geojson"
)

// firstBoundaryFeature converts the first element that yields polygon
// geometry. Ways become a single-ring polygon; relations have their outer
// member segments stitched into rings, with inner members as holes when a
// single outer ring results.
func firstBoundaryFeature(elements []element) *geojson.Feature {
	for _, e := range elements {
		switch e.Type {
		case "way":
			if ring := closedRing(coordsToRing(e.Geometry)); ring != nil {
				return geojson.NewPolygonFeature([][][]float64{ring})
			}
		case "relation":
			if f := relationFeature(e); f != nil {
				return f
			}
		}
	}
	return nil
}

func relationFeature(e element) *geojson.Feature {
	var outers, inners [][][]float64
	for _, role := range []string{"outer", "inner"} {
		var segments [][][]float64
		for _, m := range e.Members {
			if m.Type != "way" || m.Role != role || len(m.Geometry) < 2 {
				continue
			}
			segments = append(segments, coordsToRing(m.Geometry))
		}
		rings := assembleRings(segments)
		if role == "outer" {
			outers = rings
		} else {
			inners = rings
		}
	}

	switch len(outers) {
	case 0:
		return nil
	case 1:
		// Holes only attach unambiguously when there is a single outer.
		poly := append([][][]float64{outers[0]}, inners...)
		return geojson.NewPolygonFeature(poly)
	default:
		multi := make([][][][]float64, len(outers))
		for i, ring := range outers {
			multi[i] = [][][]float64{ring}
		}
		return geojson.NewMultiPolygonFeature(multi...)
	}
}

// assembleRings stitches open way segments into closed rings by matching
// endpoints, reversing segments as needed. Unclosable leftovers are dropped.
func assembleRings(segments [][][]float64) [][][]float64 {
	var rings [][][]float64
	remaining := make([][][]float64, 0, len(segments))
	for _, s := range segments {
		if len(s) >= 2 {
			remaining = append(remaining, s)
		}
	}

	for len(remaining) > 0 {
		ring := remaining[0]
		remaining = remaining[1:]

		for !isClosed(ring) {
			extended := false
			for i, s := range remaining {
				joined, ok := join(ring, s)
				if !ok {
					continue
				}
				ring = joined
				remaining = append(remaining[:i], remaining[i+1:]...)
				extended = true
				break
			}
			if !extended {
				break
			}
		}

		if ring = closedRing(ring); ring != nil && isClosed(ring) {
			rings = append(rings, ring)
		}
	}
	return rings
}

// join appends a segment to the ring when an endpoint pair matches, in
// either orientation.
func join(ring, seg [][]float64) ([][]float64, bool) {
	tail := ring[len(ring)-1]
	switch {
	case samePoint(tail, seg[0]):
		return append(ring, seg[1:]...), true
	case samePoint(tail, seg[len(seg)-1]):
		return append(ring, reversed(seg)[1:]...), true
	case samePoint(ring[0], seg[len(seg)-1]):
		return append(seg[:len(seg)-1:len(seg)-1], ring...), true
	case samePoint(ring[0], seg[0]):
		rev := reversed(seg)
		return append(rev[:len(rev)-1:len(rev)-1], ring...), true
	}
	return ring, false
}

func coordsToRing(coords []coord) [][]float64 {
	ring := make([][]float64, len(coords))
	for i, c := range coords {
		ring[i] = []float64{c.Lon, c.Lat}
	}
	return ring
}

// closedRing closes a near-ring by repeating its first coordinate when the
// segment already loops back, and rejects rings too short to be polygons.
func closedRing(ring [][]float64) [][]float64 {
	if len(ring) < 3 {
		return nil
	}
	if !isClosed(ring) {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil
	}
	return ring
}

func isClosed(ring [][]float64) bool {
	return len(ring) >= 4 && samePoint(ring[0], ring[len(ring)-1])
}

func samePoint(a, b []float64) bool {
	return a[0] == b[0] && a[1] == b[1]
}

func reversed(seg [][]float64) [][]float64 {
	out := make([][]float64, len(seg))
	for i, c := range seg {
		out[len(seg)-1-i] = c
	}
	return out
}
