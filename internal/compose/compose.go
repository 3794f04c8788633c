// Package compose turns a client's resolved service areas into a render
// bundle: one solid union polygon, dashed per-entry outlines with hover
// labels, dashed overlap regions where entries intersect, and a pin marker
// at each entry's centroid.
package compose

import (
	"log/slog"

	geojson "github.com/paulmach/go.geojson"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

// simplifyTolerance bounds rendered union complexity, roughly 50 m in
// degrees of latitude. A quality/performance tradeoff, not correctness:
// simplification failures fall back to the unsimplified union.
const simplifyTolerance = 0.00045

// fallbackRadiusKm and fallbackSteps shape the whole-client fallback circle
// rendered when none of a client's tokens resolved.
const (
	fallbackRadiusKm = 5
	fallbackSteps    = 64
)

// FallbackLabel captions the whole-client fallback area.
const FallbackLabel = "Location area"

// Bundle is the renderable output for one client's service area.
type Bundle struct {
	// Union is the merged coverage polygon, simplified for rendering.
	Union *geojson.Feature `json:"union"`

	// Outlines are the individual resolved polygons, each carrying its
	// display label as a "label" property for hover captions.
	Outlines []*geojson.Feature `json:"outlines"`

	// Overlaps are the pairwise intersections between entries, rendered
	// dashed to signal coverage overlap.
	Overlaps []*geojson.Feature `json:"overlaps"`

	// PinCenters are point features at each entry's centroid, one marker
	// icon per entry.
	PinCenters []*geojson.Feature `json:"pinCenters"`

	// Fallback is true when the bundle is the generic client-location
	// area rather than resolved boundaries.
	Fallback bool `json:"fallback,omitempty"`
}

// Composer builds render bundles from resolved areas.
type Composer struct {
	logger *slog.Logger
}

// New creates a Composer.
func New(logger *slog.Logger) *Composer {
	return &Composer{logger: logger}
}

// Compose builds the render bundle for one client's resolved areas. Every
// step degrades rather than fails: unusable geometries are skipped from the
// union, overlap failures drop that pair, and a nil bundle is returned only
// for an empty input (callers then use FallbackBundle).
func (c *Composer) Compose(areas []domain.ResolvedArea) *Bundle {
	if len(areas) == 0 {
		return nil
	}

	b := &Bundle{
		Outlines:   make([]*geojson.Feature, 0, len(areas)),
		Overlaps:   []*geojson.Feature{},
		PinCenters: make([]*geojson.Feature, 0, len(areas)),
	}

	// Parallel slice of parsed geometries; entries that fail to parse keep
	// rendering via their raw outline but drop out of union/overlap math.
	geoms := make([]*geom.Geometry, len(areas))
	for i, area := range areas {
		if area.Feature == nil {
			c.logger.Warn("resolved area has no feature", "token", area.Token)
			continue
		}
		outline := geojson.NewFeature(area.Feature.Geometry)
		outline.SetProperty("label", area.Label)
		b.Outlines = append(b.Outlines, outline)

		g, err := toGeom(area.Feature)
		if err != nil {
			c.logger.Warn("unusable geometry, excluded from union", "token", area.Token, "error", err)
			continue
		}
		geoms[i] = &g

		if pin := centroidFeature(g); pin != nil {
			pin.SetProperty("label", area.Label)
			b.PinCenters = append(b.PinCenters, pin)
		}
	}

	b.Union = c.union(areas, geoms)
	b.Overlaps = c.overlaps(geoms)
	return b
}

// FallbackBundle renders a generic 5 km circle at the client's own
// location, used when zero polygons resolved so the map always has
// something to show on interaction.
func (c *Composer) FallbackBundle(lon, lat float64) *Bundle {
	f := domain.CircleFeature(lon, lat, fallbackRadiusKm, fallbackSteps)
	f.SetProperty("label", FallbackLabel)

	pin := geojson.NewPointFeature([]float64{lon, lat})
	pin.SetProperty("label", FallbackLabel)

	return &Bundle{
		Union:      f,
		Outlines:   []*geojson.Feature{f},
		Overlaps:   []*geojson.Feature{},
		PinCenters: []*geojson.Feature{pin},
		Fallback:   true,
	}
}

// union left-folds the parsed geometries in resolution order, skipping
// pairs that fail, then simplifies the result. A single resolved polygon
// passes through unmodified.
func (c *Composer) union(areas []domain.ResolvedArea, geoms []*geom.Geometry) *geojson.Feature {
	var acc *geom.Geometry
	accIdx := -1
	merged := false
	for i, g := range geoms {
		if g == nil {
			continue
		}
		if acc == nil {
			acc = g
			accIdx = i
			continue
		}
		u, err := geom.Union(*acc, *g)
		if err != nil {
			c.logger.Warn("union failed, skipping polygon", "token", areas[i].Token, "error", err)
			continue
		}
		acc = &u
		merged = true
	}
	if acc == nil {
		return nil
	}

	if !merged {
		// Single polygon: return the original feature untouched.
		return areas[accIdx].Feature
	}

	out := *acc
	if simplified, err := out.Simplify(simplifyTolerance); err == nil {
		out = simplified
	} else {
		c.logger.Warn("simplify failed, rendering full union", "error", err)
	}

	f, err := toFeature(out)
	if err != nil {
		c.logger.Warn("union feature encode failed", "error", err)
		return areas[accIdx].Feature
	}
	return f
}

// overlaps computes the pairwise intersections (i < j), keeping only
// non-empty results and silently skipping failed pairs.
func (c *Composer) overlaps(geoms []*geom.Geometry) []*geojson.Feature {
	out := []*geojson.Feature{}
	for i := 0; i < len(geoms); i++ {
		if geoms[i] == nil {
			continue
		}
		for j := i + 1; j < len(geoms); j++ {
			if geoms[j] == nil {
				continue
			}
			inter, err := geom.Intersection(*geoms[i], *geoms[j])
			if err != nil || inter.IsEmpty() {
				continue
			}
			if !hasArea(inter) {
				// Polygons that merely touch intersect in a point or
				// line; that is not a coverage overlap.
				continue
			}
			f, err := toFeature(inter)
			if err != nil {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}

// centroidFeature places a pin at a geometry's centroid.
func centroidFeature(g geom.Geometry) *geojson.Feature {
	xy, ok := g.Centroid().XY()
	if !ok {
		return nil
	}
	return geojson.NewPointFeature([]float64{xy.X, xy.Y})
}

// hasArea reports whether a geometry contains any two-dimensional part.
func hasArea(g geom.Geometry) bool {
	switch g.Type() {
	case geom.TypePolygon, geom.TypeMultiPolygon:
		return true
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		for i := 0; i < gc.NumGeometries(); i++ {
			if hasArea(gc.GeometryN(i)) {
				return true
			}
		}
	}
	return false
}
