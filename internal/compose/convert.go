package compose

import (
	"encoding/json"
	"errors"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/peterstace/simplefeatures/geom"
)

// toGeom converts a GeoJSON feature's geometry into a simplefeatures
// geometry for set operations.
func toGeom(f *geojson.Feature) (geom.Geometry, error) {
	if f == nil || f.Geometry == nil {
		return geom.Geometry{}, errors.New("feature has no geometry")
	}
	raw, err := json.Marshal(f.Geometry)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("encode geometry: %w", err)
	}
	g, err := geom.UnmarshalGeoJSON(raw)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("parse geometry: %w", err)
	}
	return g, nil
}

// toFeature converts a simplefeatures geometry back into a GeoJSON feature.
func toFeature(g geom.Geometry) (*geojson.Feature, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	geometry, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return geojson.NewFeature(geometry), nil
}
