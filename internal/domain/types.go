package domain

import (
	"context"
	"errors"

	geojson "github.com/paulmach/go.geojson"
)

// MaxTokensPerClient bounds how many service-area tokens are resolved for a
// single client. Extra tokens are dropped, not an error.
const MaxTokensPerClient = 12

// Continental-US centroid, used when a client row has no coordinates.
const (
	DefaultLat = 39.5
	DefaultLng = -98.35
)

// ErrNoArea is returned when the full provider chain produced neither a
// polygon nor coordinates for a token. Callers treat it as "no area for this
// entry" and keep processing the client's remaining tokens.
var ErrNoArea = errors.New("no area found for token")

// Client is one row of the backing client store.
type Client struct {
	Name        string  `json:"name"`
	Industry    string  `json:"industry"`
	Location    string  `json:"location"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ServiceArea string  `json:"serviceArea"`
}

// ResolvedArea is a service-area token paired with its display label and
// boundary polygon. Feature is always a GeoJSON Feature wrapping a Polygon
// or MultiPolygon geometry.
type ResolvedArea struct {
	Token   string           `json:"entry"`
	Label   string           `json:"label"`
	Feature *geojson.Feature `json:"feature"`
}

// Place is the top search result from the primary geocoding provider.
// Coordinates are always set; the OSM reference may be absent.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
	OSMType     string
	OSMID       int64
}

// Boundary is an administrative boundary discovered by the secondary
// map-data provider, with any place name found on the boundary's tags.
type Boundary struct {
	Feature   *geojson.Feature
	PlaceName string
}

// PlaceSearcher is the primary geocoding provider: free-text (or postal
// code) search plus polygon lookup by OSM reference.
type PlaceSearcher interface {
	// SearchPlace returns the top result for a token, or nil when the
	// provider has no match.
	SearchPlace(ctx context.Context, token string) (*Place, error)

	// LookupPolygon returns the boundary geometry for a place's OSM
	// reference, or nil when the reference has no polygon.
	LookupPolygon(ctx context.Context, place *Place) (*geojson.Geometry, error)
}

// PostalBoundarySource queries open map data for postal-code boundaries.
type PostalBoundarySource interface {
	PostalBoundary(ctx context.Context, zip string) (*Boundary, error)
}

// ZCTASource queries the government boundary service for ZIP-code
// tabulation areas.
type ZCTASource interface {
	ZCTAPolygon(ctx context.Context, zip string) (*geojson.Feature, error)
}

// AreaResolver resolves one token to a labeled polygon. Implementations
// return ErrNoArea when the token cannot be resolved at all.
type AreaResolver interface {
	Resolve(ctx context.Context, token string) (ResolvedArea, error)
}
