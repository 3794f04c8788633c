// Package nominatim implements the primary geocoding provider: place search
// plus polygon lookup by OSM reference.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

// Client queries the Nominatim search and lookup endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. The usage policy requires an
// identifying User-Agent on every request.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		logger:    logger,
	}
}

// SearchPlace returns the top search result for a token. ZIP tokens use a
// postal-code-scoped query; place tokens use a free-text query with a
// country qualifier. Returns nil when the provider has no match.
func (c *Client) SearchPlace(ctx context.Context, token string) (*domain.Place, error) {
	params := url.Values{
		"format": {"json"},
		"limit":  {"1"},
	}
	if domain.IsZip(token) {
		params.Set("countrycodes", "us")
		params.Set("postalcode", token)
	} else {
		params.Set("q", token+", United States")
	}

	var items []searchItem
	if err := c.getJSON(ctx, c.baseURL+"/search?"+params.Encode(), &items); err != nil {
		return nil, fmt.Errorf("search %q: %w", token, err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	item := items[0]
	lat, err := strconv.ParseFloat(item.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("search %q: bad latitude %q", token, item.Lat)
	}
	lon, err := strconv.ParseFloat(item.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("search %q: bad longitude %q", token, item.Lon)
	}

	return &domain.Place{
		Lat:         lat,
		Lon:         lon,
		DisplayName: item.DisplayName,
		OSMType:     item.OSMType,
		OSMID:       item.OSMID,
	}, nil
}

// LookupPolygon fetches boundary geometry for a place's OSM reference.
// Returns nil when the place has no reference or the lookup carries no
// polygon.
func (c *Client) LookupPolygon(ctx context.Context, place *domain.Place) (*geojson.Geometry, error) {
	if place == nil || place.OSMType == "" || place.OSMID == 0 {
		return nil, nil
	}

	params := url.Values{
		"osm_ids":         {osmRef(place.OSMType, place.OSMID)},
		"format":          {"json"},
		"polygon_geojson": {"1"},
	}

	var items []lookupItem
	if err := c.getJSON(ctx, c.baseURL+"/lookup?"+params.Encode(), &items); err != nil {
		return nil, fmt.Errorf("lookup %s%d: %w", place.OSMType, place.OSMID, err)
	}
	if len(items) == 0 || len(items[0].GeoJSON) == 0 {
		return nil, nil
	}

	geometry, err := geojson.UnmarshalGeometry(items[0].GeoJSON)
	if err != nil {
		return nil, fmt.Errorf("lookup %s%d: decode geometry: %w", place.OSMType, place.OSMID, err)
	}
	return geometry, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// osmRef formats an OSM type/id pair the way the lookup endpoint expects:
// R123 for relations, W123 for ways, N123 otherwise.
func osmRef(osmType string, osmID int64) string {
	prefix := "N"
	switch osmType {
	case "relation":
		prefix = "R"
	case "way":
		prefix = "W"
	}
	return fmt.Sprintf("%s%d", prefix, osmID)
}

// Nominatim API response types.

type searchItem struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	OSMType     string `json:"osm_type"`
	OSMID       int64  `json:"osm_id"`
}

type lookupItem struct {
	GeoJSON json.RawMessage `json:"geojson"`
}
