// Package overpass implements the secondary boundary provider: an open
// map-data query service searched for administrative boundaries tagged with
// a postal code, converted from the raw element graph to GeoJSON.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

// Client queries an Overpass interpreter endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates an Overpass client. baseURL points at the interpreter
// endpoint itself (".../api/interpreter").
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

// PostalBoundary queries for boundary relations or ways tagged with the
// given postal code and returns the first boundary converted to GeoJSON,
// along with any place name found on the element tags. Returns nil when the
// query matches nothing usable.
func (c *Client) PostalBoundary(ctx context.Context, zip string) (*domain.Boundary, error) {
	query := fmt.Sprintf(
		`[out:json][timeout:10];(relation["postal_code"=%q]["boundary"="postal_code"];way["postal_code"=%q]["boundary"="postal_code"];);out geom;`,
		zip, zip,
	)
	fullURL := c.baseURL + "?data=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Elements) == 0 {
		return nil, nil
	}

	feature := firstBoundaryFeature(result.Elements)
	if feature == nil {
		return nil, nil
	}

	return &domain.Boundary{
		Feature:   feature,
		PlaceName: placeName(result.Elements[0]),
	}, nil
}

// placeName pulls a display name off an element's tags, preferring the name
// tag over addr:city.
func placeName(e element) string {
	if e.Tags.Name != "" {
		return e.Tags.Name
	}
	return e.Tags.AddrCity
}

// Overpass API response types. Ways carry inline geometry because the query
// uses "out geom"; relation members do the same.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type     string   `json:"type"`
	ID       int64    `json:"id"`
	Tags     tags     `json:"tags"`
	Geometry []coord  `json:"geometry"`
	Members  []member `json:"members"`
}

type member struct {
	Type     string  `json:"type"`
	Role     string  `json:"role"`
	Geometry []coord `json:"geometry"`
}

type coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type tags struct {
	Name     string `json:"name"`
	AddrCity string `json:"addr:city"`
}
