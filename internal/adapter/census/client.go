// Package census implements the authoritative boundary provider: the
// TIGERweb query service for ZIP-code tabulation area (ZCTA) polygons.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

// Client queries a TIGERweb MapServer layer for ZCTA polygons.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a TIGERweb client. baseURL points at the ZCTA layer's
// query endpoint (".../MapServer/<layer>/query").
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

// ZCTAPolygon returns the tabulation-area polygon matching the ZIP exactly,
// or nil when the service has no matching feature.
func (c *Client) ZCTAPolygon(ctx context.Context, zip string) (*geojson.Feature, error) {
	params := url.Values{
		"where":     {fmt.Sprintf("ZCTA5='%s'", zip)},
		"outFields": {"*"},
		"outSR":     {"4326"},
		"f":         {"geojson"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("census request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("census API error: status %d: %s", resp.StatusCode, body)
	}

	var fc geojson.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if f.Geometry.IsPolygon() || f.Geometry.IsMultiPolygon() {
			return f, nil
		}
	}
	return nil, nil
}

var _ domain.ZCTASource = (*Client)(nil)
