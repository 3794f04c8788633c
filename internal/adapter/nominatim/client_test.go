package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

const testUserAgent = "service-area-service-test/1.0"

func testClient(baseURL string) *Client {
	return NewClient(baseURL, testUserAgent, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSearchPlace_ZipUsesPostalCodeQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "49503", r.URL.Query().Get("postalcode"))
		assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		assert.Empty(t, r.URL.Query().Get("q"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`[{"lat":"42.9634","lon":"-85.6681","display_name":"49503, Grand Rapids, MI, United States","osm_type":"relation","osm_id":134487}]`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL).SearchPlace(context.Background(), "49503")
	require.NoError(t, err)
	require.NotNil(t, place)
	assert.Equal(t, 42.9634, place.Lat)
	assert.Equal(t, -85.6681, place.Lon)
	assert.Equal(t, "relation", place.OSMType)
	assert.Equal(t, int64(134487), place.OSMID)
	assert.Contains(t, place.DisplayName, "Grand Rapids")
}

func TestSearchPlace_PlaceUsesFreeTextQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Grand Rapids, MI, United States", r.URL.Query().Get("q"))
		assert.Empty(t, r.URL.Query().Get("postalcode"))
		_, _ = w.Write([]byte(`[{"lat":"42.9634","lon":"-85.6681","display_name":"Grand Rapids, MI"}]`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL).SearchPlace(context.Background(), "Grand Rapids, MI")
	require.NoError(t, err)
	require.NotNil(t, place)
	assert.Empty(t, place.OSMType)
	assert.Zero(t, place.OSMID)
}

func TestSearchPlace_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL).SearchPlace(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, place)
}

func TestSearchPlace_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).SearchPlace(context.Background(), "49503")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestLookupPolygon_ReturnsGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lookup", r.URL.Path)
		assert.Equal(t, "R134487", r.URL.Query().Get("osm_ids"))
		assert.Equal(t, "1", r.URL.Query().Get("polygon_geojson"))
		_, _ = w.Write([]byte(`[{"geojson":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]`))
	}))
	defer srv.Close()

	g, err := testClient(srv.URL).LookupPolygon(context.Background(), &domain.Place{OSMType: "relation", OSMID: 134487})
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.True(t, g.IsPolygon())
}

func TestLookupPolygon_NoGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{}]`))
	}))
	defer srv.Close()

	g, err := testClient(srv.URL).LookupPolygon(context.Background(), &domain.Place{OSMType: "way", OSMID: 9})
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestLookupPolygon_NoReference(t *testing.T) {
	c := testClient("http://unused.invalid")

	g, err := c.LookupPolygon(context.Background(), &domain.Place{})
	require.NoError(t, err)
	assert.Nil(t, g)

	g, err = c.LookupPolygon(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestOSMRef(t *testing.T) {
	assert.Equal(t, "R12", osmRef("relation", 12))
	assert.Equal(t, "W12", osmRef("way", 12))
	assert.Equal(t, "N12", osmRef("node", 12))
}
