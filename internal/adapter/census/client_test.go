package census

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
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, "service-area-service-test/1.0", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestZCTAPolygon_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ZCTA5='49503'", r.URL.Query().Get("where"))
		assert.Equal(t, "geojson", r.URL.Query().Get("f"))
		assert.Equal(t, "4326", r.URL.Query().Get("outSR"))

		_, _ = w.Write([]byte(`{
			"type": "FeatureCollection",
			"features": [{
				"type": "Feature",
				"properties": {"ZCTA5": "49503"},
				"geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}
			}]
		}`))
	}))
	defer srv.Close()

	f, err := testClient(srv.URL).ZCTAPolygon(context.Background(), "49503")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, f.Geometry.IsPolygon())
}

func TestZCTAPolygon_SkipsNonPolygonFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"type": "FeatureCollection",
			"features": [
				{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [0,0]}},
				{"type": "Feature", "properties": {}, "geometry": {"type": "MultiPolygon", "coordinates": [[[[0,0],[1,0],[1,1],[0,0]]]]}}
			]
		}`))
	}))
	defer srv.Close()

	f, err := testClient(srv.URL).ZCTAPolygon(context.Background(), "49503")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, f.Geometry.IsMultiPolygon())
}

func TestZCTAPolygon_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type": "FeatureCollection", "features": []}`))
	}))
	defer srv.Close()

	f, err := testClient(srv.URL).ZCTAPolygon(context.Background(), "00000")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestZCTAPolygon_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ZCTAPolygon(context.Background(), "49503")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
