package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

// Header patterns for locating roster columns, matched case-insensitively
// against the first row. The sheet is maintained by hand, so the names
// drift; anything close enough counts.
var (
	nameHeaderRe     = regexp.MustCompile(`name|client`)
	industryHeaderRe = regexp.MustCompile(`industry`)
	locationHeaderRe = regexp.MustCompile(`location`)
	areaHeaderRe     = regexp.MustCompile(`service.area|area`)
	latHeaderRe      = regexp.MustCompile(`lat`)
	lngHeaderRe      = regexp.MustCompile(`lng|lon`)
)

const unknownValue = "Unknown"

// CSVStore fetches the published roster CSV over HTTP and caches the parsed
// rows until Reload is called.
type CSVStore struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.RWMutex
	clients []domain.Client
	loaded  bool
}

// NewCSVStore creates a store reading from the published CSV at url.
func NewCSVStore(url string, timeout time.Duration, logger *slog.Logger) *CSVStore {
	return &CSVStore{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Clients returns the roster, fetching it on first use.
func (s *CSVStore) Clients(ctx context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.clients, nil
	}
	s.mu.RUnlock()

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients, nil
}

// Client returns the named client from the roster.
func (s *CSVStore) Client(ctx context.Context, name string) (domain.Client, bool, error) {
	clients, err := s.Clients(ctx)
	if err != nil {
		return domain.Client{}, false, err
	}
	for _, c := range clients {
		if c.Name == name {
			return c, true, nil
		}
	}
	return domain.Client{}, false, nil
}

// Reload refetches and reparses the roster, replacing the cached rows. The
// previous snapshot is kept on failure.
func (s *CSVStore) Reload(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("creating roster request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching roster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching roster: unexpected status %d", resp.StatusCode)
	}

	clients, err := parseRoster(resp.Body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.clients = clients
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("roster loaded", "clients", len(clients))
	return nil
}

// columns maps roster fields to their header positions, -1 when absent.
type columns struct {
	name, industry, location, area, lat, lng int
}

func findColumns(header []string) columns {
	cols := columns{name: -1, industry: -1, location: -1, area: -1, lat: -1, lng: -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.name == -1 && nameHeaderRe.MatchString(h):
			cols.name = i
		case cols.industry == -1 && industryHeaderRe.MatchString(h):
			cols.industry = i
		case cols.area == -1 && areaHeaderRe.MatchString(h):
			cols.area = i
		case cols.location == -1 && locationHeaderRe.MatchString(h):
			cols.location = i
		case cols.lat == -1 && latHeaderRe.MatchString(h):
			cols.lat = i
		case cols.lng == -1 && lngHeaderRe.MatchString(h):
			cols.lng = i
		}
	}
	return cols
}

func parseRoster(r io.Reader) ([]domain.Client, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing roster csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := findColumns(records[0])
	if cols.name == -1 {
		return nil, fmt.Errorf("parsing roster csv: no name column in header %v", records[0])
	}

	clients := make([]domain.Client, 0, len(records)-1)
	for _, row := range records[1:] {
		name := strings.TrimSpace(field(row, cols.name))
		if name == "" {
			continue
		}
		clients = append(clients, domain.Client{
			Name:        name,
			Industry:    fieldOr(row, cols.industry, unknownValue),
			Location:    fieldOr(row, cols.location, unknownValue),
			Lat:         floatField(row, cols.lat, domain.DefaultLat),
			Lng:         floatField(row, cols.lng, domain.DefaultLng),
			ServiceArea: strings.TrimSpace(field(row, cols.area)),
		})
	}
	return clients, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func fieldOr(row []string, idx int, fallback string) string {
	if v := strings.TrimSpace(field(row, idx)); v != "" {
		return v
	}
	return fallback
}

func floatField(row []string, idx int, fallback float64) float64 {
	v := strings.TrimSpace(field(row, idx))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

var _ ClientStore = (*CSVStore)(nil)
