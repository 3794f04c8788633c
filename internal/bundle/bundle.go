// Package bundle defines the precomputed service-area artifact produced by
// the export job and consumed at serve time. The artifact is a single
// versioned JSON document holding every client's roster fields and resolved
// polygons, so the interactive path can answer without any provider calls.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// Version identifies the artifact schema. Consumers ignore bundles with an
// unrecognized version.
const Version = "1.0"

// Polygon is one resolved service-area entry for a client.
type Polygon struct {
	Entry   string           `json:"entry"`
	Label   string           `json:"label"`
	Feature *geojson.Feature `json:"feature"`
}

// Client carries one client's roster fields plus resolved polygons.
type Client struct {
	Name        string    `json:"name"`
	Industry    string    `json:"industry"`
	Location    string    `json:"location"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	ServiceArea string    `json:"serviceArea"`
	Polygons    []Polygon `json:"polygons"`
}

// Bundle is the complete precomputed artifact.
type Bundle struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`
	ClientCount int       `json:"clientCount"`
	Clients     []Client  `json:"clients"`
}

// Lookup returns the named client's entry, or false when absent.
func (b *Bundle) Lookup(name string) (Client, bool) {
	if b == nil {
		return Client{}, false
	}
	for _, c := range b.Clients {
		if c.Name == name {
			return c, true
		}
	}
	return Client{}, false
}

// Load reads a bundle from disk. A missing file is not an error; it simply
// means nothing has been precomputed yet, and (nil, nil) is returned. A
// present but unreadable or version-mismatched file is an error so a broken
// deploy is noticed rather than silently served without precomputed data.
func Load(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parsing bundle: %w", err)
	}
	if b.Version != Version {
		return nil, fmt.Errorf("unsupported bundle version %q", b.Version)
	}
	return &b, nil
}

// Write atomically replaces the bundle file at path, creating parent
// directories as needed. Readers never observe a partial document.
func Write(path string, b *Bundle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}

	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bundle-*.json")
	if err != nil {
		return fmt.Errorf("creating temp bundle: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing bundle: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing bundle: %w", err)
	}
	return nil
}
