// Package cache persists resolved token→polygon pairs so repeat lookups
// skip the provider chain. Two lifecycles exist: a process-local store
// scoped to one export run, and durable stores (file blob, redis) that
// survive restarts and never expire. Staleness is managed only by Clear or
// by the token itself changing; identical tokens always hit.
package cache

import (
	"context"

	geojson "github.com/paulmach/go.geojson"
)

// Entry is a cached resolution result.
type Entry struct {
	Label   string           `json:"label"`
	Feature *geojson.Feature `json:"feature"`
}

// Store is a token-keyed cache of resolution results.
//
// Get returns (entry, true) on a hit; a hit with a nil entry is a cached
// negative result (the token is known to resolve to nothing). Set with a
// nil entry records a negative result; durable implementations ignore
// negatives and persist successes only, so a transient provider outage
// never poisons later sessions.
type Store interface {
	Get(ctx context.Context, token string) (*Entry, bool, error)
	Set(ctx context.Context, token string, e *Entry) error
	Clear(ctx context.Context) error
}
