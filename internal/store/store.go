// Package store loads client records from the published roster CSV and
// serves them to the rest of the service. Column positions are discovered
// from the header row, so the sheet can reorder or add columns without a
// code change.
package store

import (
	"context"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

// ClientStore provides the client roster.
type ClientStore interface {
	// Clients returns all known clients in roster order.
	Clients(ctx context.Context) ([]domain.Client, error)

	// Client returns the named client, or false when absent. Name matching
	// is exact.
	Client(ctx context.Context, name string) (domain.Client, bool, error)
}
