package store

import (
	"context"

	"github.com/couchcryptid/service-area-service/internal/domain"
)

// Memory is a fixed in-memory roster, used in tests and anywhere a
// pre-built client list is already at hand.
type Memory struct {
	clients []domain.Client
}

// NewMemory creates a store over the given clients.
func NewMemory(clients []domain.Client) *Memory {
	return &Memory{clients: clients}
}

func (m *Memory) Clients(_ context.Context) ([]domain.Client, error) {
	return m.clients, nil
}

func (m *Memory) Client(_ context.Context, name string) (domain.Client, bool, error) {
	for _, c := range m.clients {
		if c.Name == name {
			return c, true, nil
		}
	}
	return domain.Client{}, false, nil
}

var _ ClientStore = (*Memory)(nil)
