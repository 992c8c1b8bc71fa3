package ports

import (
	"context"

	"agri-route-service/internal/domain"
)

// Port: a boundary for retrieving Order entities from a data source.
type OrderRepository interface {
	// Retrieve all orders awaiting delivery planning.
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

// Port: persisted manual coordinate corrections keyed by location key.
type OverrideStore interface {
	ListOverrides(ctx context.Context) (map[string]domain.Coordinates, error)
	PutOverride(ctx context.Context, key string, coords domain.Coordinates) error
}
