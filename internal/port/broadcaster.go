package port

import (
	"context"

	"github.com/avelarde/storefront/internal/core/domain"
)

// Catalog event types published whenever a product changes, whether through
// a direct edit or a stock decrement during checkout.
const (
	EventProductAdded   = "productAdded"
	EventProductUpdated = "productUpdated"
	EventProductDeleted = "productDeleted"
)

// CatalogEvent is the payload pushed to realtime subscribers.
type CatalogEvent struct {
	Type      string          `json:"type"`
	ProductID string          `json:"product_id"`
	Product   *domain.Product `json:"product,omitempty"`
}

// Broadcaster fans catalog events out to whatever realtime channel the
// frontend listens on. Publishing is best-effort: callers log failures but
// do not fail the triggering operation.
type Broadcaster interface {
	Publish(ctx context.Context, event CatalogEvent) error
	Close() error
}
