package port

import (
	"context"

	"github.com/avelarde/storefront/internal/core/domain"
)

type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error

	// GetByID returns domain.ErrCartNotFound when no cart exists.
	GetByID(ctx context.Context, id string) (*domain.Cart, error)

	// ReplaceItems overwrites the cart's line items with the given sequence,
	// preserving its order.
	ReplaceItems(ctx context.Context, id string, items []domain.LineItem) error

	// Clear removes every line item from the cart.
	Clear(ctx context.Context, id string) error
}
