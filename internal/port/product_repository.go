package port

import (
	"context"

	"github.com/avelarde/storefront/internal/core/domain"
)

type ProductRepository interface {
	// GetByID returns domain.ErrProductNotFound when no product exists.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	List(ctx context.Context) ([]domain.Product, error)

	Create(ctx context.Context, product *domain.Product) error

	Update(ctx context.Context, product *domain.Product) error

	Delete(ctx context.Context, id string) error

	// DecrementStock atomically decreases stock, returns false if the product
	// no longer holds at least quantity units at write time.
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)
}
