package port

import (
	"context"

	"github.com/avelarde/storefront/internal/core/domain"
)

// TicketRepository is an append-only purchase ledger. Tickets are never
// updated or deleted once written.
type TicketRepository interface {
	Append(ctx context.Context, ticket *domain.Ticket) error

	// GetByCode returns domain.ErrTicketNotFound when no ticket exists.
	GetByCode(ctx context.Context, code string) (*domain.Ticket, error)

	ListByPurchaser(ctx context.Context, purchaser string) ([]domain.Ticket, error)
}
