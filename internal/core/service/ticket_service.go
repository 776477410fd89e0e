package service

import (
	"context"

	"github.com/avelarde/storefront/internal/core/domain"
	"github.com/avelarde/storefront/internal/port"
)

// TicketService exposes read-only access to the purchase ledger. Tickets
// are only ever written by checkout.
type TicketService struct {
	tickets port.TicketRepository
}

func NewTicketService(tickets port.TicketRepository) *TicketService {
	return &TicketService{tickets: tickets}
}

func (s *TicketService) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	return s.tickets.GetByCode(ctx, code)
}

func (s *TicketService) ListByPurchaser(ctx context.Context, purchaser string) ([]domain.Ticket, error) {
	return s.tickets.ListByPurchaser(ctx, purchaser)
}
