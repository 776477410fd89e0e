package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avelarde/storefront/internal/core/domain"
)

// TicketAdapter persists the purchase ledger. Tickets are append-only; no
// update or delete statements exist on purpose.
type TicketAdapter struct {
	db *sql.DB
}

func NewTicketAdapter(db *sql.DB) *TicketAdapter {
	return &TicketAdapter{db: db}
}

func (a *TicketAdapter) Append(ctx context.Context, t *domain.Ticket) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO tickets (id, code, amount, purchaser, purchased_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Code, t.Amount, t.Purchaser, t.PurchasedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.Code, err)
	}
	return nil
}

func (a *TicketAdapter) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := a.db.QueryRowContext(ctx,
		`SELECT id, code, amount, purchaser, purchased_at FROM tickets WHERE code = ?`, code,
	).Scan(&t.ID, &t.Code, &t.Amount, &t.Purchaser, &t.PurchasedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket %s: %w", code, err)
	}
	return &t, nil
}

func (a *TicketAdapter) ListByPurchaser(ctx context.Context, purchaser string) ([]domain.Ticket, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, code, amount, purchaser, purchased_at FROM tickets WHERE purchaser = ? ORDER BY purchased_at DESC`,
		purchaser,
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets for %s: %w", purchaser, err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.Amount, &t.Purchaser, &t.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
