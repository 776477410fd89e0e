package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avelarde/storefront/internal/core/domain"
)

type CartAdapter struct {
	db *sql.DB
}

func NewCartAdapter(db *sql.DB) *CartAdapter {
	return &CartAdapter{db: db}
}

func (a *CartAdapter) Create(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	cart.CreatedAt, cart.UpdatedAt = now, now

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO carts (id, created_at, updated_at) VALUES (?, ?, ?)`,
		cart.ID, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (a *CartAdapter) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	var cart domain.Cart
	err := a.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM carts WHERE id = ?`, id,
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart %s: %w", id, err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE cart_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query cart items for %s: %w", id, err)
	}
	defer rows.Close()

	cart.Items = []domain.LineItem{}
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	return &cart, rows.Err()
}

// ReplaceItems swaps the cart's line items for the given sequence in one
// transaction, keeping the stored order via the position column.
func (a *CartAdapter) ReplaceItems(ctx context.Context, id string, items []domain.LineItem) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := touchCart(ctx, tx, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, id); err != nil {
		return fmt.Errorf("delete cart items for %s: %w", id, err)
	}
	for position, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity, position) VALUES (?, ?, ?, ?)`,
			id, item.ProductID, item.Quantity, position,
		)
		if err != nil {
			return fmt.Errorf("insert cart item for %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (a *CartAdapter) Clear(ctx context.Context, id string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := touchCart(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, id); err != nil {
		return fmt.Errorf("delete cart items for %s: %w", id, err)
	}

	return tx.Commit()
}

// touchCart bumps updated_at and doubles as the existence check.
func touchCart(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touch cart %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}
