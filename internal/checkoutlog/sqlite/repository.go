// Package sqlite provides a SQLite-backed implementation of
// checkoutlog.Repository. WAL mode is enabled so the checkout goroutine can
// write while an operator queries the log.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avelarde/storefront/internal/checkoutlog"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkout_logs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id   TEXT NOT NULL,
    cart_id      TEXT NOT NULL,
    purchaser    TEXT NOT NULL,
    status       TEXT NOT NULL,
    current_step TEXT NOT NULL DEFAULT '',
    detail       TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_logs_attempt ON checkout_logs(attempt_id, id);
CREATE INDEX IF NOT EXISTS idx_checkout_logs_cart ON checkout_logs(cart_id, created_at);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the log database at path and applies the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends a new log row. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, entry *checkoutlog.Entry) error {
	const q = `
		INSERT INTO checkout_logs
			(attempt_id, cart_id, purchaser, status, current_step, detail, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.AttemptID,
		entry.CartID,
		entry.Purchaser,
		string(entry.Status),
		entry.CurrentStep,
		entry.Detail,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save checkout log for %q: %w", entry.AttemptID, err)
	}
	return nil
}

// ListByAttempt returns every entry of one checkout attempt in write order.
func (r *Repository) ListByAttempt(ctx context.Context, attemptID string) ([]checkoutlog.Entry, error) {
	const q = `
		SELECT attempt_id, cart_id, purchaser, status, current_step, detail, created_at
		FROM   checkout_logs
		WHERE  attempt_id = ?
		ORDER  BY id`

	rows, err := r.db.QueryContext(ctx, q, attemptID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list checkout log for %q: %w", attemptID, err)
	}
	defer rows.Close()

	var entries []checkoutlog.Entry
	for rows.Next() {
		var e checkoutlog.Entry
		var createdAt string
		if err := rows.Scan(&e.AttemptID, &e.CartID, &e.Purchaser, &e.Status, &e.CurrentStep, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan checkout log: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse time %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Latest returns the most recent entry for a cart, or nil if the cart has
// never been through checkout.
func (r *Repository) Latest(ctx context.Context, cartID string) (*checkoutlog.Entry, error) {
	const q = `
		SELECT attempt_id, cart_id, purchaser, status, current_step, detail, created_at
		FROM   checkout_logs
		WHERE  cart_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	var e checkoutlog.Entry
	var createdAt string
	err := r.db.QueryRowContext(ctx, q, cartID).
		Scan(&e.AttemptID, &e.CartID, &e.Purchaser, &e.Status, &e.CurrentStep, &e.Detail, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest checkout log for %q: %w", cartID, err)
	}
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse time %q: %w", createdAt, err)
	}
	return &e, nil
}
