package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are executed one by one; the MySQL driver rejects multi-statement
// Exec by default.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          CHAR(36)      NOT NULL,
		title       VARCHAR(255)  NOT NULL,
		description TEXT          NOT NULL,
		code        VARCHAR(64)   NOT NULL,
		price       DECIMAL(10,2) NOT NULL,
		status      BOOLEAN       NOT NULL DEFAULT TRUE,
		stock       INT           NOT NULL,
		category    VARCHAR(128)  NOT NULL,
		thumbnails  JSON          NULL,
		created_at  DATETIME      NOT NULL,
		updated_at  DATETIME      NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_products_code (code),
		KEY idx_products_category (category)
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id         CHAR(36) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		cart_id    CHAR(36) NOT NULL,
		product_id CHAR(36) NOT NULL,
		quantity   INT      NOT NULL,
		position   INT      NOT NULL,
		PRIMARY KEY (cart_id, product_id),
		KEY idx_cart_items_order (cart_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id           CHAR(36)      NOT NULL,
		code         VARCHAR(32)   NOT NULL,
		amount       DECIMAL(10,2) NOT NULL,
		purchaser    VARCHAR(255)  NOT NULL,
		purchased_at DATETIME      NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_tickets_code (code),
		KEY idx_tickets_purchaser (purchaser)
	)`,
}

// ApplySchema creates the store tables if they do not exist yet.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
