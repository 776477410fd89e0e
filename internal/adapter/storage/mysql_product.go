package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/avelarde/storefront/internal/core/domain"
)

const mysqlDupEntry = 1062

type ProductAdapter struct {
	db *sql.DB
}

func NewProductAdapter(db *sql.DB) *ProductAdapter {
	return &ProductAdapter{db: db}
}

func (a *ProductAdapter) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, title, description, code, price, status, stock, category, thumbnails, created_at, updated_at
		FROM products WHERE id = ?`, id)

	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product %s: %w", id, err)
	}
	return product, nil
}

func (a *ProductAdapter) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, title, description, code, price, status, stock, category, thumbnails, created_at, updated_at
		FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func (a *ProductAdapter) Create(ctx context.Context, p *domain.Product) error {
	thumbnails, err := marshalThumbnails(p.Thumbnails)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO products (id, title, description, code, price, status, stock, category, thumbnails, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Code, p.Price, p.Status, p.Stock, p.Category, thumbnails, p.CreatedAt, p.UpdatedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDupEntry {
		return domain.ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (a *ProductAdapter) Update(ctx context.Context, p *domain.Product) error {
	thumbnails, err := marshalThumbnails(p.Thumbnails)
	if err != nil {
		return err
	}

	result, err := a.db.ExecContext(ctx, `
		UPDATE products
		SET title = ?, description = ?, code = ?, price = ?, status = ?, stock = ?, category = ?, thumbnails = ?, updated_at = NOW()
		WHERE id = ?`,
		p.Title, p.Description, p.Code, p.Price, p.Status, p.Stock, p.Category, thumbnails, p.ID,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDupEntry {
		return domain.ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (a *ProductAdapter) Delete(ctx context.Context, id string) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// DecrementStock decreases stock only if at least quantity units remain at
// write time. The WHERE clause makes the check-and-decrement a single
// conditional write, so concurrent checkouts can never drive stock negative.
func (a *ProductAdapter) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	result, err := a.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock for %s: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var thumbnails sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Code, &p.Price, &p.Status, &p.Stock, &p.Category, &thumbnails, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if thumbnails.Valid && thumbnails.String != "" {
		if err := json.Unmarshal([]byte(thumbnails.String), &p.Thumbnails); err != nil {
			return nil, fmt.Errorf("decode thumbnails: %w", err)
		}
	}
	return &p, nil
}

func marshalThumbnails(thumbnails []string) (any, error) {
	if thumbnails == nil {
		return nil, nil
	}
	raw, err := json.Marshal(thumbnails)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnails: %w", err)
	}
	return string(raw), nil
}
