package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentastock/dentastock/internal/platform/httpx"
)

const productColumns = `id, code, name, description, category, purchase_price, sell_price, stock, min_stock, expiry_date, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListProducts returns products matching the optional search term.
func (r *Repository) ListProducts(ctx context.Context, search string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListLowStock returns products at or below their minimum stock.
func (r *Repository) ListLowStock(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE stock <= min_stock ORDER BY stock`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListExpiring returns products whose expiry date falls on or before the
// cutoff, soonest first.
func (r *Repository) ListExpiring(ctx context.Context, cutoff time.Time) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE expiry_date IS NOT NULL AND expiry_date <= $1 ORDER BY expiry_date`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetProduct fetches a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	return r.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetProductByCode fetches a product by its unique code.
func (r *Repository) GetProductByCode(ctx context.Context, code string) (*Product, error) {
	return r.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code)
}

func (r *Repository) getProduct(ctx context.Context, query, arg string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Category,
		&p.PurchasePrice, &p.SellPrice, &p.Stock, &p.MinStock,
		&p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Code, p.Name, p.Description, p.Category, p.PurchasePrice, p.SellPrice, p.Stock, p.MinStock, p.ExpiryDate, p.CreatedAt, p.UpdatedAt)
	return err
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET code = $2, name = $3, description = $4, category = $5, purchase_price = $6, sell_price = $7, stock = $8, min_stock = $9, expiry_date = $10, updated_at = $11
		 WHERE id = $1`,
		p.ID, p.Code, p.Name, p.Description, p.Category, p.PurchasePrice, p.SellPrice, p.Stock, p.MinStock, p.ExpiryDate, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product row.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.Description, &p.Category,
			&p.PurchasePrice, &p.SellPrice, &p.Stock, &p.MinStock,
			&p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
