package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed read queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSales returns invoice records created inside the window.
func (r *Repository) ListSales(ctx context.Context, from, to time.Time) ([]SaleRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT customer_id, customer_name, items, total, created_at FROM sales WHERE created_at BETWEEN $1 AND $2`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleRecord
	for rows.Next() {
		var record SaleRecord
		var items []byte
		if err := rows.Scan(&record.CustomerID, &record.CustomerName, &items, &record.Total, &record.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &record.Items); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// ListCompletedPurchases returns completed purchase orders created inside
// the window.
func (r *Repository) ListCompletedPurchases(ctx context.Context, from, to time.Time) ([]PurchaseRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT total, created_at FROM purchase_orders WHERE status = 'completed' AND created_at BETWEEN $1 AND $2`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseRecord
	for rows.Next() {
		var record PurchaseRecord
		if err := rows.Scan(&record.Total, &record.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
