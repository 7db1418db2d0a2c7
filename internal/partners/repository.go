package partners

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentastock/dentastock/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence over one partners table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const partnerColumns = `id, kind, name, phone, email, address, created_at, updated_at`

// ListPartners returns partners of a kind matching the optional search term.
func (r *Repository) ListPartners(ctx context.Context, kind Kind, search string) ([]Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE kind = $1`
	args := []any{string(kind)}
	if search != "" {
		query += ` AND (name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')`
		args = append(args, search)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name, &p.Phone, &p.Email, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPartner fetches a partner by kind and ID.
func (r *Repository) GetPartner(ctx context.Context, kind Kind, id string) (*Partner, error) {
	var p Partner
	err := r.pool.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE kind = $1 AND id = $2`,
		string(kind), id).Scan(&p.ID, &p.Kind, &p.Name, &p.Phone, &p.Email, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreatePartner inserts a new partner row.
func (r *Repository) CreatePartner(ctx context.Context, p Partner) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO partners (id, kind, name, phone, email, address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, string(p.Kind), p.Name, p.Phone, p.Email, p.Address, p.CreatedAt, p.UpdatedAt)
	return err
}

// UpdatePartner updates an existing partner row.
func (r *Repository) UpdatePartner(ctx context.Context, p Partner) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE partners SET name = $3, phone = $4, email = $5, address = $6, updated_at = $7
		 WHERE kind = $1 AND id = $2`,
		string(p.Kind), p.ID, p.Name, p.Phone, p.Email, p.Address, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeletePartner removes a partner row.
func (r *Repository) DeletePartner(ctx context.Context, kind Kind, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM partners WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
