package procurement

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentastock/dentastock/internal/catalog"
	"github.com/dentastock/dentastock/internal/partners"
	"github.com/dentastock/dentastock/internal/platform/db"
	"github.com/dentastock/dentastock/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a RepeatableRead transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const orderColumns = `id, order_number, supplier_id, supplier_name, items, total, status, notes, request_id, created_at, updated_at`

const requestColumns = `id, request_number, items, notes, status, requested_by, order_id, created_at, updated_at`

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ListOrders returns all purchase orders, newest first.
func (r *Repository) ListOrders(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM purchase_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

// GetOrder fetches one purchase order.
func (r *Repository) GetOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	return getOrder(ctx, r.pool, id, false)
}

// ListRequests returns all purchase requests, newest first.
func (r *Repository) ListRequests(ctx context.Context) ([]PurchaseRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+` FROM purchase_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *request)
	}
	return out, rows.Err()
}

// GetRequest fetches one purchase request.
func (r *Repository) GetRequest(ctx context.Context, id string) (*PurchaseRequest, error) {
	return getRequest(ctx, r.pool, id, false)
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetProductForUpdate(ctx context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx,
		`SELECT id, code, name, description, category, purchase_price, sell_price, stock, min_stock, created_at, updated_at
		 FROM products WHERE id = $1 FOR UPDATE`, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Category,
		&p.PurchasePrice, &p.SellPrice, &p.Stock, &p.MinStock,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *txRepository) AdjustProductStock(ctx context.Context, id string, delta int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) SetProductStock(ctx context.Context, id string, stock int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`, id, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) CreateProduct(ctx context.Context, p catalog.Product) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO products (id, code, name, description, category, purchase_price, sell_price, stock, min_stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Code, p.Name, p.Description, p.Category, p.PurchasePrice, p.SellPrice, p.Stock, p.MinStock, p.CreatedAt, p.UpdatedAt)
	return err
}

func (t *txRepository) GetSupplier(ctx context.Context, id string) (*partners.Partner, error) {
	var p partners.Partner
	err := t.tx.QueryRow(ctx,
		`SELECT id, kind, name, phone, email, address, created_at, updated_at FROM partners WHERE kind = 'supplier' AND id = $1`,
		id).Scan(&p.ID, &p.Kind, &p.Name, &p.Phone, &p.Email, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *txRepository) GetOrderForUpdate(ctx context.Context, id string) (*PurchaseOrder, error) {
	return getOrder(ctx, t.tx, id, true)
}

func (t *txRepository) CreateOrder(ctx context.Context, order PurchaseOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO purchase_orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID, order.OrderNumber, nullable(order.SupplierID), nullable(order.SupplierName), items,
		order.Total, string(order.Status), order.Notes, nullable(order.RequestID), order.CreatedAt, order.UpdatedAt)
	return err
}

func (t *txRepository) UpdateOrder(ctx context.Context, order PurchaseOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_orders SET supplier_id = $2, supplier_name = $3, items = $4, total = $5, status = $6, notes = $7, request_id = $8, updated_at = $9
		 WHERE id = $1`,
		order.ID, nullable(order.SupplierID), nullable(order.SupplierName), items,
		order.Total, string(order.Status), order.Notes, nullable(order.RequestID), order.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteOrder(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) GetRequestForUpdate(ctx context.Context, id string) (*PurchaseRequest, error) {
	return getRequest(ctx, t.tx, id, true)
}

func (t *txRepository) CreateRequest(ctx context.Context, request PurchaseRequest) error {
	items, err := json.Marshal(request.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO purchase_requests (`+requestColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		request.ID, request.RequestNumber, items, request.Notes, string(request.Status),
		request.RequestedBy, nullable(request.OrderID), request.CreatedAt, request.UpdatedAt)
	return err
}

func (t *txRepository) UpdateRequest(ctx context.Context, request PurchaseRequest) error {
	items, err := json.Marshal(request.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_requests SET items = $2, notes = $3, status = $4, order_id = $5, updated_at = $6 WHERE id = $1`,
		request.ID, items, request.Notes, string(request.Status), nullable(request.OrderID), request.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteRequest(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM purchase_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func getOrder(ctx context.Context, q queryer, id string, forUpdate bool) (*PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	order, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func getRequest(ctx context.Context, q queryer, id string, forUpdate bool) (*PurchaseRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM purchase_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	request, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

func scanOrder(row pgx.Row) (*PurchaseOrder, error) {
	var order PurchaseOrder
	var items []byte
	var status string
	var supplierID, supplierName, requestID *string
	if err := row.Scan(
		&order.ID, &order.OrderNumber, &supplierID, &supplierName, &items,
		&order.Total, &status, &order.Notes, &requestID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, err
	}
	order.Status = OrderStatus(status)
	order.SupplierID = deref(supplierID)
	order.SupplierName = deref(supplierName)
	order.RequestID = deref(requestID)
	return &order, nil
}

func scanRequest(row pgx.Row) (*PurchaseRequest, error) {
	var request PurchaseRequest
	var items []byte
	var status string
	var orderID *string
	if err := row.Scan(
		&request.ID, &request.RequestNumber, &items, &request.Notes, &status,
		&request.RequestedBy, &orderID, &request.CreatedAt, &request.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &request.Items); err != nil {
		return nil, err
	}
	request.Status = RequestStatus(status)
	request.OrderID = deref(orderID)
	return &request, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ RepositoryPort = (*Repository)(nil)
