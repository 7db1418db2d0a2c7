package sales

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

const saleColumns = `id, invoice_number, customer_id, customer_name, items, subtotal, discount_pct, discount_amount, total, notes, created_by, created_at, updated_at`

const orderColumns = `id, order_number, customer_id, customer_name, items, subtotal, discount_pct, discount_amount, total, status, notes, sale_id, created_at, updated_at`

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ListSales returns all invoices, newest first.
func (r *Repository) ListSales(ctx context.Context) ([]Sale, error) {
	return listSales(ctx, r.pool)
}

// GetSale fetches one invoice.
func (r *Repository) GetSale(ctx context.Context, id string) (*Sale, error) {
	return getSale(ctx, r.pool, id, false)
}

// ListOrders returns all sales orders, newest first.
func (r *Repository) ListOrders(ctx context.Context) ([]SalesOrder, error) {
	return listOrders(ctx, r.pool)
}

// GetOrder fetches one sales order.
func (r *Repository) GetOrder(ctx context.Context, id string) (*SalesOrder, error) {
	return getOrder(ctx, r.pool, id, false)
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) ListInvoiceNumbers(ctx context.Context) ([]string, error) {
	rows, err := t.tx.Query(ctx, `SELECT invoice_number FROM sales`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var numbers []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		numbers = append(numbers, number)
	}
	return numbers, rows.Err()
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

func (t *txRepository) GetCustomer(ctx context.Context, id string) (*partners.Partner, error) {
	var p partners.Partner
	err := t.tx.QueryRow(ctx,
		`SELECT id, kind, name, phone, email, address, created_at, updated_at FROM partners WHERE kind = 'customer' AND id = $1`,
		id).Scan(&p.ID, &p.Kind, &p.Name, &p.Phone, &p.Email, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *txRepository) GetSale(ctx context.Context, id string) (*Sale, error) {
	return getSale(ctx, t.tx, id, true)
}

func (t *txRepository) CreateSale(ctx context.Context, sale Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO sales (`+saleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		sale.ID, sale.InvoiceNumber, sale.CustomerID, sale.CustomerName, items,
		sale.Subtotal, sale.DiscountPct, sale.DiscountAmount, sale.Total, sale.Notes,
		sale.CreatedBy, sale.CreatedAt, sale.UpdatedAt)
	return err
}

func (t *txRepository) UpdateSale(ctx context.Context, sale Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE sales SET customer_id = $2, customer_name = $3, items = $4, subtotal = $5, discount_pct = $6, discount_amount = $7, total = $8, notes = $9, updated_at = $10
		 WHERE id = $1`,
		sale.ID, sale.CustomerID, sale.CustomerName, items,
		sale.Subtotal, sale.DiscountPct, sale.DiscountAmount, sale.Total, sale.Notes, sale.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteSale(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) GetOrderForUpdate(ctx context.Context, id string) (*SalesOrder, error) {
	return getOrder(ctx, t.tx, id, true)
}

func (t *txRepository) CreateOrder(ctx context.Context, order SalesOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO sales_orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		order.ID, order.OrderNumber, order.CustomerID, order.CustomerName, items,
		order.Subtotal, order.DiscountPct, order.DiscountAmount, order.Total,
		string(order.Status), order.Notes, nullable(order.SaleID),
		order.CreatedAt, order.UpdatedAt)
	return err
}

func (t *txRepository) UpdateOrder(ctx context.Context, order SalesOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE sales_orders SET customer_id = $2, customer_name = $3, items = $4, subtotal = $5, discount_pct = $6, discount_amount = $7, total = $8, status = $9, notes = $10, sale_id = $11, updated_at = $12
		 WHERE id = $1`,
		order.ID, order.CustomerID, order.CustomerName, items,
		order.Subtotal, order.DiscountPct, order.DiscountAmount, order.Total,
		string(order.Status), order.Notes, nullable(order.SaleID), order.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteOrder(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func listSales(ctx context.Context, q queryer) ([]Sale, error) {
	rows, err := q.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

func getSale(ctx context.Context, q queryer, id string, forUpdate bool) (*Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	sale, err := scanSale(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func listOrders(ctx context.Context, q queryer) ([]SalesOrder, error) {
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM sales_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

func getOrder(ctx context.Context, q queryer, id string, forUpdate bool) (*SalesOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders WHERE id = $1`
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

func scanSale(row pgx.Row) (*Sale, error) {
	var sale Sale
	var items []byte
	if err := row.Scan(
		&sale.ID, &sale.InvoiceNumber, &sale.CustomerID, &sale.CustomerName, &items,
		&sale.Subtotal, &sale.DiscountPct, &sale.DiscountAmount, &sale.Total,
		&sale.Notes, &sale.CreatedBy, &sale.CreatedAt, &sale.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &sale.Items); err != nil {
		return nil, err
	}
	return &sale, nil
}

func scanOrder(row pgx.Row) (*SalesOrder, error) {
	var order SalesOrder
	var items []byte
	var status string
	var saleID *string
	if err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.CustomerName, &items,
		&order.Subtotal, &order.DiscountPct, &order.DiscountAmount, &order.Total,
		&status, &order.Notes, &saleID,
		&order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, err
	}
	order.Status = OrderStatus(status)
	if saleID != nil {
		order.SaleID = *saleID
	}
	return &order, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ RepositoryPort = (*Repository)(nil)
