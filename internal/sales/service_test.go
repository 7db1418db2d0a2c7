package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dentastock/dentastock/internal/catalog"
	"github.com/dentastock/dentastock/internal/partners"
	"github.com/dentastock/dentastock/internal/platform/httpx"
	"github.com/dentastock/dentastock/internal/shared"
)

type memoryRepo struct {
	products  map[string]catalog.Product
	customers map[string]partners.Partner
	sales     map[string]Sale
	orders    map[string]SalesOrder
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:  make(map[string]catalog.Product),
		customers: make(map[string]partners.Partner),
		sales:     make(map[string]Sale),
		orders:    make(map[string]SalesOrder),
	}
}

// WithTx snapshots state up front and restores it when fn fails, mirroring
// the rollback of the real repository.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	products := cloneMap(r.products)
	customers := cloneMap(r.customers)
	salesCopy := cloneMap(r.sales)
	orders := cloneMap(r.orders)

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.products = products
		r.customers = customers
		r.sales = salesCopy
		r.orders = orders
		return err
	}
	return nil
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (r *memoryRepo) ListSales(ctx context.Context) ([]Sale, error) {
	var out []Sale
	for _, sale := range r.sales {
		out = append(out, sale)
	}
	return out, nil
}

func (r *memoryRepo) GetSale(ctx context.Context, id string) (*Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &sale, nil
}

func (r *memoryRepo) ListOrders(ctx context.Context) ([]SalesOrder, error) {
	var out []SalesOrder
	for _, order := range r.orders {
		out = append(out, order)
	}
	return out, nil
}

func (r *memoryRepo) GetOrder(ctx context.Context, id string) (*SalesOrder, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &order, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) ListInvoiceNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	for _, sale := range t.repo.sales {
		numbers = append(numbers, sale.InvoiceNumber)
	}
	return numbers, nil
}

func (t *memoryTx) GetProductForUpdate(ctx context.Context, id string) (*catalog.Product, error) {
	product, ok := t.repo.products[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &product, nil
}

func (t *memoryTx) AdjustProductStock(ctx context.Context, id string, delta int) error {
	product, ok := t.repo.products[id]
	if !ok {
		return httpx.ErrNotFound
	}
	product.Stock += delta
	t.repo.products[id] = product
	return nil
}

func (t *memoryTx) GetCustomer(ctx context.Context, id string) (*partners.Partner, error) {
	customer, ok := t.repo.customers[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &customer, nil
}

func (t *memoryTx) GetSale(ctx context.Context, id string) (*Sale, error) {
	return t.repo.GetSale(ctx, id)
}

func (t *memoryTx) CreateSale(ctx context.Context, sale Sale) error {
	t.repo.sales[sale.ID] = sale
	return nil
}

func (t *memoryTx) UpdateSale(ctx context.Context, sale Sale) error {
	if _, ok := t.repo.sales[sale.ID]; !ok {
		return httpx.ErrNotFound
	}
	t.repo.sales[sale.ID] = sale
	return nil
}

func (t *memoryTx) DeleteSale(ctx context.Context, id string) error {
	if _, ok := t.repo.sales[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(t.repo.sales, id)
	return nil
}

func (t *memoryTx) GetOrderForUpdate(ctx context.Context, id string) (*SalesOrder, error) {
	return t.repo.GetOrder(ctx, id)
}

func (t *memoryTx) CreateOrder(ctx context.Context, order SalesOrder) error {
	t.repo.orders[order.ID] = order
	return nil
}

func (t *memoryTx) UpdateOrder(ctx context.Context, order SalesOrder) error {
	if _, ok := t.repo.orders[order.ID]; !ok {
		return httpx.ErrNotFound
	}
	t.repo.orders[order.ID] = order
	return nil
}

func (t *memoryTx) DeleteOrder(ctx context.Context, id string) error {
	if _, ok := t.repo.orders[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(t.repo.orders, id)
	return nil
}

var (
	admin = shared.Actor{UserID: "u1", Username: "amira", Role: shared.RoleAdmin}
	staff = shared.Actor{UserID: "u2", Username: "karim", Role: shared.RoleStaff}
)

func seedProduct(repo *memoryRepo, id, name string, price float64, stock int) {
	repo.products[id] = catalog.Product{ID: id, Code: "C-" + id, Name: name, SellPrice: price, Stock: stock}
}

func seedCustomer(repo *memoryRepo, id, name string) {
	repo.customers[id] = partners.Partner{ID: id, Kind: partners.KindCustomer, Name: name}
}

func TestCreateSaleDecrementsStockAndAppliesDiscount(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedProduct(repo, "p2", "Nitrile Gloves M", 7.5, 120)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, admin, SaleInput{
		CustomerID: "c1",
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 10},
			{ProductID: "p2", Quantity: 4},
		},
		DiscountPct: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "INV-0001", sale.InvoiceNumber)
	require.Equal(t, "Smile Dental Clinic", sale.CustomerName)
	require.InDelta(t, 270.0, sale.Subtotal, 0.0001)
	require.InDelta(t, 27.0, sale.DiscountAmount, 0.0001)
	require.InDelta(t, 243.0, sale.Total, 0.0001)
	require.Equal(t, "amira", sale.CreatedBy)

	require.Equal(t, 30, repo.products["p1"].Stock)
	require.Equal(t, 116, repo.products["p2"].Stock)
}

func TestCreateSaleStaffDiscountIsZeroed(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Diamond Bur D12", 3.6, 60)
	seedCustomer(repo, "c1", "City Orthodontics")
	svc := NewService(repo)

	sale, err := svc.CreateSale(context.Background(), staff, SaleInput{
		CustomerID:  "c1",
		Items:       []SaleItemInput{{ProductID: "p1", Quantity: 5}},
		DiscountPct: 50,
	})
	require.NoError(t, err)
	require.Zero(t, sale.DiscountPct)
	require.Zero(t, sale.DiscountAmount)
	require.InDelta(t, 18.0, sale.Total, 0.0001)
}

func TestCreateSaleShortageAbortsWholeInvoice(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedProduct(repo, "p2", "Lidocaine 2% Cartridge", 1.4, 3)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)

	_, err := svc.CreateSale(context.Background(), admin, SaleInput{
		CustomerID: "c1",
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 10},
			{ProductID: "p2", Quantity: 5},
		},
	})
	require.ErrorIs(t, err, httpx.ErrInsufficientStock)
	require.ErrorContains(t, err, "Lidocaine 2% Cartridge")
	require.ErrorContains(t, err, "3")

	// The first line's decrement must have been rolled back.
	require.Equal(t, 40, repo.products["p1"].Stock)
	require.Equal(t, 3, repo.products["p2"].Stock)
	require.Empty(t, repo.sales)
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Nitrile Gloves M", 7.5, 500)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	input := SaleInput{CustomerID: "c1", Items: []SaleItemInput{{ProductID: "p1", Quantity: 1}}}
	first, err := svc.CreateSale(ctx, admin, input)
	require.NoError(t, err)
	second, err := svc.CreateSale(ctx, admin, input)
	require.NoError(t, err)
	require.Equal(t, "INV-0001", first.InvoiceNumber)
	require.Equal(t, "INV-0002", second.InvoiceNumber)
}

func TestUpdateSaleMovesStockByDelta(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedProduct(repo, "p2", "Nitrile Gloves M", 7.5, 120)
	seedProduct(repo, "p3", "Diamond Bur D12", 3.6, 60)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, admin, SaleInput{
		CustomerID: "c1",
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 10},
			{ProductID: "p2", Quantity: 4},
		},
	})
	require.NoError(t, err)

	// Raise p1, drop p2 entirely, introduce p3.
	updated, err := svc.UpdateSale(ctx, admin, sale.ID, SaleInput{
		CustomerID: "c1",
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 15},
			{ProductID: "p3", Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)

	require.Equal(t, 25, repo.products["p1"].Stock)
	require.Equal(t, 120, repo.products["p2"].Stock)
	require.Equal(t, 58, repo.products["p3"].Stock)
	require.Equal(t, sale.InvoiceNumber, updated.InvoiceNumber)
}

func TestUpdateSaleShortageOnDeltaAborts(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 10)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, admin, SaleInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 8}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, repo.products["p1"].Stock)

	// Going from 8 to 11 needs a delta of 3 but only 2 remain.
	_, err = svc.UpdateSale(ctx, admin, sale.ID, SaleInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 11}},
	})
	require.ErrorIs(t, err, httpx.ErrInsufficientStock)
	require.Equal(t, 2, repo.products["p1"].Stock)

	// Going from 8 to 10 needs exactly the remaining 2.
	updated, err := svc.UpdateSale(ctx, admin, sale.ID, SaleInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, 0, repo.products["p1"].Stock)
	require.Equal(t, 10, updated.Items[0].Quantity)
}

func TestUpdateSaleStaffKeepsExistingDiscount(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, admin, SaleInput{
		CustomerID:  "c1",
		Items:       []SaleItemInput{{ProductID: "p1", Quantity: 5}},
		DiscountPct: 20,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateSale(ctx, staff, sale.ID, SaleInput{
		CustomerID:  "c1",
		Items:       []SaleItemInput{{ProductID: "p1", Quantity: 6}},
		DiscountPct: 90,
	})
	require.NoError(t, err)
	require.InDelta(t, 20.0, updated.DiscountPct, 0.0001)
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedProduct(repo, "p2", "Nitrile Gloves M", 7.5, 120)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, admin, SaleInput{
		CustomerID: "c1",
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 10},
			{ProductID: "p2", Quantity: 4},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSale(ctx, sale.ID))
	require.Equal(t, 40, repo.products["p1"].Stock)
	require.Equal(t, 120, repo.products["p2"].Stock)
	require.Empty(t, repo.sales)
}

func TestConvertOrderCreatesInvoiceAtomically(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, admin, OrderInput{
		CustomerID:  "c1",
		Items:       []SaleItemInput{{ProductID: "p1", Quantity: 12}},
		DiscountPct: 10,
	})
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, order.Status)
	require.InDelta(t, 288.0, order.Subtotal, 0.0001)
	require.InDelta(t, 259.2, order.Total, 0.0001)
	// Creating the order reserves nothing.
	require.Equal(t, 40, repo.products["p1"].Stock)

	sale, err := svc.ConvertOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	require.Equal(t, "INV-0001", sale.InvoiceNumber)
	require.Equal(t, 28, repo.products["p1"].Stock)
	// The invoice carries the order's discounted totals and points back at it.
	require.InDelta(t, order.Total, sale.Total, 0.0001)
	require.InDelta(t, order.DiscountAmount, sale.DiscountAmount, 0.0001)
	require.Contains(t, sale.Notes, order.OrderNumber)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusInvoiced, stored.Status)
	require.Equal(t, sale.ID, stored.SaleID)

	// A second conversion must be rejected.
	_, err = svc.ConvertOrder(ctx, admin, order.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidStatus)
}

func TestConvertOrderShortageLeavesEverythingUntouched(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedProduct(repo, "p2", "Lidocaine 2% Cartridge", 1.4, 300)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, admin, OrderInput{
		CustomerID: "c1",
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 5},
			{ProductID: "p2", Quantity: 100},
		},
	})
	require.NoError(t, err)

	// Stock sinks below the ordered quantity before conversion.
	product := repo.products["p2"]
	product.Stock = 60
	repo.products["p2"] = product

	_, err = svc.ConvertOrder(ctx, admin, order.ID)
	require.ErrorIs(t, err, httpx.ErrInsufficientStock)
	require.ErrorContains(t, err, "Lidocaine 2% Cartridge")
	require.ErrorContains(t, err, "60")

	require.Equal(t, 40, repo.products["p1"].Stock)
	require.Equal(t, 60, repo.products["p2"].Stock)
	require.Empty(t, repo.sales)
	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, stored.Status)
}

func TestInvoicedOrderCannotBeDeleted(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, admin, OrderInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.ConvertOrder(ctx, admin, order.ID)
	require.NoError(t, err)

	err = svc.DeleteOrder(ctx, order.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidStatus)
}

func TestCancelOrderOnlyFromPending(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 40)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, admin, OrderInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCancelled, cancelled.Status)

	_, err = svc.CancelOrder(ctx, order.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidStatus)
	_, err = svc.ConvertOrder(ctx, admin, order.ID)
	require.ErrorIs(t, err, httpx.ErrInvalidStatus)
}

func TestStockInvariantAcrossDocumentLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	seedProduct(repo, "p1", "Composite Filling A2", 24, 100)
	seedCustomer(repo, "c1", "Smile Dental Clinic")
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.CreateSale(ctx, admin, SaleInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 30}},
	})
	require.NoError(t, err)
	second, err := svc.CreateSale(ctx, admin, SaleInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 20}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateSale(ctx, admin, first.ID, SaleInput{
		CustomerID: "c1",
		Items:      []SaleItemInput{{ProductID: "p1", Quantity: 25}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSale(ctx, second.ID))

	// initial stock minus the live quantities on surviving invoices.
	require.Equal(t, 100-25, repo.products["p1"].Stock)
}

func TestOrderNumberUsesPrefixAndTimestamp(t *testing.T) {
	at := time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC)
	require.Equal(t, "SO-1772447400000", NewOrderNumber("SO", at))
}
