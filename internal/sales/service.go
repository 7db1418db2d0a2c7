package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dentastock/dentastock/internal/catalog"
	"github.com/dentastock/dentastock/internal/partners"
	"github.com/dentastock/dentastock/internal/platform/httpx"
	"github.com/dentastock/dentastock/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListSales(ctx context.Context) ([]Sale, error)
	GetSale(ctx context.Context, id string) (*Sale, error)
	ListOrders(ctx context.Context) ([]SalesOrder, error)
	GetOrder(ctx context.Context, id string) (*SalesOrder, error)
}

// TxRepository exposes the operations available inside a transaction. Stock
// reads lock the product row so concurrent documents cannot oversell.
type TxRepository interface {
	ListInvoiceNumbers(ctx context.Context) ([]string, error)
	GetProductForUpdate(ctx context.Context, id string) (*catalog.Product, error)
	AdjustProductStock(ctx context.Context, id string, delta int) error
	GetCustomer(ctx context.Context, id string) (*partners.Partner, error)
	GetSale(ctx context.Context, id string) (*Sale, error)
	CreateSale(ctx context.Context, sale Sale) error
	UpdateSale(ctx context.Context, sale Sale) error
	DeleteSale(ctx context.Context, id string) error
	GetOrderForUpdate(ctx context.Context, id string) (*SalesOrder, error)
	CreateOrder(ctx context.Context, order SalesOrder) error
	UpdateOrder(ctx context.Context, order SalesOrder) error
	DeleteOrder(ctx context.Context, id string) error
}

// Service coordinates invoicing and sales order operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// SaleItemInput is one requested line.
type SaleItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// SaleInput carries fields for creating or updating an invoice.
type SaleInput struct {
	CustomerID  string          `json:"customerId" validate:"required"`
	Items       []SaleItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountPct float64         `json:"discountPct" validate:"gte=0,lte=100"`
	Notes       string          `json:"notes"`
}

// OrderInput carries fields for creating or updating a sales order.
type OrderInput struct {
	CustomerID  string          `json:"customerId" validate:"required"`
	Items       []SaleItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountPct float64         `json:"discountPct" validate:"gte=0,lte=100"`
	Notes       string          `json:"notes"`
}

// ListSales returns all invoices.
func (s *Service) ListSales(ctx context.Context) ([]Sale, error) {
	return s.repo.ListSales(ctx)
}

// GetSale fetches one invoice.
func (s *Service) GetSale(ctx context.Context, id string) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// CreateSale posts a new invoice. Within one transaction it assigns the next
// invoice number, snapshots customer and product data, verifies stock per
// line and decrements it. A shortage on any line aborts the whole invoice.
func (s *Service) CreateSale(ctx context.Context, actor shared.Actor, input SaleInput) (*Sale, error) {
	if err := validateDistinctProducts(input.Items); err != nil {
		return nil, err
	}

	discountPct := input.DiscountPct
	if !actor.IsAdmin() {
		discountPct = 0
	}

	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return fmt.Errorf("%w: customer not found", httpx.ErrValidation)
		}

		numbers, err := tx.ListInvoiceNumbers(ctx)
		if err != nil {
			return err
		}

		items, subtotal, err := buildItems(ctx, tx, input.Items, true)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		discountAmount := subtotal * discountPct / 100
		sale = Sale{
			ID:             uuid.NewString(),
			InvoiceNumber:  NextInvoiceNumber(numbers),
			CustomerID:     customer.ID,
			CustomerName:   customer.Name,
			Items:          items,
			Subtotal:       subtotal,
			DiscountPct:    discountPct,
			DiscountAmount: discountAmount,
			Total:          subtotal - discountAmount,
			Notes:          strings.TrimSpace(input.Notes),
			CreatedBy:      actor.Username,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.CreateSale(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// UpdateSale rewrites an invoice. Stock moves by the per-product delta
// between the stored lines and the new ones, computed over the union of
// both line sets so removed products are restocked.
func (s *Service) UpdateSale(ctx context.Context, actor shared.Actor, id string, input SaleInput) (*Sale, error) {
	if err := validateDistinctProducts(input.Items); err != nil {
		return nil, err
	}

	var updated Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}

		customer, err := tx.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return fmt.Errorf("%w: customer not found", httpx.ErrValidation)
		}

		original := make(map[string]int, len(sale.Items))
		for _, item := range sale.Items {
			original[item.ProductID] = item.Quantity
		}
		requested := make(map[string]int, len(input.Items))
		for _, item := range input.Items {
			requested[item.ProductID] = item.Quantity
		}

		// Walk the union of old and new lines. Products dropped from the
		// invoice show up with a requested quantity of zero and get their
		// stock back.
		seen := make(map[string]bool)
		var items []SaleItem
		var subtotal float64
		for _, line := range input.Items {
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("%w: product not found", httpx.ErrValidation)
			}
			delta := line.Quantity - original[line.ProductID]
			if delta > 0 && product.Stock < delta {
				return fmt.Errorf("%w: %s has only %d in stock", httpx.ErrInsufficientStock, product.Name, product.Stock)
			}
			if delta != 0 {
				if err := tx.AdjustProductStock(ctx, product.ID, -delta); err != nil {
					return err
				}
			}
			item := SaleItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.SellPrice,
				Total:       product.SellPrice * float64(line.Quantity),
			}
			items = append(items, item)
			subtotal += item.Total
			seen[product.ID] = true
		}
		for productID, qty := range original {
			if seen[productID] || requested[productID] != 0 {
				continue
			}
			if err := tx.AdjustProductStock(ctx, productID, qty); err != nil {
				return err
			}
		}

		discountPct := input.DiscountPct
		if !actor.IsAdmin() {
			// Staff cannot touch the discount once an admin granted it.
			discountPct = sale.DiscountPct
		}
		discountAmount := subtotal * discountPct / 100

		sale.CustomerID = customer.ID
		sale.CustomerName = customer.Name
		sale.Items = items
		sale.Subtotal = subtotal
		sale.DiscountPct = discountPct
		sale.DiscountAmount = discountAmount
		sale.Total = subtotal - discountAmount
		sale.Notes = strings.TrimSpace(input.Notes)
		sale.UpdatedAt = time.Now().UTC()

		if err := tx.UpdateSale(ctx, *sale); err != nil {
			return err
		}
		updated = *sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSale removes an invoice and returns every line's quantity to stock.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		for _, item := range sale.Items {
			if err := tx.AdjustProductStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
}

// ListOrders returns all sales orders.
func (s *Service) ListOrders(ctx context.Context) ([]SalesOrder, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrder fetches one sales order.
func (s *Service) GetOrder(ctx context.Context, id string) (*SalesOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// CreateOrder records a pending sales order. Prices are snapshotted but no
// stock moves until conversion. The discount follows the same admin-only
// rule as invoices.
func (s *Service) CreateOrder(ctx context.Context, actor shared.Actor, input OrderInput) (*SalesOrder, error) {
	if err := validateDistinctProducts(input.Items); err != nil {
		return nil, err
	}

	discountPct := input.DiscountPct
	if !actor.IsAdmin() {
		discountPct = 0
	}

	var order SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return fmt.Errorf("%w: customer not found", httpx.ErrValidation)
		}

		items, subtotal, err := buildItems(ctx, tx, input.Items, false)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		discountAmount := subtotal * discountPct / 100
		order = SalesOrder{
			ID:             uuid.NewString(),
			OrderNumber:    NewOrderNumber("SO", now),
			CustomerID:     customer.ID,
			CustomerName:   customer.Name,
			Items:          items,
			Subtotal:       subtotal,
			DiscountPct:    discountPct,
			DiscountAmount: discountAmount,
			Total:          subtotal - discountAmount,
			Status:         OrderStatusPending,
			Notes:          strings.TrimSpace(input.Notes),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder rewrites a pending order. Orders that were invoiced or
// cancelled are frozen.
func (s *Service) UpdateOrder(ctx context.Context, actor shared.Actor, id string, input OrderInput) (*SalesOrder, error) {
	if err := validateDistinctProducts(input.Items); err != nil {
		return nil, err
	}

	var updated SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return fmt.Errorf("%w: only pending orders can be edited", httpx.ErrInvalidStatus)
		}

		customer, err := tx.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return fmt.Errorf("%w: customer not found", httpx.ErrValidation)
		}

		items, subtotal, err := buildItems(ctx, tx, input.Items, false)
		if err != nil {
			return err
		}

		discountPct := input.DiscountPct
		if !actor.IsAdmin() {
			discountPct = order.DiscountPct
		}
		discountAmount := subtotal * discountPct / 100

		order.CustomerID = customer.ID
		order.CustomerName = customer.Name
		order.Items = items
		order.Subtotal = subtotal
		order.DiscountPct = discountPct
		order.DiscountAmount = discountAmount
		order.Total = subtotal - discountAmount
		order.Notes = strings.TrimSpace(input.Notes)
		order.UpdatedAt = time.Now().UTC()

		if err := tx.UpdateOrder(ctx, *order); err != nil {
			return err
		}
		updated = *order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CancelOrder marks a pending order as cancelled.
func (s *Service) CancelOrder(ctx context.Context, id string) (*SalesOrder, error) {
	var updated SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return fmt.Errorf("%w: only pending orders can be cancelled", httpx.ErrInvalidStatus)
		}
		order.Status = OrderStatusCancelled
		order.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateOrder(ctx, *order); err != nil {
			return err
		}
		updated = *order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteOrder removes an order that never became an invoice.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == OrderStatusInvoiced {
			return fmt.Errorf("%w: invoiced orders cannot be deleted", httpx.ErrInvalidStatus)
		}
		return tx.DeleteOrder(ctx, id)
	})
}

// ConvertOrder turns a pending order into an invoice. The order's stored
// state is re-read inside the transaction, every line is validated against
// current stock, and the sale, stock decrements and status change commit
// together or not at all.
func (s *Service) ConvertOrder(ctx context.Context, actor shared.Actor, id string) (*Sale, error) {
	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return fmt.Errorf("%w: order %s is %s, only pending orders can be invoiced", httpx.ErrInvalidStatus, order.OrderNumber, order.Status)
		}

		for _, item := range order.Items {
			product, err := tx.GetProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("%w: product %s no longer exists", httpx.ErrValidation, item.ProductName)
			}
			if product.Stock < item.Quantity {
				return fmt.Errorf("%w: %s has only %d in stock", httpx.ErrInsufficientStock, product.Name, product.Stock)
			}
		}
		for _, item := range order.Items {
			if err := tx.AdjustProductStock(ctx, item.ProductID, -item.Quantity); err != nil {
				return err
			}
		}

		numbers, err := tx.ListInvoiceNumbers(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		sale = Sale{
			ID:             uuid.NewString(),
			InvoiceNumber:  NextInvoiceNumber(numbers),
			CustomerID:     order.CustomerID,
			CustomerName:   order.CustomerName,
			Items:          order.Items,
			Subtotal:       order.Subtotal,
			DiscountPct:    order.DiscountPct,
			DiscountAmount: order.DiscountAmount,
			Total:          order.Total,
			Notes:          "Converted from sales order " + order.OrderNumber,
			CreatedBy:      actor.Username,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.CreateSale(ctx, sale); err != nil {
			return err
		}

		order.Status = OrderStatusInvoiced
		order.SaleID = sale.ID
		order.UpdatedAt = now
		return tx.UpdateOrder(ctx, *order)
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// buildItems snapshots product name and sell price for each requested line.
// When decrement is true it also verifies and consumes stock.
func buildItems(ctx context.Context, tx TxRepository, lines []SaleItemInput, decrement bool) ([]SaleItem, float64, error) {
	var items []SaleItem
	var subtotal float64
	for _, line := range lines {
		product, err := tx.GetProductForUpdate(ctx, line.ProductID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: product not found", httpx.ErrValidation)
		}
		if decrement {
			if product.Stock < line.Quantity {
				return nil, 0, fmt.Errorf("%w: %s has only %d in stock", httpx.ErrInsufficientStock, product.Name, product.Stock)
			}
			if err := tx.AdjustProductStock(ctx, product.ID, -line.Quantity); err != nil {
				return nil, 0, err
			}
		}
		item := SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Price:       product.SellPrice,
			Total:       product.SellPrice * float64(line.Quantity),
		}
		items = append(items, item)
		subtotal += item.Total
	}
	return items, subtotal, nil
}

func validateDistinctProducts(lines []SaleItemInput) error {
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if seen[line.ProductID] {
			return fmt.Errorf("%w: duplicate product line", httpx.ErrValidation)
		}
		seen[line.ProductID] = true
	}
	return nil
}
