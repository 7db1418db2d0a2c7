package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dentastock/dentastock/internal/catalog"
	"github.com/dentastock/dentastock/internal/partners"
	"github.com/dentastock/dentastock/internal/platform/httpx"
	"github.com/dentastock/dentastock/internal/sales"
	"github.com/dentastock/dentastock/internal/shared"
)

// Markup applied to the purchase price when receiving an unknown product.
const autoCreateMarkup = 1.25

// Review note stamped on auto-created products.
const autoCreateNote = "Auto-created from purchase order, review details before selling"

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListOrders(ctx context.Context) ([]PurchaseOrder, error)
	GetOrder(ctx context.Context, id string) (*PurchaseOrder, error)
	ListRequests(ctx context.Context) ([]PurchaseRequest, error)
	GetRequest(ctx context.Context, id string) (*PurchaseRequest, error)
}

// TxRepository exposes the operations available inside a transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id string) (*catalog.Product, error)
	AdjustProductStock(ctx context.Context, id string, delta int) error
	SetProductStock(ctx context.Context, id string, stock int) error
	CreateProduct(ctx context.Context, product catalog.Product) error
	GetSupplier(ctx context.Context, id string) (*partners.Partner, error)
	GetOrderForUpdate(ctx context.Context, id string) (*PurchaseOrder, error)
	CreateOrder(ctx context.Context, order PurchaseOrder) error
	UpdateOrder(ctx context.Context, order PurchaseOrder) error
	DeleteOrder(ctx context.Context, id string) error
	GetRequestForUpdate(ctx context.Context, id string) (*PurchaseRequest, error)
	CreateRequest(ctx context.Context, request PurchaseRequest) error
	UpdateRequest(ctx context.Context, request PurchaseRequest) error
	DeleteRequest(ctx context.Context, id string) error
}

// Service coordinates purchasing operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// OrderItemInput is one requested purchase line. Either an existing product
// is referenced by ID or a free-form name introduces a new one.
type OrderItemInput struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// OrderInput carries fields for creating or updating a purchase order.
type OrderInput struct {
	SupplierID string           `json:"supplierId" validate:"required"`
	Items      []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Notes      string           `json:"notes"`
}

// RequestItemInput is one requested restock line.
type RequestItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Reason    string `json:"reason"`
}

// RequestInput carries fields for creating or updating a purchase request.
type RequestInput struct {
	Items []RequestItemInput `json:"items" validate:"required,min=1,dive"`
	Notes string             `json:"notes"`
}

// ListOrders returns all purchase orders.
func (s *Service) ListOrders(ctx context.Context) ([]PurchaseOrder, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrder fetches one purchase order.
func (s *Service) GetOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// CreateOrder records a pending purchase order. Nothing is received yet.
func (s *Service) CreateOrder(ctx context.Context, input OrderInput) (*PurchaseOrder, error) {
	var order PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		supplier, err := tx.GetSupplier(ctx, input.SupplierID)
		if err != nil {
			return fmt.Errorf("%w: supplier not found", httpx.ErrValidation)
		}

		items, total, err := buildOrderItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		order = PurchaseOrder{
			ID:           uuid.NewString(),
			OrderNumber:  sales.NewOrderNumber("PO", now),
			SupplierID:   supplier.ID,
			SupplierName: supplier.Name,
			Items:        items,
			Total:        total,
			Status:       OrderStatusPending,
			Notes:        strings.TrimSpace(input.Notes),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder rewrites a pending order. Completed orders must be reopened
// first so the stock they received is rolled back.
func (s *Service) UpdateOrder(ctx context.Context, id string, input OrderInput) (*PurchaseOrder, error) {
	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return fmt.Errorf("%w: only pending orders can be edited", httpx.ErrInvalidStatus)
		}

		supplier, err := tx.GetSupplier(ctx, input.SupplierID)
		if err != nil {
			return fmt.Errorf("%w: supplier not found", httpx.ErrValidation)
		}

		items, total, err := buildOrderItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		order.SupplierID = supplier.ID
		order.SupplierName = supplier.Name
		order.Items = items
		order.Total = total
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

// CompleteOrder receives the goods. Known products gain stock; unknown
// lines create a catalog entry priced at the purchase price plus markup,
// flagged for review.
func (s *Service) CompleteOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return fmt.Errorf("%w: order %s is already %s", httpx.ErrInvalidStatus, order.OrderNumber, order.Status)
		}

		now := time.Now().UTC()
		for i, item := range order.Items {
			if item.ProductID != "" {
				if _, err := tx.GetProductForUpdate(ctx, item.ProductID); err == nil {
					if err := tx.AdjustProductStock(ctx, item.ProductID, item.Quantity); err != nil {
						return err
					}
					continue
				}
				// The referenced product was deleted between ordering and
				// receiving. Fall through and recreate it.
			}
			productID := uuid.NewString()
			product := catalog.Product{
				ID:            productID,
				Code:          "NEW-" + productID[:4],
				Name:          item.ProductName,
				Description:   autoCreateNote,
				PurchasePrice: item.Price,
				SellPrice:     item.Price * autoCreateMarkup,
				Stock:         item.Quantity,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.CreateProduct(ctx, product); err != nil {
				return err
			}
			order.Items[i].ProductID = productID
		}

		order.Status = OrderStatusCompleted
		order.UpdatedAt = now
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

// ReopenOrder reverts a completed order to pending and takes the received
// quantities back out of stock, clamping at zero when part of the goods
// were already sold.
func (s *Service) ReopenOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusCompleted {
			return fmt.Errorf("%w: order %s was never completed", httpx.ErrInvalidStatus, order.OrderNumber)
		}

		if err := revertReceivedStock(ctx, tx, order.Items); err != nil {
			return err
		}

		order.Status = OrderStatusPending
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

// CancelOrder calls an order off. Cancelling a completed order also takes
// the received quantities back out of stock, clamped at zero.
func (s *Service) CancelOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == OrderStatusCancelled {
			return fmt.Errorf("%w: order %s is already cancelled", httpx.ErrInvalidStatus, order.OrderNumber)
		}
		if order.Status == OrderStatusCompleted {
			if err := revertReceivedStock(ctx, tx, order.Items); err != nil {
				return err
			}
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

// DeleteOrder removes an order. Deleting a completed order also takes its
// received quantities back out of stock, clamped at zero.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == OrderStatusCompleted {
			if err := revertReceivedStock(ctx, tx, order.Items); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, id)
	})
}

// ListRequests returns purchase requests visible to the actor. Admins see
// everything; staff only see requests they raised themselves.
func (s *Service) ListRequests(ctx context.Context, actor shared.Actor) ([]PurchaseRequest, error) {
	requests, err := s.repo.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return requests, nil
	}
	var own []PurchaseRequest
	for _, request := range requests {
		if request.RequestedBy == actor.Username {
			own = append(own, request)
		}
	}
	return own, nil
}

// GetRequest fetches one purchase request.
func (s *Service) GetRequest(ctx context.Context, id string) (*PurchaseRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

// CreateRequest records a pending restock request.
func (s *Service) CreateRequest(ctx context.Context, actor shared.Actor, input RequestInput) (*PurchaseRequest, error) {
	var request PurchaseRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items, err := buildRequestItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		request = PurchaseRequest{
			ID:            uuid.NewString(),
			RequestNumber: sales.NewOrderNumber("PR", now),
			Items:         items,
			Notes:         strings.TrimSpace(input.Notes),
			Status:        RequestStatusPending,
			RequestedBy:   actor.Username,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.CreateRequest(ctx, request)
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateRequest rewrites a pending request.
func (s *Service) UpdateRequest(ctx context.Context, id string, input RequestInput) (*PurchaseRequest, error) {
	var updated PurchaseRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		request, err := tx.GetRequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Status != RequestStatusPending {
			return fmt.Errorf("%w: only pending requests can be edited", httpx.ErrInvalidStatus)
		}

		items, err := buildRequestItems(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		request.Items = items
		request.Notes = strings.TrimSpace(input.Notes)
		request.UpdatedAt = time.Now().UTC()

		if err := tx.UpdateRequest(ctx, *request); err != nil {
			return err
		}
		updated = *request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRequest removes a request that was not approved. Approved requests
// stay as the audit trail of their purchase order.
func (s *Service) DeleteRequest(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		request, err := tx.GetRequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Status == RequestStatusApproved {
			return fmt.Errorf("%w: approved requests cannot be deleted", httpx.ErrInvalidStatus)
		}
		return tx.DeleteRequest(ctx, id)
	})
}

// ApproveRequest accepts a pending request and spawns a pending purchase
// order priced at each product's current purchase price. The supplier is
// left open for purchasing to fill in; both documents back-link each other.
// Only admins decide requests.
func (s *Service) ApproveRequest(ctx context.Context, actor shared.Actor, id string) (*PurchaseRequest, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can approve purchase requests", httpx.ErrForbidden)
	}
	var updated PurchaseRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		request, err := tx.GetRequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Status != RequestStatusPending {
			return fmt.Errorf("%w: request %s is already %s", httpx.ErrInvalidStatus, request.RequestNumber, request.Status)
		}

		now := time.Now().UTC()
		var items []OrderItem
		var total float64
		for _, line := range request.Items {
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("%w: product %s no longer exists", httpx.ErrValidation, line.ProductName)
			}
			item := OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.PurchasePrice,
				Total:       product.PurchasePrice * float64(line.Quantity),
			}
			items = append(items, item)
			total += item.Total
		}

		order := PurchaseOrder{
			ID:          uuid.NewString(),
			OrderNumber: sales.NewOrderNumber("PO", now),
			Items:       items,
			Total:       total,
			Status:      OrderStatusPending,
			Notes:       "Created from purchase request " + request.RequestNumber,
			RequestID:   request.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		request.Status = RequestStatusApproved
		request.OrderID = order.ID
		request.UpdatedAt = now
		if err := tx.UpdateRequest(ctx, *request); err != nil {
			return err
		}
		updated = *request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RejectRequest declines a pending request. Only admins decide requests.
func (s *Service) RejectRequest(ctx context.Context, actor shared.Actor, id string) (*PurchaseRequest, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can reject purchase requests", httpx.ErrForbidden)
	}
	var updated PurchaseRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		request, err := tx.GetRequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Status != RequestStatusPending {
			return fmt.Errorf("%w: request %s is already %s", httpx.ErrInvalidStatus, request.RequestNumber, request.Status)
		}
		request.Status = RequestStatusRejected
		request.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateRequest(ctx, *request); err != nil {
			return err
		}
		updated = *request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func buildOrderItems(ctx context.Context, tx TxRepository, lines []OrderItemInput) ([]OrderItem, float64, error) {
	var items []OrderItem
	var total float64
	for _, line := range lines {
		name := strings.TrimSpace(line.ProductName)
		if line.ProductID != "" {
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: product not found", httpx.ErrValidation)
			}
			name = product.Name
		}
		if name == "" {
			return nil, 0, fmt.Errorf("%w: each line needs a product or a name", httpx.ErrValidation)
		}
		item := OrderItem{
			ProductID:   line.ProductID,
			ProductName: name,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Total:       line.Price * float64(line.Quantity),
		}
		items = append(items, item)
		total += item.Total
	}
	return items, total, nil
}

func buildRequestItems(ctx context.Context, tx TxRepository, lines []RequestItemInput) ([]RequestItem, error) {
	var items []RequestItem
	for _, line := range lines {
		product, err := tx.GetProductForUpdate(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product not found", httpx.ErrValidation)
		}
		items = append(items, RequestItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Reason:      strings.TrimSpace(line.Reason),
		})
	}
	return items, nil
}

// revertReceivedStock subtracts previously received quantities, never going
// below zero.
func revertReceivedStock(ctx context.Context, tx TxRepository, items []OrderItem) error {
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		product, err := tx.GetProductForUpdate(ctx, item.ProductID)
		if err != nil {
			// Product removed since receipt, nothing left to revert.
			continue
		}
		stock := product.Stock - item.Quantity
		if stock < 0 {
			stock = 0
		}
		if err := tx.SetProductStock(ctx, product.ID, stock); err != nil {
			return err
		}
	}
	return nil
}
