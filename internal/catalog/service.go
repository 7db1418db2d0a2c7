package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/dentastock/dentastock/internal/platform/httpx"
)

// RepositoryPort abstracts product persistence for the service.
type RepositoryPort interface {
	ListProducts(ctx context.Context, search string) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductByCode(ctx context.Context, code string) (*Product, error)
	CreateProduct(ctx context.Context, product Product) error
	UpdateProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListLowStock(ctx context.Context) ([]Product, error)
	ListExpiring(ctx context.Context, cutoff time.Time) ([]Product, error)
}

// Service coordinates product master operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ProductInput carries fields for creating or updating a product.
type ProductInput struct {
	Code          string     `json:"code" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	PurchasePrice float64    `json:"purchasePrice" validate:"gte=0"`
	SellPrice     float64    `json:"sellPrice" validate:"gte=0"`
	Stock         int        `json:"stock" validate:"gte=0"`
	MinStock      int        `json:"minStock" validate:"gte=0"`
	ExpiryDate    *time.Time `json:"expiryDate"`
}

// ListProducts returns products, optionally filtered by a search term over
// name, code and category.
func (s *Service) ListProducts(ctx context.Context, search string) ([]Product, error) {
	return s.repo.ListProducts(ctx, strings.TrimSpace(search))
}

// GetProduct fetches a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListLowStock returns products whose stock is at or below their minimum.
func (s *Service) ListLowStock(ctx context.Context) ([]Product, error) {
	return s.repo.ListLowStock(ctx)
}

// ListExpiring returns products whose expiry date falls on or before the
// cutoff. Products without an expiry date are never reported.
func (s *Service) ListExpiring(ctx context.Context, cutoff time.Time) ([]Product, error) {
	return s.repo.ListExpiring(ctx, cutoff)
}

// CreateProduct registers a new product. Codes are unique.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if existing, err := s.repo.GetProductByCode(ctx, code); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: product code %q already exists", httpx.ErrDuplicate, code)
	}

	now := time.Now().UTC()
	product := Product{
		ID:            uuid.NewString(),
		Code:          code,
		Name:          normalizeName(input.Name),
		Description:   strings.TrimSpace(input.Description),
		Category:      strings.TrimSpace(input.Category),
		PurchasePrice: input.PurchasePrice,
		SellPrice:     input.SellPrice,
		Stock:         input.Stock,
		MinStock:      input.MinStock,
		ExpiryDate:    input.ExpiryDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct modifies an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id string, input ProductInput) (*Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code != product.Code {
		if existing, err := s.repo.GetProductByCode(ctx, code); err == nil && existing != nil {
			return nil, fmt.Errorf("%w: product code %q already exists", httpx.ErrDuplicate, code)
		}
	}

	product.Code = code
	product.Name = normalizeName(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.Category = strings.TrimSpace(input.Category)
	product.PurchasePrice = input.PurchasePrice
	product.SellPrice = input.SellPrice
	product.Stock = input.Stock
	product.MinStock = input.MinStock
	product.ExpiryDate = input.ExpiryDate
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProduct(ctx, *product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// normalizeName applies NFC so names pasted from supplier catalogs compare
// and search consistently regardless of the source encoding form.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
