package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dentastock/dentastock/internal/platform/httpx"
)

type memoryRepo struct {
	products map[string]Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]Product)}
}

func (r *memoryRepo) ListProducts(ctx context.Context, search string) ([]Product, error) {
	var out []Product
	for _, product := range r.products {
		if search == "" || strings.Contains(strings.ToLower(product.Name), strings.ToLower(search)) {
			out = append(out, product)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id string) (*Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &product, nil
}

func (r *memoryRepo) GetProductByCode(ctx context.Context, code string) (*Product, error) {
	for _, product := range r.products {
		if product.Code == code {
			return &product, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (r *memoryRepo) CreateProduct(ctx context.Context, product Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, product Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return httpx.ErrNotFound
	}
	r.products[product.ID] = product
	return nil
}

func (r *memoryRepo) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, product := range r.products {
		if product.IsLowStock() {
			out = append(out, product)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListExpiring(ctx context.Context, cutoff time.Time) ([]Product, error) {
	var out []Product
	for _, product := range r.products {
		if product.ExpiresBy(cutoff) {
			out = append(out, product)
		}
	}
	return out, nil
}

func TestCreateProductNormalizesCodeAndName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Code:      "  comp-a2 ",
		Name:      "  Composite Filling A2  ",
		SellPrice: 24,
	})
	require.NoError(t, err)
	require.Equal(t, "COMP-A2", product.Code)
	require.Equal(t, "Composite Filling A2", product.Name)
}

func TestCreateProductNameIsNFCNormalized(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	// "e" followed by a combining acute accent normalizes to a single rune.
	decomposed := "Cure\u0301 Light"
	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Code: "CURE-1",
		Name: decomposed,
	})
	require.NoError(t, err)
	require.Equal(t, "Cur\u00e9 Light", product.Name)
	require.NotEqual(t, decomposed, product.Name)
}

func TestCreateProductRejectsDuplicateCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Code: "GLV-M", Name: "Nitrile Gloves M"})
	require.NoError(t, err)

	// Same code in a different case is still a duplicate.
	_, err = svc.CreateProduct(ctx, ProductInput{Code: "glv-m", Name: "Other Gloves"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateProductAllowsKeepingOwnCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, ProductInput{Code: "GLV-M", Name: "Nitrile Gloves M"})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, product.ID, ProductInput{
		Code: "GLV-M", Name: "Nitrile Gloves M (100pc)", SellPrice: 7.5,
	})
	require.NoError(t, err)
	require.Equal(t, "Nitrile Gloves M (100pc)", updated.Name)

	other, err := svc.CreateProduct(ctx, ProductInput{Code: "GLV-L", Name: "Nitrile Gloves L"})
	require.NoError(t, err)

	_, err = svc.UpdateProduct(ctx, other.ID, ProductInput{Code: "GLV-M", Name: "Nitrile Gloves L"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestProductExpiryDateIsOptional(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	product, err := svc.CreateProduct(ctx, ProductInput{
		Code: "LIDO-2", Name: "Lidocaine 2% Cartridge", ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	require.NotNil(t, product.ExpiryDate)
	require.True(t, expiry.Equal(*product.ExpiryDate))

	// Clearing the date on edit removes it.
	updated, err := svc.UpdateProduct(ctx, product.ID, ProductInput{
		Code: "LIDO-2", Name: "Lidocaine 2% Cartridge",
	})
	require.NoError(t, err)
	require.Nil(t, updated.ExpiryDate)

	durable, err := svc.CreateProduct(ctx, ProductInput{Code: "BUR-12", Name: "Diamond Bur D12"})
	require.NoError(t, err)
	require.Nil(t, durable.ExpiryDate)
}

func TestListExpiring(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	soon := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	later := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	expiring, err := svc.CreateProduct(ctx, ProductInput{
		Code: "LIDO-2", Name: "Lidocaine 2% Cartridge", ExpiryDate: &soon,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, ProductInput{
		Code: "COMP-A2", Name: "Composite Filling A2", ExpiryDate: &later,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, ProductInput{Code: "BUR-12", Name: "Diamond Bur D12"})
	require.NoError(t, err)

	flagged, err := svc.ListExpiring(ctx, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.Equal(t, expiring.ID, flagged[0].ID)

	// The cutoff itself is inclusive.
	flagged, err = svc.ListExpiring(ctx, soon)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
}

func TestListLowStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Code: "A", Name: "Plenty", Stock: 50, MinStock: 10})
	require.NoError(t, err)
	low, err := svc.CreateProduct(ctx, ProductInput{Code: "B", Name: "At minimum", Stock: 10, MinStock: 10})
	require.NoError(t, err)
	out, err := svc.CreateProduct(ctx, ProductInput{Code: "C", Name: "Out", Stock: 0, MinStock: 5})
	require.NoError(t, err)

	flagged, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 2)

	ids := []string{flagged[0].ID, flagged[1].ID}
	require.ElementsMatch(t, []string{low.ID, out.ID}, ids)
}
