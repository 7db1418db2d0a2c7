package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dentastock/dentastock/internal/catalog"
)

// How far ahead the scan looks for products about to expire.
const expiryHorizon = 30 * 24 * time.Hour

// LowStockScanJob logs every product at or below its minimum stock, and
// every product expiring within the horizon, so the operators see restock
// and clearance candidates in the morning log review.
type LowStockScanJob struct {
	Catalog *catalog.Service
	Logger  *slog.Logger
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(catalogSvc *catalog.Service, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{Catalog: catalogSvc, Logger: logger}
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("low stock scan: handler not configured")
	}

	products, err := j.Catalog.ListLowStock(ctx)
	if err != nil {
		j.Logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	for _, product := range products {
		j.Logger.Warn("low stock",
			slog.String("code", product.Code),
			slog.String("name", product.Name),
			slog.Int("stock", product.Stock),
			slog.Int("min_stock", product.MinStock))
	}

	cutoff := time.Now().UTC().Add(expiryHorizon)
	expiring, err := j.Catalog.ListExpiring(ctx, cutoff)
	if err != nil {
		j.Logger.Error("expiry scan failed", slog.Any("error", err))
		return err
	}
	for _, product := range expiring {
		j.Logger.Warn("expiring product",
			slog.String("code", product.Code),
			slog.String("name", product.Name),
			slog.Time("expiry_date", *product.ExpiryDate),
			slog.Int("stock", product.Stock))
	}

	j.Logger.Info("stock scan done",
		slog.Int("low_stock", len(products)),
		slog.Int("expiring", len(expiring)))
	return nil
}
