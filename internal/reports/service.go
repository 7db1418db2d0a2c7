package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dentastock/dentastock/internal/platform/httpx"
)

// RepositoryPort abstracts the read queries the reports need.
type RepositoryPort interface {
	ListSales(ctx context.Context, from, to time.Time) ([]SaleRecord, error)
	ListCompletedPurchases(ctx context.Context, from, to time.Time) ([]PurchaseRecord, error)
}

// Service computes report aggregates. The monthly summary is cached and
// deduplicated with singleflight since every dashboard load asks for it.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewService builds Service. cache may be nil to disable caching.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

const monthlyCacheTTL = 5 * time.Minute

// MonthlySummary returns per-month sales and completed purchase totals for
// the current calendar year.
func (s *Service) MonthlySummary(ctx context.Context) (*MonthlySummary, error) {
	year := s.now().UTC().Year()
	key := fmt.Sprintf("reports:monthly:%d", year)

	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			var summary MonthlySummary
			if err := json.Unmarshal(data, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		summary, err := s.computeMonthly(ctx, year)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if data, err := json.Marshal(summary); err == nil {
				s.cache.Set(ctx, key, data, monthlyCacheTTL)
			}
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*MonthlySummary), nil
}

// RefreshMonthly recomputes the summary and overwrites the cache. Used by
// the background warmup job.
func (s *Service) RefreshMonthly(ctx context.Context) error {
	year := s.now().UTC().Year()
	summary, err := s.computeMonthly(ctx, year)
	if err != nil {
		return err
	}
	if s.cache != nil {
		data, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		s.cache.Set(ctx, fmt.Sprintf("reports:monthly:%d", year), data, monthlyCacheTTL)
	}
	return nil
}

func (s *Service) computeMonthly(ctx context.Context, year int) (*MonthlySummary, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)

	salesRecords, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	purchases, err := s.repo.ListCompletedPurchases(ctx, from, to)
	if err != nil {
		return nil, err
	}

	months := make([]MonthlyBucket, 12)
	for i := range months {
		months[i].Month = i
	}
	for _, record := range salesRecords {
		months[int(record.CreatedAt.UTC().Month())-1].SalesTotal += record.Total
	}
	for _, record := range purchases {
		months[int(record.CreatedAt.UTC().Month())-1].PurchasesTotal += record.Total
	}

	return &MonthlySummary{Year: year, Months: months}, nil
}

// RangeReport breaks down sales between two dates inclusive. The window is
// widened to whole days: from midnight on the first day to the last moment
// of the second.
func (s *Service) RangeReport(ctx context.Context, from, to time.Time) (*RangeReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date precedes start date", httpx.ErrValidation)
	}
	start := startOfDay(from)
	end := endOfDay(to)

	records, err := s.repo.ListSales(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &RangeReport{From: start, To: end}
	productIdx := make(map[string]int)
	customerIdx := make(map[string]int)

	for _, record := range records {
		report.InvoiceCount++
		report.TotalRevenue += record.Total

		for _, item := range record.Items {
			idx, ok := productIdx[item.ProductID]
			if !ok {
				idx = len(report.Products)
				productIdx[item.ProductID] = idx
				report.Products = append(report.Products, ProductBreakdown{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
				})
			}
			report.Products[idx].Quantity += item.Quantity
			report.Products[idx].Revenue += item.Total
		}

		idx, ok := customerIdx[record.CustomerID]
		if !ok {
			idx = len(report.Customers)
			customerIdx[record.CustomerID] = idx
			report.Customers = append(report.Customers, CustomerBreakdown{
				CustomerID:   record.CustomerID,
				CustomerName: record.CustomerName,
			})
		}
		report.Customers[idx].Revenue += record.Total
	}

	sort.SliceStable(report.Products, func(i, j int) bool {
		return report.Products[i].Revenue > report.Products[j].Revenue
	})
	sort.SliceStable(report.Customers, func(i, j int) bool {
		return report.Customers[i].Revenue > report.Customers[j].Revenue
	})

	return report, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}
