package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "reports:monthly:2026")
	require.False(t, ok)

	cache.Set(ctx, "reports:monthly:2026", []byte(`{"year":2026}`), 5*time.Minute)
	data, ok := cache.Get(ctx, "reports:monthly:2026")
	require.True(t, ok)
	require.JSONEq(t, `{"year":2026}`, string(data))

	mr.FastForward(6 * time.Minute)
	_, ok = cache.Get(ctx, "reports:monthly:2026")
	require.False(t, ok)
}

func TestMonthlySummaryUsesCache(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &memoryRepo{
		sales: []SaleRecord{{Total: 100, CreatedAt: at(2026, time.February, 3, 9)}},
	}
	svc := NewService(repo, cache)
	svc.now = func() time.Time { return at(2026, time.August, 20, 10) }
	ctx := context.Background()

	first, err := svc.MonthlySummary(ctx)
	require.NoError(t, err)
	require.InDelta(t, 100.0, first.Months[1].SalesTotal, 0.0001)

	// New sales do not show up until the cache entry expires or is refreshed.
	repo.sales = append(repo.sales, SaleRecord{Total: 50, CreatedAt: at(2026, time.February, 4, 9)})
	cached, err := svc.MonthlySummary(ctx)
	require.NoError(t, err)
	require.InDelta(t, 100.0, cached.Months[1].SalesTotal, 0.0001)

	require.NoError(t, svc.RefreshMonthly(ctx))
	refreshed, err := svc.MonthlySummary(ctx)
	require.NoError(t, err)
	require.InDelta(t, 150.0, refreshed.Months[1].SalesTotal, 0.0001)
}
