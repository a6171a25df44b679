package analytics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	calls atomic.Int64
}

func (s *stubRepo) RevenueByDay(context.Context, time.Time) ([]RevenuePoint, error) {
	s.calls.Add(1)
	return []RevenuePoint{{Day: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Revenue: 350, Orders: 1}}, nil
}

func (s *stubRepo) StatusCounts(context.Context) (map[string]int, error) {
	s.calls.Add(1)
	return map[string]int{"pending": 2, "delivered": 5}, nil
}

func (s *stubRepo) TopProducts(context.Context, int) ([]ProductSales, error) {
	s.calls.Add(1)
	return []ProductSales{{ProductID: "p1", Title: "Tee", Units: 7, Revenue: 700}}, nil
}

func (s *stubRepo) LowStock(context.Context, int) ([]LowStockVariant, error) {
	s.calls.Add(1)
	return []LowStockVariant{{ProductID: "p1", Title: "Tee", VariantID: "red-m", Stock: 2}}, nil
}

func (s *stubRepo) Summary(context.Context) (Summary, error) {
	s.calls.Add(1)
	return Summary{TotalRevenue: 1050, TotalOrders: 7, PendingOrders: 2, TotalProducts: 3}, nil
}

func TestDashboardAggregates(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, time.Minute)

	dashboard, err := svc.Dashboard(context.Background(), 30)
	require.NoError(t, err)

	require.Equal(t, 1050.0, dashboard.Summary.TotalRevenue)
	require.Len(t, dashboard.Revenue, 1)
	require.Equal(t, 2, dashboard.StatusCounts["pending"])
	require.Equal(t, "p1", dashboard.TopProducts[0].ProductID)
	require.Equal(t, "red-m", dashboard.LowStock[0].VariantID)
	require.False(t, dashboard.GeneratedAt.IsZero())
	require.EqualValues(t, 5, repo.calls.Load())
}

func TestDashboardCachesPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stubRepo{}
	svc := NewService(repo, client, time.Minute)

	first, err := svc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	require.EqualValues(t, 5, repo.calls.Load())

	second, err := svc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	require.EqualValues(t, 5, repo.calls.Load(), "second call should hit the cache")
	require.Equal(t, first.Summary, second.Summary)

	// A different window is a different key.
	_, err = svc.Dashboard(context.Background(), 7)
	require.NoError(t, err)
	require.EqualValues(t, 10, repo.calls.Load())
}

func TestDashboardClampsWindow(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, time.Minute)

	_, err := svc.Dashboard(context.Background(), -3)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), 4000)
	require.NoError(t, err)
}
