package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	topProductsLimit  = 10
	lowStockThreshold = 5
)

// Service aggregates the dashboard. The five underlying queries fan out
// concurrently and the assembled payload is cached briefly in redis, since
// the dashboard is polled far more often than the data moves.
type Service struct {
	repo     Repository
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewService builds Service. redis may be nil, which disables caching.
func NewService(repo Repository, redisClient *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{repo: repo, redis: redisClient, cacheTTL: cacheTTL}
}

// Dashboard returns the aggregated stats over the trailing window.
func (s *Service) Dashboard(ctx context.Context, days int) (Dashboard, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	key := fmt.Sprintf("analytics:dashboard:%d", days)
	if s.redis != nil {
		payload, err := s.redis.Get(ctx, key).Bytes()
		if err == nil {
			var cached Dashboard
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var dashboard Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dashboard.Summary, err = s.repo.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.Revenue, err = s.repo.RevenueByDay(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.StatusCounts, err = s.repo.StatusCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.TopProducts, err = s.repo.TopProducts(gctx, topProductsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.LowStock, err = s.repo.LowStock(gctx, lowStockThreshold)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("analytics: build dashboard: %w", err)
	}
	dashboard.GeneratedAt = time.Now().UTC()

	if s.redis != nil {
		if payload, err := json.Marshal(dashboard); err == nil {
			_ = s.redis.Set(ctx, key, payload, s.cacheTTL).Err()
		}
	}
	return dashboard, nil
}
