package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository interface {
	RevenueByDay(ctx context.Context, since time.Time) ([]RevenuePoint, error)
	StatusCounts(ctx context.Context) (map[string]int, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockVariant, error)
	Summary(ctx context.Context) (Summary, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed analytics repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) RevenueByDay(ctx context.Context, since time.Time) ([]RevenuePoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COALESCE(SUM((totals->>'total')::numeric), 0),
		       COUNT(*)
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1
		GROUP BY day
		ORDER BY day ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Day, &p.Revenue, &p.Orders); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *repository) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *repository) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT item->>'productId',
		       item->>'title',
		       SUM((item->>'qty')::int) AS units,
		       SUM((item->>'price')::numeric * (item->>'qty')::int)
		FROM orders, jsonb_array_elements(items) AS item
		WHERE status <> 'cancelled'
		GROUP BY 1, 2
		ORDER BY units DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []ProductSales
	for rows.Next() {
		var s ProductSales
		if err := rows.Scan(&s.ProductID, &s.Title, &s.Units, &s.Revenue); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *repository) LowStock(ctx context.Context, threshold int) ([]LowStockVariant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.title, v->>'id', (v->>'stock')::int AS stock
		FROM products p, jsonb_array_elements(p.variants) AS v
		WHERE p.status = 'active' AND (v->>'stock')::int <= $1
		ORDER BY stock ASC, p.title ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []LowStockVariant
	for rows.Next() {
		var v LowStockVariant
		if err := rows.Scan(&v.ProductID, &v.Title, &v.VariantID, &v.Stock); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *repository) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE((SELECT SUM((totals->>'total')::numeric) FROM orders WHERE status <> 'cancelled'), 0),
		       (SELECT COUNT(*) FROM orders),
		       (SELECT COUNT(*) FROM orders WHERE status = 'pending'),
		       (SELECT COUNT(*) FROM products)`).
		Scan(&s.TotalRevenue, &s.TotalOrders, &s.PendingOrders, &s.TotalProducts)
	return s, err
}
