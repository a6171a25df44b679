package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/hedoomy/backoffice/internal/catalog"
)

type sweepCatalog struct {
	products map[string]catalog.Product
	writes   int
}

func (m *sweepCatalog) WithTx(ctx context.Context, fn func(context.Context, catalog.Repository) error) error {
	return fn(ctx, m)
}

func (m *sweepCatalog) List(context.Context, catalog.ListFilters) ([]catalog.Product, int, error) {
	all, _ := m.ListAll(context.Background())
	return all, len(all), nil
}

func (m *sweepCatalog) ListAll(context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *sweepCatalog) ListByCategory(context.Context, string) ([]catalog.Product, error) {
	return nil, nil
}

func (m *sweepCatalog) ListByOfferID(context.Context, string) ([]catalog.Product, error) {
	return nil, nil
}

func (m *sweepCatalog) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *sweepCatalog) Create(_ context.Context, p catalog.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *sweepCatalog) Update(_ context.Context, p catalog.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *sweepCatalog) Delete(_ context.Context, id string) error {
	delete(m.products, id)
	return nil
}

func (m *sweepCatalog) CompareAndSwapStock(_ context.Context, id string, version int64, variants []catalog.Variant, totalStock int) error {
	p, ok := m.products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if p.Version != version {
		return catalog.ErrVersionConflict
	}
	p.Variants = variants
	p.TotalStock = totalStock
	p.Version++
	m.products[id] = p
	m.writes++
	return nil
}

func (m *sweepCatalog) UpdateOfferPricing(context.Context, string, float64, *float64, *string) error {
	return nil
}

func (m *sweepCatalog) ListCategories(context.Context) ([]catalog.Category, error) { return nil, nil }
func (m *sweepCatalog) CreateCategory(context.Context, catalog.Category) error    { return nil }
func (m *sweepCatalog) DeleteCategory(context.Context, string) error              { return nil }

func consistencyTask(t *testing.T) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(StockConsistencyPayload{ScheduledFor: time.Now().UTC()})
	require.NoError(t, err)
	return asynq.NewTask(TaskStockConsistency, body)
}

func TestStockConsistencyRepairsDrift(t *testing.T) {
	repo := &sweepCatalog{products: map[string]catalog.Product{
		"ok": {
			ID:         "ok",
			Variants:   []catalog.Variant{{ID: "red-m", Stock: 4}, {ID: "red-l", Stock: 6}},
			TotalStock: 10,
			Version:    1,
		},
		"drifted": {
			ID:         "drifted",
			Variants:   []catalog.Variant{{ID: "red-m", Stock: 3}},
			TotalStock: 9,
			Version:    1,
		},
	}}

	handler := NewStockConsistencyHandler(repo, slog.New(slog.DiscardHandler))
	require.NoError(t, handler(context.Background(), consistencyTask(t)))

	require.Equal(t, 1, repo.writes)
	require.Equal(t, 3, repo.products["drifted"].TotalStock)
	require.Equal(t, 10, repo.products["ok"].TotalStock)
}

func TestStockConsistencyBadPayloadSkipsRetry(t *testing.T) {
	repo := &sweepCatalog{products: map[string]catalog.Product{}}
	handler := NewStockConsistencyHandler(repo, slog.New(slog.DiscardHandler))

	err := handler(context.Background(), asynq.NewTask(TaskStockConsistency, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
