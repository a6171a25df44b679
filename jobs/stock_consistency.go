package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hedoomy/backoffice/internal/catalog"
)

const (
	// TaskStockConsistency triggers the nightly variant-stock audit.
	TaskStockConsistency = "stock:consistency"
)

// StockConsistencyPayload carries scheduling metadata.
type StockConsistencyPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockConsistencyTask constructs the periodic consistency task.
func NewStockConsistencyTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockConsistencyPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockConsistency, body, asynq.Queue(QueueDefault)), nil
}

// NewStockConsistencyHandler builds the handler that sweeps every product,
// recomputes totalStock from the variant list, and repairs any drift.
// The denormalized total is derived state; the variant list wins.
func NewStockConsistencyHandler(repo catalog.Repository, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload StockConsistencyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		products, err := repo.ListAll(ctx)
		if err != nil {
			return err
		}

		repaired := 0
		for _, p := range products {
			expected := catalog.SumStock(p.Variants)
			if p.TotalStock == expected {
				continue
			}
			logger.Warn("total stock drift",
				slog.String("product_id", p.ID),
				slog.Int("stored", p.TotalStock),
				slog.Int("computed", expected))
			if err := repo.CompareAndSwapStock(ctx, p.ID, p.Version, p.Variants, expected); err != nil {
				// A concurrent write means the product is being actively
				// maintained; the next sweep will catch it if still off.
				logger.Warn("repair skipped", slog.String("product_id", p.ID), slog.Any("error", err))
				continue
			}
			repaired++
		}

		logger.Info("stock consistency sweep done",
			slog.Int("products", len(products)),
			slog.Int("repaired", repaired))
		return nil
	}
}
