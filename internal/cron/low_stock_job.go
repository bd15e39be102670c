package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/metrics"
)

type stockLister interface {
	ListStock(ctx context.Context, lowStockOnly bool) ([]inventory.StockDTO, error)
}

type LowStockJobParams struct {
	Logger    *logger.Logger
	Inventory stockLister
	Metrics   *metrics.JobMetrics
}

// NewLowStockJob reports ingredients at or below the low stock threshold.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Inventory == nil {
		return nil, errors.New("inventory service required")
	}
	return &lowStockJob{
		logg:      params.Logger,
		inventory: params.Inventory,
		metrics:   params.Metrics,
	}, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	inventory stockLister
	metrics   *metrics.JobMetrics
}

func (j *lowStockJob) Name() string { return "low-stock-report" }

func (j *lowStockJob) Run(ctx context.Context) error {
	rows, err := j.inventory.ListStock(ctx, true)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}
	for _, row := range rows {
		itemCtx := j.logg.WithFields(ctx, map[string]any{
			"ingredient_id":  row.IngredientID.String(),
			"ingredient":     row.Name,
			"stock_quantity": row.StockQuantity.String(),
			"unit":           string(row.Unit),
		})
		j.logg.Warn(itemCtx, "ingredient low on stock")
	}
	j.metrics.SetLowStock(len(rows))
	return nil
}
