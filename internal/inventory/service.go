package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/metrics"
	"github.com/tableside/pos-backend/pkg/outbox"
	"github.com/tableside/pos-backend/pkg/outbox/payloads"
)

// Service exposes stock reads and manual restocks.
type Service interface {
	Restock(ctx context.Context, ingredientID uuid.UUID, quantity decimal.Decimal) (*StockDTO, error)
	ListStock(ctx context.Context, lowStockOnly bool) ([]StockDTO, error)
	ListMovements(ctx context.Context, filters MovementFilters) ([]MovementDTO, error)
}

// StockDTO is the API shape of an ingredient's stock.
type StockDTO struct {
	IngredientID  uuid.UUID            `json:"ingredient_id"`
	Name          string               `json:"name,omitempty"`
	Unit          enums.IngredientUnit `json:"unit,omitempty"`
	StockQuantity decimal.Decimal      `json:"stock_quantity"`
	LowStock      bool                 `json:"low_stock"`
}

// MovementDTO is the API shape of one audit row.
type MovementDTO struct {
	ID           uuid.UUID                   `json:"id"`
	IngredientID uuid.UUID                   `json:"ingredient_id"`
	OrderItemID  *uuid.UUID                  `json:"order_item_id,omitempty"`
	Kind         enums.InventoryMovementKind `json:"kind"`
	Delta        decimal.Decimal             `json:"delta"`
	CreatedAt    time.Time                   `json:"created_at"`
}

type service struct {
	repo              Repository
	tx                txRunner
	outbox            outbox.Emitter
	lowStockThreshold decimal.Decimal
	metrics           *metrics.POSMetrics
	logg              *logger.Logger
	now               func() time.Time
}

// NewService constructs the inventory service. lowStockThreshold is the
// inclusive stock level at or below which an ingredient is flagged.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, lowStockThreshold decimal.Decimal, m *metrics.POSMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if lowStockThreshold.IsNegative() {
		return nil, fmt.Errorf("low stock threshold cannot be negative")
	}
	return &service{
		repo:              repo,
		tx:                tx,
		outbox:            emitter,
		lowStockThreshold: lowStockThreshold,
		metrics:           m,
		logg:              logg,
		now:               func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Restock(ctx context.Context, ingredientID uuid.UUID, quantity decimal.Decimal) (*StockDTO, error) {
	if ingredientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient_id is required")
	}
	if !quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !models.FitsQuantityColumn(quantity) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity allows at most %d decimal places and %d integer digits",
			models.QuantityScale, models.QuantityIntegerDigits)
	}

	var remaining decimal.Decimal
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		records, err := txRepo.LockRecords(ctx, []uuid.UUID{ingredientID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock inventory")
		}

		if len(records) == 0 {
			exists, err := txRepo.IngredientExists(ctx, ingredientID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load ingredient")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
			}
			if err := txRepo.CreateRecord(ctx, &models.InventoryRecord{IngredientID: ingredientID, StockQuantity: quantity}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory")
			}
			remaining = quantity
		} else {
			if err := txRepo.ApplyDelta(ctx, ingredientID, quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update inventory")
			}
			remaining = records[0].StockQuantity.Add(quantity)
		}

		movement := models.InventoryMovement{
			ID:           uuid.New(),
			IngredientID: ingredientID,
			Kind:         enums.MovementRestock,
			Delta:        quantity,
			CreatedAt:    s.now(),
		}
		if err := txRepo.InsertMovements(ctx, []models.InventoryMovement{movement}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory movement")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryRestocked,
			AggregateType: enums.AggregateIngredient,
			AggregateID:   ingredientID,
			Data: payloads.InventoryRestockedEvent{
				IngredientID: ingredientID,
				Delta:        quantity.String(),
				Remaining:    remaining.String(),
			},
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock ingredient")
	}

	s.metrics.IncRestock()
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"ingredient_id": ingredientID.String(),
			"delta":         quantity.String(),
			"remaining":     remaining.String(),
		})
		s.logg.Info(logCtx, "inventory.restocked")
	}

	return &StockDTO{
		IngredientID:  ingredientID,
		StockQuantity: remaining,
		LowStock:      remaining.LessThanOrEqual(s.lowStockThreshold),
	}, nil
}

func (s *service) ListStock(ctx context.Context, lowStockOnly bool) ([]StockDTO, error) {
	var filters StockFilters
	if lowStockOnly {
		threshold := s.lowStockThreshold
		filters.MaxQuantity = &threshold
	}
	rows, err := s.repo.ListStock(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	out := make([]StockDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, StockDTO{
			IngredientID:  row.IngredientID,
			Name:          row.Name,
			Unit:          row.Unit,
			StockQuantity: row.StockQuantity,
			LowStock:      row.StockQuantity.LessThanOrEqual(s.lowStockThreshold),
		})
	}
	return out, nil
}

func (s *service) ListMovements(ctx context.Context, filters MovementFilters) ([]MovementDTO, error) {
	if filters.Limit > 500 {
		filters.Limit = 500
	}
	rows, err := s.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory movements")
	}
	out := make([]MovementDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MovementDTO{
			ID:           row.ID,
			IngredientID: row.IngredientID,
			OrderItemID:  row.OrderItemID,
			Kind:         row.Kind,
			Delta:        row.Delta,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}
