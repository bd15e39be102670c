package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db"
	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/metrics"
	"github.com/tableside/pos-backend/pkg/outbox/payloads"
)

// ItemRef identifies the order item whose stock is being moved.
type ItemRef struct {
	ItemID   uuid.UUID
	DishID   uuid.UUID
	Quantity int
}

// Deductor consumes and returns recipe ingredients for served order items.
// Every call runs inside the caller's transaction.
type Deductor struct {
	repo        Repository
	recipes     RecipeSource
	globalCheck bool
	metrics     *metrics.POSMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// DeductorOption customises a Deductor.
type DeductorOption func(*Deductor)

// WithGlobalCheck makes every deduction verify the whole inventory table
// instead of only the rows it touched.
func WithGlobalCheck(enabled bool) DeductorOption {
	return func(d *Deductor) { d.globalCheck = enabled }
}

func WithDeductorMetrics(m *metrics.POSMetrics) DeductorOption {
	return func(d *Deductor) { d.metrics = m }
}

func WithDeductorLogger(logg *logger.Logger) DeductorOption {
	return func(d *Deductor) { d.logg = logg }
}

func WithDeductorClock(now func() time.Time) DeductorOption {
	return func(d *Deductor) { d.now = now }
}

// NewDeductor builds a deductor. The global check is on by default.
func NewDeductor(repo Repository, recipes RecipeSource, opts ...DeductorOption) (*Deductor, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if recipes == nil {
		return nil, fmt.Errorf("recipe source required")
	}
	d := &Deductor{
		repo:        repo,
		recipes:     recipes,
		globalCheck: true,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Deduct consumes quantity_needed x item quantity of every recipe ingredient.
// A missing inventory row counts as zero stock. When any ingredient would go
// negative nothing is written and the call fails with CodeInsufficientStock.
func (d *Deductor) Deduct(ctx context.Context, tx *gorm.DB, item ItemRef) ([]payloads.StockChange, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if item.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	recipe, err := d.recipes.RecipeFor(ctx, tx, item.DishID)
	if err != nil {
		return nil, err
	}
	required := make(map[uuid.UUID]decimal.Decimal, len(recipe))
	qty := decimal.NewFromInt(int64(item.Quantity))
	for _, entry := range recipe {
		required[entry.IngredientID] = required[entry.IngredientID].Add(entry.QuantityNeeded.Mul(qty))
	}

	deltas := make(map[uuid.UUID]decimal.Decimal, len(required))
	for id, amount := range required {
		deltas[id] = amount.Neg()
	}
	return d.apply(ctx, tx, item, enums.MovementDeduction, deltas)
}

// Reverse returns whatever is still deducted for the item, based on its
// recorded movements. Recipe edits made after serving do not change the
// amount returned.
func (d *Deductor) Reverse(ctx context.Context, tx *gorm.DB, item ItemRef) ([]payloads.StockChange, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	movements, err := d.repo.WithTx(tx).MovementsForItem(ctx, item.ItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item movements")
	}

	net := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range movements {
		net[m.IngredientID] = net[m.IngredientID].Add(m.Delta)
	}
	deltas := make(map[uuid.UUID]decimal.Decimal, len(net))
	for id, amount := range net {
		if amount.IsNegative() {
			deltas[id] = amount.Neg()
		}
	}
	return d.apply(ctx, tx, item, enums.MovementReversal, deltas)
}

func (d *Deductor) apply(ctx context.Context, tx *gorm.DB, item ItemRef, kind enums.InventoryMovementKind, deltas map[uuid.UUID]decimal.Decimal) ([]payloads.StockChange, error) {
	if len(deltas) == 0 {
		return nil, nil
	}
	txRepo := d.repo.WithTx(tx)

	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	ids = sortedIDs(ids)

	records, err := txRepo.LockRecords(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock inventory")
	}
	current := make(map[uuid.UUID]decimal.Decimal, len(records))
	for _, rec := range records {
		current[rec.IngredientID] = rec.StockQuantity
	}

	var short []uuid.UUID
	changes := make([]payloads.StockChange, 0, len(ids))
	for _, id := range ids {
		stock, ok := current[id]
		remaining := stock.Add(deltas[id])
		if !ok || remaining.IsNegative() {
			short = append(short, id)
			continue
		}
		changes = append(changes, payloads.StockChange{
			IngredientID: id,
			Delta:        deltas[id].String(),
			Remaining:    remaining.String(),
		})
	}
	if len(short) > 0 {
		return nil, d.insufficient(ctx, item, short)
	}

	now := d.now()
	itemID := item.ItemID
	movements := make([]models.InventoryMovement, 0, len(ids))
	for _, id := range ids {
		if err := txRepo.ApplyDelta(ctx, id, deltas[id]); err != nil {
			if db.IsCheckViolation(err) {
				return nil, d.insufficient(ctx, item, []uuid.UUID{id})
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, d.insufficient(ctx, item, []uuid.UUID{id})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update inventory")
		}
		movements = append(movements, models.InventoryMovement{
			ID:           uuid.New(),
			IngredientID: id,
			OrderItemID:  &itemID,
			Kind:         kind,
			Delta:        deltas[id],
			CreatedAt:    now,
		})
	}
	if err := txRepo.InsertMovements(ctx, movements); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory movements")
	}

	if kind == enums.MovementDeduction {
		scope := ids
		if d.globalCheck {
			scope = nil
		}
		negative, err := txRepo.FindNegative(ctx, scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: verify inventory")
		}
		if len(negative) > 0 {
			return nil, d.insufficient(ctx, item, negative)
		}
	}
	return changes, nil
}

func (d *Deductor) insufficient(ctx context.Context, item ItemRef, ingredientIDs []uuid.UUID) error {
	sort.Slice(ingredientIDs, func(i, j int) bool { return ingredientIDs[i].String() < ingredientIDs[j].String() })
	ids := make([]string, 0, len(ingredientIDs))
	for _, id := range ingredientIDs {
		ids = append(ids, id.String())
	}

	d.metrics.IncInsufficientStock()
	if d.logg != nil {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"item_id":        item.ItemID.String(),
			"dish_id":        item.DishID.String(),
			"ingredient_ids": ids,
		})
		d.logg.Warn(logCtx, "inventory.insufficient")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{"ingredient_ids": ids})
}
