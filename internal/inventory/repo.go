package inventory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tableside/pos-backend/pkg/db/models"
)

const defaultMovementLimit = 100

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockRecords takes row locks on the requested inventory rows in ascending
// ingredient id order, so two transactions touching overlapping recipes
// always queue in the same order.
func (r *repository) LockRecords(ctx context.Context, ingredientIDs []uuid.UUID) ([]models.InventoryRecord, error) {
	if len(ingredientIDs) == 0 {
		return nil, nil
	}
	ids := sortedIDs(ingredientIDs)

	var records []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ingredient_id IN ?", ids).
		Order("ingredient_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ApplyDelta(ctx context.Context, ingredientID uuid.UUID, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("ingredient_id = ?", ingredientID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindNegative lists inventory rows below zero. An empty id list scans the
// whole table.
func (r *repository) FindNegative(ctx context.Context, ingredientIDs []uuid.UUID) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("stock_quantity < 0")
	if len(ingredientIDs) > 0 {
		query = query.Where("ingredient_id IN ?", ingredientIDs)
	}
	var ids []uuid.UUID
	if err := query.Order("ingredient_id ASC").Pluck("ingredient_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) InsertMovements(ctx context.Context, movements []models.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&movements).Error
}

func (r *repository) MovementsForItem(ctx context.Context, orderItemID uuid.UUID) ([]models.InventoryMovement, error) {
	var movements []models.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("created_at ASC, id ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) ListMovements(ctx context.Context, filters MovementFilters) ([]models.InventoryMovement, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	query := r.db.WithContext(ctx).Model(&models.InventoryMovement{})
	if filters.IngredientID != nil {
		query = query.Where("ingredient_id = ?", *filters.IngredientID)
	}
	if filters.OrderItemID != nil {
		query = query.Where("order_item_id = ?", *filters.OrderItemID)
	}

	var movements []models.InventoryMovement
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) IngredientExists(ctx context.Context, ingredientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id = ?", ingredientID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListStock(ctx context.Context, filters StockFilters) ([]StockRow, error) {
	query := r.db.WithContext(ctx).
		Table("ingredients AS i").
		Select("i.id AS ingredient_id, i.name, i.unit, COALESCE(inv.stock_quantity, 0) AS stock_quantity").
		Joins("LEFT JOIN inventory AS inv ON inv.ingredient_id = i.id")
	if filters.MaxQuantity != nil {
		query = query.Where("COALESCE(inv.stock_quantity, 0) <= CAST(? AS NUMERIC)", *filters.MaxQuantity)
	}

	var rows []StockRow
	if err := query.Order("i.name ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
