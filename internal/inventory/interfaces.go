package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
)

// Repository defines persistence operations for stock rows and movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockRecords(ctx context.Context, ingredientIDs []uuid.UUID) ([]models.InventoryRecord, error)
	CreateRecord(ctx context.Context, record *models.InventoryRecord) error
	ApplyDelta(ctx context.Context, ingredientID uuid.UUID, delta decimal.Decimal) error
	FindNegative(ctx context.Context, ingredientIDs []uuid.UUID) ([]uuid.UUID, error)
	InsertMovements(ctx context.Context, movements []models.InventoryMovement) error
	MovementsForItem(ctx context.Context, orderItemID uuid.UUID) ([]models.InventoryMovement, error)
	ListMovements(ctx context.Context, filters MovementFilters) ([]models.InventoryMovement, error)
	IngredientExists(ctx context.Context, ingredientID uuid.UUID) (bool, error)
	ListStock(ctx context.Context, filters StockFilters) ([]StockRow, error)
}

// StockFilters narrows ListStock. A nil MaxQuantity lists every ingredient.
type StockFilters struct {
	MaxQuantity *decimal.Decimal
}

// MovementFilters narrows ListMovements.
type MovementFilters struct {
	IngredientID *uuid.UUID
	OrderItemID  *uuid.UUID
	Limit        int
}

// StockRow joins an ingredient with its inventory record.
type StockRow struct {
	IngredientID  uuid.UUID            `gorm:"column:ingredient_id"`
	Name          string               `gorm:"column:name"`
	Unit          enums.IngredientUnit `gorm:"column:unit"`
	StockQuantity decimal.Decimal      `gorm:"column:stock_quantity"`
}

// RecipeSource resolves the recipe of a dish inside the caller's transaction.
type RecipeSource interface {
	RecipeFor(ctx context.Context, tx *gorm.DB, dishID uuid.UUID) ([]models.RecipeEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
