package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/pos-backend/pkg/enums"
)

// Quantity columns are numeric(14,3).
const (
	QuantityScale         = 3
	QuantityIntegerDigits = 11
)

var quantityCeiling = decimal.New(1, QuantityIntegerDigits)

// FitsQuantityColumn reports whether d is stored without rounding or overflow.
func FitsQuantityColumn(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(QuantityScale)) && d.Abs().LessThan(quantityCeiling)
}

type Ingredient struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name      string               `gorm:"column:name;not null;uniqueIndex"`
	Unit      enums.IngredientUnit `gorm:"column:unit;type:varchar(8);not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (Ingredient) TableName() string { return "ingredients" }

// InventoryRecord holds the stock of one ingredient. StockQuantity must never
// be negative at a commit point.
type InventoryRecord struct {
	IngredientID  uuid.UUID       `gorm:"column:ingredient_id;type:uuid;primaryKey"`
	StockQuantity decimal.Decimal `gorm:"column:stock_quantity;type:numeric(14,3);not null;check:chk_inventory_stock_non_negative,stock_quantity >= 0"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryRecord) TableName() string { return "inventory" }

// RecipeEntry is the quantity of an ingredient consumed by one unit of a dish.
type RecipeEntry struct {
	DishID         uuid.UUID       `gorm:"column:dish_id;type:uuid;primaryKey"`
	IngredientID   uuid.UUID       `gorm:"column:ingredient_id;type:uuid;primaryKey"`
	QuantityNeeded decimal.Decimal `gorm:"column:quantity_needed;type:numeric(14,3);not null"`
}

func (RecipeEntry) TableName() string { return "dish_ingredients" }

// InventoryMovement is one append-only stock change.
type InventoryMovement struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	IngredientID uuid.UUID                   `gorm:"column:ingredient_id;type:uuid;not null;index"`
	OrderItemID  *uuid.UUID                  `gorm:"column:order_item_id;type:uuid;index"`
	Kind         enums.InventoryMovementKind `gorm:"column:kind;type:varchar(16);not null"`
	Delta        decimal.Decimal             `gorm:"column:delta;type:numeric(14,3);not null"`
	CreatedAt    time.Time                   `gorm:"column:created_at;not null"`
}

func (InventoryMovement) TableName() string { return "inventory_movements" }
