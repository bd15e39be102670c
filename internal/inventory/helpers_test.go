package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
)

type recipeTable struct{}

func (recipeTable) RecipeFor(ctx context.Context, tx *gorm.DB, dishID uuid.UUID) ([]models.RecipeEntry, error) {
	var entries []models.RecipeEntry
	err := tx.WithContext(ctx).Where("dish_id = ?", dishID).Order("ingredient_id ASC").Find(&entries).Error
	return entries, err
}

func mustIngredient(t *testing.T, conn *gorm.DB, name string, stock string) uuid.UUID {
	t.Helper()
	ingredient := models.Ingredient{ID: uuid.New(), Name: name, Unit: enums.IngredientUnitGram}
	if err := conn.Create(&ingredient).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	if stock != "" {
		record := models.InventoryRecord{IngredientID: ingredient.ID, StockQuantity: decimal.RequireFromString(stock)}
		if err := conn.Create(&record).Error; err != nil {
			t.Fatalf("create inventory: %v", err)
		}
	}
	return ingredient.ID
}

func mustDish(t *testing.T, conn *gorm.DB, recipe map[uuid.UUID]string) uuid.UUID {
	t.Helper()
	dish := models.Dish{ID: uuid.New(), Name: "dish-" + uuid.NewString()[:8], Category: "mains", PriceCents: 500, IsActive: true}
	if err := conn.Create(&dish).Error; err != nil {
		t.Fatalf("create dish: %v", err)
	}
	for ingredientID, qty := range recipe {
		entry := models.RecipeEntry{DishID: dish.ID, IngredientID: ingredientID, QuantityNeeded: decimal.RequireFromString(qty)}
		if err := conn.Create(&entry).Error; err != nil {
			t.Fatalf("create recipe entry: %v", err)
		}
	}
	return dish.ID
}

func stockOf(t *testing.T, conn *gorm.DB, ingredientID uuid.UUID) decimal.Decimal {
	t.Helper()
	var record models.InventoryRecord
	if err := conn.Where("ingredient_id = ?", ingredientID).First(&record).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return record.StockQuantity
}
