package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db/models"
)

// Repository defines persistence operations for dishes, ingredients and recipes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateDish(ctx context.Context, dish *models.Dish) error
	FindDish(ctx context.Context, id uuid.UUID) (*models.Dish, error)
	FindDishesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error)
	ListDishes(ctx context.Context, filters DishFilters) ([]models.Dish, error)
	UpdateDish(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindRecipe(ctx context.Context, dishID uuid.UUID) ([]models.RecipeEntry, error)
	ReplaceRecipe(ctx context.Context, dishID uuid.UUID, entries []models.RecipeEntry) error
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient, record *models.InventoryRecord) error
	FindIngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error)
}

// DishFilters narrows ListDishes.
type DishFilters struct {
	Category   string
	ActiveOnly bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
