package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
)

// DishDTO is the API shape of a menu dish.
type DishDTO struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Category  string           `json:"category"`
	Price     int              `json:"price"`
	IsActive  bool             `json:"is_active"`
	Recipe    []RecipeEntryDTO `json:"recipe"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// RecipeEntryDTO is one ingredient line of a recipe.
type RecipeEntryDTO struct {
	IngredientID   uuid.UUID       `json:"ingredient_id"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
}

// IngredientDTO is the API shape of an ingredient and its opening stock.
type IngredientDTO struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Unit          enums.IngredientUnit `json:"unit"`
	StockQuantity decimal.Decimal      `json:"stock_quantity"`
}

// NewDishDTO maps a dish model, with its preloaded recipe, to a DTO.
func NewDishDTO(dish *models.Dish) *DishDTO {
	if dish == nil {
		return nil
	}
	recipe := make([]RecipeEntryDTO, 0, len(dish.Recipe))
	for _, entry := range dish.Recipe {
		recipe = append(recipe, RecipeEntryDTO{
			IngredientID:   entry.IngredientID,
			QuantityNeeded: entry.QuantityNeeded,
		})
	}
	return &DishDTO{
		ID:        dish.ID,
		Name:      dish.Name,
		Category:  dish.Category,
		Price:     dish.PriceCents,
		IsActive:  dish.IsActive,
		Recipe:    recipe,
		CreatedAt: dish.CreatedAt,
		UpdatedAt: dish.UpdatedAt,
	}
}
