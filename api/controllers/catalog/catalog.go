package catalog

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/pos-backend/api/responses"
	"github.com/tableside/pos-backend/api/validators"
	internalcatalog "github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
)

type recipeEntryRequest struct {
	IngredientID   string          `json:"ingredient_id" validate:"required,uuid"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
}

type createDishRequest struct {
	Name     string               `json:"name" validate:"required,max=120"`
	Category string               `json:"category" validate:"required,max=64"`
	Price    int                  `json:"price" validate:"required,gt=0"`
	IsActive *bool                `json:"is_active"`
	Recipe   []recipeEntryRequest `json:"recipe" validate:"omitempty,dive"`
}

type updateDishRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Category *string `json:"category" validate:"omitempty,min=1,max=64"`
	Price    *int    `json:"price" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
}

type setRecipeRequest struct {
	Recipe []recipeEntryRequest `json:"recipe" validate:"dive"`
}

type createIngredientRequest struct {
	Name         string          `json:"name" validate:"required,max=120"`
	Unit         string          `json:"unit" validate:"required,oneof=g kg ml l pcs"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

// ListDishes returns the menu, optionally narrowed to a category or to
// dishes currently on sale.
func ListDishes(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dishes, err := svc.ListDishes(r.Context(), internalcatalog.DishFilters{
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			ActiveOnly: activeOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dishes)
	}
}

func GetDish(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dishID, err := validators.ParseURLUUID(r, "dishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dish, err := svc.GetDish(r.Context(), dishID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dish)
	}
}

// CreateDish adds a dish. New dishes are active unless is_active is false.
func CreateDish(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createDishRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := toRecipeInputs(payload.Recipe)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.IsActive != nil {
			active = *payload.IsActive
		}

		dish, err := svc.CreateDish(r.Context(), internalcatalog.CreateDishInput{
			Name:       validators.SanitizeString(payload.Name, 120),
			Category:   validators.SanitizeString(payload.Category, 64),
			PriceCents: payload.Price,
			IsActive:   active,
			Recipe:     recipe,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dish)
	}
}

// UpdateDish patches name, category, price or availability. Existing order
// snapshots are not touched.
func UpdateDish(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dishID, err := validators.ParseURLUUID(r, "dishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateDishRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dish, err := svc.UpdateDish(r.Context(), dishID, internalcatalog.UpdateDishInput{
			Name:       sanitizeOptional(payload.Name, 120),
			Category:   sanitizeOptional(payload.Category, 64),
			PriceCents: payload.Price,
			IsActive:   payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dish)
	}
}

// SetRecipe replaces the full ingredient list of a dish.
func SetRecipe(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dishID, err := validators.ParseURLUUID(r, "dishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setRecipeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := toRecipeInputs(payload.Recipe)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dish, err := svc.SetRecipe(r.Context(), dishID, recipe)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dish)
	}
}

func CreateIngredient(svc internalcatalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createIngredientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := enums.ParseIngredientUnit(payload.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
			return
		}

		ingredient, err := svc.CreateIngredient(r.Context(), internalcatalog.CreateIngredientInput{
			Name:         validators.SanitizeString(payload.Name, 120),
			Unit:         unit,
			InitialStock: payload.InitialStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ingredient)
	}
}

func toRecipeInputs(entries []recipeEntryRequest) ([]internalcatalog.RecipeInput, error) {
	out := make([]internalcatalog.RecipeInput, 0, len(entries))
	for i, entry := range entries {
		ingredientID, err := uuid.Parse(strings.TrimSpace(entry.IngredientID))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ingredient id").
				WithDetails(map[string]any{"field": "recipe", "index": i})
		}
		out = append(out, internalcatalog.RecipeInput{
			IngredientID:   ingredientID,
			QuantityNeeded: entry.QuantityNeeded,
		})
	}
	return out, nil
}

func sanitizeOptional(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	return &clean
}
