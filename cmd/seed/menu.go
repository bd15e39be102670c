package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/pkg/enums"
)

type seedIngredient struct {
	name  string
	unit  enums.IngredientUnit
	stock int64
}

type seedDish struct {
	name     string
	category string
	price    int
	recipe   map[string]string
}

var ingredients = []seedIngredient{
	{name: "flour", unit: enums.IngredientUnitGram, stock: 20000},
	{name: "tomato sauce", unit: enums.IngredientUnitMilliliter, stock: 8000},
	{name: "mozzarella", unit: enums.IngredientUnitGram, stock: 6000},
	{name: "basil", unit: enums.IngredientUnitPiece, stock: 300},
	{name: "espresso beans", unit: enums.IngredientUnitGram, stock: 3000},
	{name: "milk", unit: enums.IngredientUnitLiter, stock: 40},
}

var dishes = []seedDish{
	{name: "Margherita", category: "pizza", price: 1150, recipe: map[string]string{
		"flour": "250", "tomato sauce": "120", "mozzarella": "125", "basil": "3",
	}},
	{name: "Marinara", category: "pizza", price: 900, recipe: map[string]string{
		"flour": "250", "tomato sauce": "150",
	}},
	{name: "Garlic Bread", category: "starters", price: 550, recipe: map[string]string{
		"flour": "120",
	}},
	{name: "Espresso", category: "drinks", price: 250, recipe: map[string]string{
		"espresso beans": "18",
	}},
	{name: "Cappuccino", category: "drinks", price: 380, recipe: map[string]string{
		"espresso beans": "18", "milk": "0.15",
	}},
}

// seedMenu creates the demo menu unless dishes already exist. It returns the
// number of dishes created.
func seedMenu(ctx context.Context, svc catalog.Service) (int, error) {
	existing, err := svc.ListDishes(ctx, catalog.DishFilters{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	ids := make(map[string]uuid.UUID, len(ingredients))
	for _, ing := range ingredients {
		dto, err := svc.CreateIngredient(ctx, catalog.CreateIngredientInput{
			Name:         ing.name,
			Unit:         ing.unit,
			InitialStock: decimal.NewFromInt(ing.stock),
		})
		if err != nil {
			return 0, fmt.Errorf("seed ingredient %s: %w", ing.name, err)
		}
		ids[ing.name] = dto.ID
	}

	for _, dish := range dishes {
		recipe := make([]catalog.RecipeInput, 0, len(dish.recipe))
		for name, qty := range dish.recipe {
			recipe = append(recipe, catalog.RecipeInput{
				IngredientID:   ids[name],
				QuantityNeeded: decimal.RequireFromString(qty),
			})
		}
		if _, err := svc.CreateDish(ctx, catalog.CreateDishInput{
			Name:       dish.name,
			Category:   dish.category,
			PriceCents: dish.price,
			IsActive:   true,
			Recipe:     recipe,
		}); err != nil {
			return 0, fmt.Errorf("seed dish %s: %w", dish.name, err)
		}
	}
	return len(dishes), nil
}
