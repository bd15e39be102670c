package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db"
	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/outbox"
	"github.com/tableside/pos-backend/pkg/outbox/payloads"
)

// Service exposes menu management plus the lookups the order and inventory
// engines perform inside their own transactions.
type Service interface {
	CreateDish(ctx context.Context, input CreateDishInput) (*DishDTO, error)
	UpdateDish(ctx context.Context, dishID uuid.UUID, input UpdateDishInput) (*DishDTO, error)
	SetRecipe(ctx context.Context, dishID uuid.UUID, entries []RecipeInput) (*DishDTO, error)
	GetDish(ctx context.Context, dishID uuid.UUID) (*DishDTO, error)
	ListDishes(ctx context.Context, filters DishFilters) ([]DishDTO, error)
	CreateIngredient(ctx context.Context, input CreateIngredientInput) (*IngredientDTO, error)

	// ActiveDishes resolves every id to an active dish or fails with NotFound.
	ActiveDishes(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error)
	// RecipeFor returns the recipe of a dish ordered by ingredient id.
	RecipeFor(ctx context.Context, tx *gorm.DB, dishID uuid.UUID) ([]models.RecipeEntry, error)
}

// CreateDishInput holds the validated payload to create a dish.
type CreateDishInput struct {
	Name       string
	Category   string
	PriceCents int
	IsActive   bool
	Recipe     []RecipeInput
}

// UpdateDishInput holds optional dish mutations.
type UpdateDishInput struct {
	Name       *string
	Category   *string
	PriceCents *int
	IsActive   *bool
}

// RecipeInput is one ingredient requirement per unit of dish.
type RecipeInput struct {
	IngredientID   uuid.UUID
	QuantityNeeded decimal.Decimal
}

// CreateIngredientInput registers an ingredient with its opening stock.
type CreateIngredientInput struct {
	Name         string
	Unit         enums.IngredientUnit
	InitialStock decimal.Decimal
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	logg   *logger.Logger
}

// NewService constructs the catalog service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, logg: logg}, nil
}

func (s *service) CreateDish(ctx context.Context, input CreateDishInput) (*DishDTO, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if err := validateRecipe(input.Recipe); err != nil {
		return nil, err
	}

	dish := &models.Dish{
		ID:         uuid.New(),
		Name:       name,
		Category:   category,
		PriceCents: input.PriceCents,
		IsActive:   input.IsActive,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateDish(ctx, dish); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert dish")
		}
		if len(input.Recipe) == 0 {
			return nil
		}
		if err := s.ensureIngredients(ctx, txRepo, input.Recipe); err != nil {
			return err
		}
		if err := txRepo.ReplaceRecipe(ctx, dish.ID, recipeRows(dish.ID, input.Recipe)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert recipe")
		}
		return nil
	}); err != nil {
		return nil, txError(err, "create dish")
	}

	s.logInfo(ctx, dish.ID, "dish.created")
	return s.GetDish(ctx, dish.ID)
}

func (s *service) UpdateDish(ctx context.Context, dishID uuid.UUID, input UpdateDishInput) (*DishDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		updates["category"] = category
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *input.PriceCents
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindDish(ctx, dishID)
		if err != nil {
			return dishLookupError(err)
		}
		if err := txRepo.UpdateDish(ctx, dishID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update dish")
		}
		if input.PriceCents == nil || *input.PriceCents == current.PriceCents {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDishPriceChanged,
			AggregateType: enums.AggregateDish,
			AggregateID:   dishID,
			Data: payloads.DishPriceChangedEvent{
				DishID:        dishID,
				OldPriceCents: current.PriceCents,
				NewPriceCents: *input.PriceCents,
			},
		})
	}); err != nil {
		return nil, txError(err, "update dish")
	}

	s.logInfo(ctx, dishID, "dish.updated")
	return s.GetDish(ctx, dishID)
}

func (s *service) SetRecipe(ctx context.Context, dishID uuid.UUID, entries []RecipeInput) (*DishDTO, error) {
	if err := validateRecipe(entries); err != nil {
		return nil, err
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindDish(ctx, dishID); err != nil {
			return dishLookupError(err)
		}
		if err := s.ensureIngredients(ctx, txRepo, entries); err != nil {
			return err
		}
		if err := txRepo.ReplaceRecipe(ctx, dishID, recipeRows(dishID, entries)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace recipe")
		}
		return nil
	}); err != nil {
		return nil, txError(err, "set recipe")
	}
	return s.GetDish(ctx, dishID)
}

func (s *service) GetDish(ctx context.Context, dishID uuid.UUID) (*DishDTO, error) {
	dish, err := s.repo.FindDish(ctx, dishID)
	if err != nil {
		return nil, dishLookupError(err)
	}
	return NewDishDTO(dish), nil
}

func (s *service) ListDishes(ctx context.Context, filters DishFilters) ([]DishDTO, error) {
	filters.Category = strings.TrimSpace(filters.Category)
	dishes, err := s.repo.ListDishes(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dishes")
	}
	out := make([]DishDTO, 0, len(dishes))
	for i := range dishes {
		out = append(out, *NewDishDTO(&dishes[i]))
	}
	return out, nil
}

func (s *service) CreateIngredient(ctx context.Context, input CreateIngredientInput) (*IngredientDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}
	if input.InitialStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock cannot be negative")
	}
	if !models.FitsQuantityColumn(input.InitialStock) {
		return nil, quantityPrecisionError("initial_stock")
	}

	ingredient := &models.Ingredient{ID: uuid.New(), Name: name, Unit: input.Unit}
	record := &models.InventoryRecord{StockQuantity: input.InitialStock}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateIngredient(ctx, ingredient, record); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "ingredient name already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert ingredient")
		}
		return nil
	}); err != nil {
		return nil, txError(err, "create ingredient")
	}

	return &IngredientDTO{
		ID:            ingredient.ID,
		Name:          ingredient.Name,
		Unit:          ingredient.Unit,
		StockQuantity: record.StockQuantity,
	}, nil
}

func (s *service) ActiveDishes(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error) {
	dishes, err := s.repo.WithTx(tx).FindDishesByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load dishes")
	}
	byID := make(map[uuid.UUID]models.Dish, len(dishes))
	for _, dish := range dishes {
		if dish.IsActive {
			byID[dish.ID] = dish
		}
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dish not found").
				WithDetails(map[string]any{"dish_id": id.String()})
		}
	}
	return byID, nil
}

func (s *service) RecipeFor(ctx context.Context, tx *gorm.DB, dishID uuid.UUID) ([]models.RecipeEntry, error) {
	entries, err := s.repo.WithTx(tx).FindRecipe(ctx, dishID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load recipe")
	}
	return entries, nil
}

func (s *service) ensureIngredients(ctx context.Context, repo Repository, entries []RecipeInput) error {
	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.IngredientID)
	}
	found, err := repo.FindIngredientsByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load ingredients")
	}
	if len(found) != len(ids) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
	}
	return nil
}

func (s *service) logInfo(ctx context.Context, dishID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "dish_id", dishID.String()), msg)
}

func validateRecipe(entries []RecipeInput) error {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IngredientID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "ingredient_id is required")
		}
		if !entry.QuantityNeeded.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity_needed must be positive")
		}
		if !models.FitsQuantityColumn(entry.QuantityNeeded) {
			return quantityPrecisionError("quantity_needed")
		}
		if _, dup := seen[entry.IngredientID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate ingredient in recipe")
		}
		seen[entry.IngredientID] = struct{}{}
	}
	return nil
}

// txError keeps typed errors from inside a transaction and maps the rest,
// such as commit failures, to a dependency error.
func txError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func quantityPrecisionError(field string) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "%s allows at most %d decimal places and %d integer digits",
		field, models.QuantityScale, models.QuantityIntegerDigits)
}

func recipeRows(dishID uuid.UUID, entries []RecipeInput) []models.RecipeEntry {
	rows := make([]models.RecipeEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.RecipeEntry{
			DishID:         dishID,
			IngredientID:   entry.IngredientID,
			QuantityNeeded: entry.QuantityNeeded,
		})
	}
	return rows
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func dishLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "dish not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load dish")
}
