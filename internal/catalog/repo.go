package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateDish(ctx context.Context, dish *models.Dish) error {
	if dish.ID == uuid.Nil {
		dish.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Recipe").Create(dish).Error
}

func (r *repository) FindDish(ctx context.Context, id uuid.UUID) (*models.Dish, error) {
	var dish models.Dish
	err := r.db.WithContext(ctx).
		Preload("Recipe", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_id ASC") }).
		Where("id = ?", id).
		First(&dish).Error
	if err != nil {
		return nil, err
	}
	return &dish, nil
}

func (r *repository) FindDishesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var dishes []models.Dish
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) ListDishes(ctx context.Context, filters DishFilters) ([]models.Dish, error) {
	query := r.db.WithContext(ctx).
		Preload("Recipe", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_id ASC") })
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var dishes []models.Dish
	if err := query.Order("category ASC, name ASC").Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) UpdateDish(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Dish{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindRecipe(ctx context.Context, dishID uuid.UUID) ([]models.RecipeEntry, error) {
	var entries []models.RecipeEntry
	err := r.db.WithContext(ctx).
		Where("dish_id = ?", dishID).
		Order("ingredient_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ReplaceRecipe(ctx context.Context, dishID uuid.UUID, entries []models.RecipeEntry) error {
	if err := r.db.WithContext(ctx).Where("dish_id = ?", dishID).Delete(&models.RecipeEntry{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) CreateIngredient(ctx context.Context, ingredient *models.Ingredient, record *models.InventoryRecord) error {
	if ingredient.ID == uuid.Nil {
		ingredient.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	record.IngredientID = ingredient.ID
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindIngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ingredients []models.Ingredient
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}
