package models

import (
	"time"

	"github.com/google/uuid"
)

// Dish is a menu entry. Price is in minor currency units. Edits never reach
// existing order items, which keep their own snapshot.
type Dish struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	Category   string    `gorm:"column:category;not null"`
	PriceCents int       `gorm:"column:price;not null;check:chk_dishes_price_positive,price > 0"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Recipe []RecipeEntry `gorm:"foreignKey:DishID;references:ID"`
}

func (Dish) TableName() string { return "dishes" }
