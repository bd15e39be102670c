package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tableside/pos-backend/pkg/enums"
)

// Order is a table or customer tab. OrderTotalCents is derived from the
// non-cancelled items and is rewritten in every transaction that touches them.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Tag             string            `gorm:"column:tag;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:varchar(16);not null;default:'open'"`
	IsPaymentDone   bool              `gorm:"column:is_payment_done;not null;default:false"`
	OrderTotalCents int               `gorm:"column:order_total;not null;default:0"`
	CreatedAt       time.Time         `gorm:"column:created_at;not null;index"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	ClosedAt        *time.Time        `gorm:"column:closed_at"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem captures the dish name and price at the moment it was ordered.
type OrderItem struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	DishID             uuid.UUID             `gorm:"column:dish_id;type:uuid;not null;index"`
	Quantity           int                   `gorm:"column:quantity;not null;check:chk_order_items_quantity_positive,quantity > 0"`
	Status             enums.OrderItemStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'"`
	DishNameSnapshot   string                `gorm:"column:dish_name_snapshot;not null"`
	PriceSnapshotCents int                   `gorm:"column:price_snapshot;not null"`
	ServedAt           *time.Time            `gorm:"column:served_at"`
	CreatedAt          time.Time             `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

// LineTotalCents is quantity times the snapshot price.
func (i OrderItem) LineTotalCents() int {
	return i.Quantity * i.PriceSnapshotCents
}
