package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
	"github.com/tableside/pos-backend/pkg/outbox/payloads"
	"github.com/tableside/pos-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and order items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	CancelPendingItems(ctx context.Context, orderID uuid.UUID, at time.Time) (int64, error)
	SumBillableItems(ctx context.Context, orderID uuid.UUID) (int, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) ([]models.Order, *pagination.Cursor, error)
}

// OrderFilters narrows ListOrders.
type OrderFilters struct {
	Status *enums.OrderStatus
}

// DishCatalog resolves dishes for snapshotting inside the order transaction.
type DishCatalog interface {
	ActiveDishes(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error)
}

// StockAdjuster moves ingredient stock when items enter or leave SERVED.
type StockAdjuster interface {
	Deduct(ctx context.Context, tx *gorm.DB, item inventory.ItemRef) ([]payloads.StockChange, error)
	Reverse(ctx context.Context, tx *gorm.DB, item inventory.ItemRef) ([]payloads.StockChange, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
