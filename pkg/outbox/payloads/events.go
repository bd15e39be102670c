package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/tableside/pos-backend/pkg/enums"
)

// OrderItemSnapshot mirrors an order item as it was written.
type OrderItemSnapshot struct {
	ItemID     uuid.UUID `json:"item_id"`
	DishID     uuid.UUID `json:"dish_id"`
	DishName   string    `json:"dish_name"`
	Quantity   int       `json:"quantity"`
	PriceCents int       `json:"price_cents"`
}

// OrderCreatedEvent is emitted once per new order.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID           `json:"order_id"`
	Tag        string              `json:"tag"`
	TotalCents int                 `json:"total_cents"`
	Items      []OrderItemSnapshot `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

// OrderItemsAddedEvent is emitted when items join an open order.
type OrderItemsAddedEvent struct {
	OrderID    uuid.UUID           `json:"order_id"`
	TotalCents int                 `json:"total_cents"`
	Items      []OrderItemSnapshot `json:"items"`
}

// OrderItemStatusEvent covers serve, unserve, cancel and remove.
type OrderItemStatusEvent struct {
	OrderID    uuid.UUID             `json:"order_id"`
	ItemID     uuid.UUID             `json:"item_id"`
	DishID     uuid.UUID             `json:"dish_id"`
	Quantity   int                   `json:"quantity"`
	From       enums.OrderItemStatus `json:"from"`
	To         enums.OrderItemStatus `json:"to"`
	TotalCents int                   `json:"total_cents"`
}

// StockChange is one ingredient delta inside an event.
type StockChange struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Delta        string    `json:"delta"`
	Remaining    string    `json:"remaining"`
}

// OrderItemServedEvent carries the stock consumed by serving the item.
type OrderItemServedEvent struct {
	OrderItemStatusEvent
	StockChanges []StockChange `json:"stock_changes"`
}

// OrderPaymentToggledEvent reports the new payment flag.
type OrderPaymentToggledEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	IsPaymentDone bool      `json:"is_payment_done"`
}

// OrderClosedEvent is emitted when the bill is settled.
type OrderClosedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	TotalCents int       `json:"total_cents"`
	ItemCount  int       `json:"item_count"`
	ClosedAt   time.Time `json:"closed_at"`
}

// OrderCancelledEvent is emitted when an open order is abandoned.
type OrderCancelledEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	CancelledItems int       `json:"cancelled_items"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// InventoryRestockedEvent reports a manual stock increase.
type InventoryRestockedEvent struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Delta        string    `json:"delta"`
	Remaining    string    `json:"remaining"`
}

// DishPriceChangedEvent reports a menu price edit. Existing orders keep
// their snapshot.
type DishPriceChangedEvent struct {
	DishID        uuid.UUID `json:"dish_id"`
	OldPriceCents int       `json:"old_price_cents"`
	NewPriceCents int       `json:"new_price_cents"`
}
