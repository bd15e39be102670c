package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
)

// OrderDTO is the API shape of an order with its items.
type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	Tag           string            `json:"tag"`
	Status        enums.OrderStatus `json:"status"`
	IsPaymentDone bool              `json:"is_payment_done"`
	OrderTotal    int               `json:"order_total"`
	CreatedAt     time.Time         `json:"created_at"`
	ClosedAt      *time.Time        `json:"closed_at,omitempty"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	Items         []OrderItemDTO    `json:"items"`
}

// OrderItemDTO exposes the snapshot columns of an order item.
type OrderItemDTO struct {
	ID               uuid.UUID             `json:"id"`
	DishID           uuid.UUID             `json:"dish_id"`
	DishNameSnapshot string                `json:"dish_name_snapshot"`
	PriceSnapshot    int                   `json:"price_snapshot"`
	Quantity         int                   `json:"quantity"`
	Status           enums.OrderItemStatus `json:"status"`
	LineTotal        int                   `json:"line_total"`
	ServedAt         *time.Time            `json:"served_at,omitempty"`
}

// ItemStatusDTO is returned by item transitions.
type ItemStatusDTO struct {
	OrderID    uuid.UUID             `json:"order_id"`
	ItemID     uuid.UUID             `json:"item_id"`
	Status     enums.OrderItemStatus `json:"status"`
	OrderTotal int                   `json:"order_total"`
}

// PaymentDTO is returned by the payment toggle.
type PaymentDTO struct {
	OrderID       uuid.UUID `json:"order_id"`
	IsPaymentDone bool      `json:"is_payment_done"`
}

// OrderSummaryDTO is the receipt view returned when an order is closed.
type OrderSummaryDTO struct {
	OrderID        uuid.UUID         `json:"order_id"`
	Tag            string            `json:"tag"`
	Status         enums.OrderStatus `json:"status"`
	IsPaymentDone  bool              `json:"is_payment_done"`
	OrderTotal     int               `json:"order_total"`
	ItemCount      int               `json:"item_count"`
	ServedCount    int               `json:"served_count"`
	CancelledCount int               `json:"cancelled_count"`
	ClosedAt       *time.Time        `json:"closed_at,omitempty"`
	Items          []OrderItemDTO    `json:"items"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps an order, with preloaded items, to a DTO.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, newOrderItemDTO(item))
	}
	return &OrderDTO{
		ID:            order.ID,
		Tag:           order.Tag,
		Status:        order.Status,
		IsPaymentDone: order.IsPaymentDone,
		OrderTotal:    order.OrderTotalCents,
		CreatedAt:     order.CreatedAt,
		ClosedAt:      order.ClosedAt,
		CancelledAt:   order.CancelledAt,
		Items:         items,
	}
}

func newOrderItemDTO(item models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:               item.ID,
		DishID:           item.DishID,
		DishNameSnapshot: item.DishNameSnapshot,
		PriceSnapshot:    item.PriceSnapshotCents,
		Quantity:         item.Quantity,
		Status:           item.Status,
		LineTotal:        item.LineTotalCents(),
		ServedAt:         item.ServedAt,
	}
}

func newOrderSummary(order *models.Order) *OrderSummaryDTO {
	dto := NewOrderDTO(order)
	summary := &OrderSummaryDTO{
		OrderID:       dto.ID,
		Tag:           dto.Tag,
		Status:        dto.Status,
		IsPaymentDone: dto.IsPaymentDone,
		OrderTotal:    dto.OrderTotal,
		ItemCount:     len(dto.Items),
		ClosedAt:      dto.ClosedAt,
		Items:         dto.Items,
	}
	for _, item := range dto.Items {
		switch item.Status {
		case enums.OrderItemStatusServed:
			summary.ServedCount++
		case enums.OrderItemStatusCancelled:
			summary.CancelledCount++
		}
	}
	return summary
}
