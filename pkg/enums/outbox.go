package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateIngredient OutboxAggregateType = "ingredient"
	AggregateDish       OutboxAggregateType = "dish"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateIngredient,
	AggregateDish,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order_created"
	EventOrderItemsAdded     OutboxEventType = "order_items_added"
	EventOrderItemServed     OutboxEventType = "order_item_served"
	EventOrderItemUnserved   OutboxEventType = "order_item_unserved"
	EventOrderItemCancelled  OutboxEventType = "order_item_cancelled"
	EventOrderItemRemoved    OutboxEventType = "order_item_removed"
	EventOrderPaymentToggled OutboxEventType = "order_payment_toggled"
	EventOrderClosed         OutboxEventType = "order_closed"
	EventOrderCancelled      OutboxEventType = "order_cancelled"
	EventInventoryRestocked  OutboxEventType = "inventory_restocked"
	EventDishPriceChanged    OutboxEventType = "dish_price_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderItemsAdded,
	EventOrderItemServed,
	EventOrderItemUnserved,
	EventOrderItemCancelled,
	EventOrderItemRemoved,
	EventOrderPaymentToggled,
	EventOrderClosed,
	EventOrderCancelled,
	EventInventoryRestocked,
	EventDishPriceChanged,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
