package enums

import "fmt"

// OrderItemStatus tracks the kitchen state of a single order item.
type OrderItemStatus string

const (
	OrderItemStatusPending   OrderItemStatus = "pending"
	OrderItemStatusServed    OrderItemStatus = "served"
	OrderItemStatusCancelled OrderItemStatus = "cancelled"
)

var validOrderItemStatuses = []OrderItemStatus{
	OrderItemStatusPending,
	OrderItemStatusServed,
	OrderItemStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderItemStatus.
func (s OrderItemStatus) IsValid() bool {
	for _, candidate := range validOrderItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CountsTowardTotal reports whether items in this status are billed.
func (s OrderItemStatus) CountsTowardTotal() bool {
	return s != OrderItemStatusCancelled
}

// CanTransitionTo reports whether the item state machine allows moving from
// s to next. Self transitions on served and cancelled are allowed no-ops.
func (s OrderItemStatus) CanTransitionTo(next OrderItemStatus) bool {
	switch s {
	case OrderItemStatusPending:
		return next == OrderItemStatusServed || next == OrderItemStatusCancelled || next == OrderItemStatusPending
	case OrderItemStatusServed:
		return next == OrderItemStatusServed || next == OrderItemStatusPending
	case OrderItemStatusCancelled:
		return next == OrderItemStatusCancelled
	}
	return false
}

// ParseOrderItemStatus converts raw input into an OrderItemStatus.
func ParseOrderItemStatus(value string) (OrderItemStatus, error) {
	for _, candidate := range validOrderItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order item status %q", value)
}
