package enums

import "fmt"

// InventoryMovementKind classifies a row in the inventory movement audit.
type InventoryMovementKind string

const (
	MovementDeduction InventoryMovementKind = "deduction"
	MovementReversal  InventoryMovementKind = "reversal"
	MovementRestock   InventoryMovementKind = "restock"
)

var validMovementKinds = []InventoryMovementKind{
	MovementDeduction,
	MovementReversal,
	MovementRestock,
}

// String implements fmt.Stringer.
func (k InventoryMovementKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known InventoryMovementKind.
func (k InventoryMovementKind) IsValid() bool {
	for _, candidate := range validMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseInventoryMovementKind converts raw input into an InventoryMovementKind.
func ParseInventoryMovementKind(value string) (InventoryMovementKind, error) {
	for _, candidate := range validMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory movement kind %q", value)
}
