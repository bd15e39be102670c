package enums

import "testing"

func TestOrderItemStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderItemStatus
		allowed  bool
	}{
		{OrderItemStatusPending, OrderItemStatusServed, true},
		{OrderItemStatusPending, OrderItemStatusCancelled, true},
		{OrderItemStatusServed, OrderItemStatusServed, true},
		{OrderItemStatusServed, OrderItemStatusPending, true},
		{OrderItemStatusServed, OrderItemStatusCancelled, false},
		{OrderItemStatusCancelled, OrderItemStatusCancelled, true},
		{OrderItemStatusCancelled, OrderItemStatusServed, false},
		{OrderItemStatusCancelled, OrderItemStatusPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if OrderStatusOpen.IsTerminal() {
		t.Fatal("open orders are not terminal")
	}
	if !OrderStatusClosed.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("closed and cancelled orders are terminal")
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	if _, err := ParseOrderItemStatus("SERVED"); err == nil {
		t.Fatal("statuses are lower case")
	}
	if _, err := ParseIngredientUnit("oz"); err == nil {
		t.Fatal("expected unknown unit to fail")
	}
	if r, err := ParseAnalyticsRange("last_7_days"); err != nil || r != AnalyticsRangeLast7Days {
		t.Fatalf("unexpected range parse result %q %v", r, err)
	}
	if _, err := ParseAnalyticsMetric("profit"); err == nil {
		t.Fatal("expected unknown metric to fail")
	}
}
