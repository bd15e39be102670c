package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/tableside/pos-backend/pkg/enums"
)

const (
	// MaxLimit caps the number of ranked rows in a sales report.
	MaxLimit = 100
)

// Range is a half open [Start, End) window in UTC.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RangeInput selects a window either by preset or by explicit bounds.
type RangeInput struct {
	Preset enums.AnalyticsRange
	From   *time.Time
	To     *time.Time
}

// SalesInput carries the filters of a sales ranking.
type SalesInput struct {
	Range    RangeInput
	DishID   *uuid.UUID
	Category string
	GroupBy  enums.AnalyticsGroupBy
	Metric   enums.AnalyticsMetric
	Limit    int
}

// SalesRow is one ranked dish or category. DishID is nil for category rows.
type SalesRow struct {
	DishID   *uuid.UUID `json:"dish_id,omitempty" gorm:"column:dish_id"`
	Name     string     `json:"name" gorm:"column:name"`
	Category string     `json:"category" gorm:"column:category"`
	Quantity int64      `json:"quantity" gorm:"column:quantity"`
	Revenue  int64      `json:"revenue" gorm:"column:revenue"`
}

// SalesReport is the ranked result with the resolved parameters echoed back.
type SalesReport struct {
	Range   Range                  `json:"range"`
	GroupBy enums.AnalyticsGroupBy `json:"group_by"`
	Metric  enums.AnalyticsMetric  `json:"type"`
	Rows    []SalesRow             `json:"rows"`
}

// Summary aggregates the orders of a window.
type Summary struct {
	Range             Range `json:"range"`
	OrderCount        int64 `json:"order_count"`
	ItemsSold         int64 `json:"items_sold"`
	GrossRevenue      int64 `json:"gross_revenue"`
	AverageOrderValue int64 `json:"average_order_value"`
}

type salesQuery struct {
	Range    Range
	DishID   *uuid.UUID
	Category string
	GroupBy  enums.AnalyticsGroupBy
	Metric   enums.AnalyticsMetric
	Limit    int
}
