package enums

import "fmt"

// AnalyticsRange names a preset reporting window.
type AnalyticsRange string

const (
	AnalyticsRangeToday      AnalyticsRange = "today"
	AnalyticsRangeYesterday  AnalyticsRange = "yesterday"
	AnalyticsRangeLast7Days  AnalyticsRange = "last_7_days"
	AnalyticsRangeLast30Days AnalyticsRange = "last_30_days"
)

var validAnalyticsRanges = []AnalyticsRange{
	AnalyticsRangeToday,
	AnalyticsRangeYesterday,
	AnalyticsRangeLast7Days,
	AnalyticsRangeLast30Days,
}

func (r AnalyticsRange) String() string {
	return string(r)
}

func (r AnalyticsRange) IsValid() bool {
	for _, candidate := range validAnalyticsRanges {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAnalyticsRange converts raw input into an AnalyticsRange.
func ParseAnalyticsRange(value string) (AnalyticsRange, error) {
	for _, candidate := range validAnalyticsRanges {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics range %q", value)
}

// AnalyticsMetric is the sort key of a sales ranking.
type AnalyticsMetric string

const (
	AnalyticsMetricRevenue  AnalyticsMetric = "revenue"
	AnalyticsMetricQuantity AnalyticsMetric = "quantity"
)

// ParseAnalyticsMetric converts raw input into an AnalyticsMetric.
func ParseAnalyticsMetric(value string) (AnalyticsMetric, error) {
	switch AnalyticsMetric(value) {
	case AnalyticsMetricRevenue, AnalyticsMetricQuantity:
		return AnalyticsMetric(value), nil
	}
	return "", fmt.Errorf("invalid analytics metric %q", value)
}

// AnalyticsGroupBy selects the aggregation key of a sales ranking.
type AnalyticsGroupBy string

const (
	AnalyticsGroupByDish     AnalyticsGroupBy = "dish"
	AnalyticsGroupByCategory AnalyticsGroupBy = "category"
)

// ParseAnalyticsGroupBy converts raw input into an AnalyticsGroupBy.
func ParseAnalyticsGroupBy(value string) (AnalyticsGroupBy, error) {
	switch AnalyticsGroupBy(value) {
	case AnalyticsGroupByDish, AnalyticsGroupByCategory:
		return AnalyticsGroupBy(value), nil
	}
	return "", fmt.Errorf("invalid analytics grouping %q", value)
}
