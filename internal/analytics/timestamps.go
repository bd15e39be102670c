package analytics

import (
	"time"

	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
)

// ResolveRange turns a preset or explicit bounds into a UTC window. Presets
// are whole days in loc: today is [midnight, next midnight) and last_7_days
// ends at the same point but starts six days earlier.
func ResolveRange(input RangeInput, now time.Time, loc *time.Location) (Range, error) {
	if input.From != nil || input.To != nil {
		if input.From == nil || input.To == nil {
			return Range{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
		}
		start, end := input.From.UTC(), input.To.UTC()
		if !end.After(start) {
			return Range{}, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from")
		}
		return Range{Start: start, End: end}, nil
	}

	if loc == nil {
		loc = time.UTC
	}
	preset := input.Preset
	if preset == "" {
		preset = enums.AnalyticsRangeToday
	}

	local := now.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	tomorrow := midnight.AddDate(0, 0, 1)

	var start, end time.Time
	switch preset {
	case enums.AnalyticsRangeToday:
		start, end = midnight, tomorrow
	case enums.AnalyticsRangeYesterday:
		start, end = midnight.AddDate(0, 0, -1), midnight
	case enums.AnalyticsRangeLast7Days:
		start, end = midnight.AddDate(0, 0, -6), tomorrow
	case enums.AnalyticsRangeLast30Days:
		start, end = midnight.AddDate(0, 0, -29), tomorrow
	default:
		return Range{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid range %q", preset)
	}
	return Range{Start: start.UTC(), End: end.UTC()}, nil
}
