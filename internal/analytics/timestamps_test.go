package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
)

func TestResolveRangePresets(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 23:30 UTC on Mar 1 is already Mar 2 in loc
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	localMidnight := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	cases := []struct {
		preset     enums.AnalyticsRange
		start, end time.Time
	}{
		{enums.AnalyticsRangeToday, localMidnight, localMidnight.AddDate(0, 0, 1)},
		{"", localMidnight, localMidnight.AddDate(0, 0, 1)},
		{enums.AnalyticsRangeYesterday, localMidnight.AddDate(0, 0, -1), localMidnight},
		{enums.AnalyticsRangeLast7Days, localMidnight.AddDate(0, 0, -6), localMidnight.AddDate(0, 0, 1)},
		{enums.AnalyticsRangeLast30Days, localMidnight.AddDate(0, 0, -29), localMidnight.AddDate(0, 0, 1)},
	}
	for _, tc := range cases {
		rng, err := ResolveRange(RangeInput{Preset: tc.preset}, now, loc)
		require.NoError(t, err, tc.preset)
		assert.True(t, rng.Start.Equal(tc.start), "%s start %s", tc.preset, rng.Start)
		assert.True(t, rng.End.Equal(tc.end), "%s end %s", tc.preset, rng.End)
		assert.Equal(t, time.UTC, rng.Start.Location())
	}
}

func TestResolveRangeExplicitBounds(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)

	rng, err := ResolveRange(RangeInput{From: &from, To: &to, Preset: enums.AnalyticsRangeToday}, time.Now(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, from, rng.Start)
	assert.Equal(t, to, rng.End)

	_, err = ResolveRange(RangeInput{From: &from}, time.Now(), time.UTC)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ResolveRange(RangeInput{From: &to, To: &from}, time.Now(), time.UTC)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ResolveRange(RangeInput{Preset: "last_year"}, time.Now(), time.UTC)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
