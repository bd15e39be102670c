package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/redis"
)

// Service produces sales rankings and summaries over order snapshots.
type Service interface {
	Sales(ctx context.Context, input SalesInput) (*SalesReport, error)
	Summary(ctx context.Context, input RangeInput) (*Summary, error)
}

type service struct {
	repo         Repository
	loc          *time.Location
	defaultLimit int
	cache        redis.CacheStore
	cacheTTL     time.Duration
	logg         *logger.Logger
	now          func() time.Time
}

// Option customises the analytics service.
type Option func(*service)

// WithCache stores reports of closed windows in Redis for ttl. Windows that
// end after now always hit the database.
func WithCache(store redis.CacheStore, ttl time.Duration) Option {
	return func(s *service) {
		s.cache = store
		s.cacheTTL = ttl
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *service) { s.logg = logg }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService builds the analytics service. loc is the business time zone
// presets are resolved in.
func NewService(repo Repository, loc *time.Location, defaultLimit int, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = 10
	}
	s := &service{
		repo:         repo,
		loc:          loc,
		defaultLimit: defaultLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Sales(ctx context.Context, input SalesInput) (*SalesReport, error) {
	rng, err := ResolveRange(input.Range, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	groupBy := input.GroupBy
	if groupBy == "" {
		groupBy = enums.AnalyticsGroupByDish
	}
	metric := input.Metric
	if metric == "" {
		metric = enums.AnalyticsMetricRevenue
	}
	limit := input.Limit
	switch {
	case limit < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit cannot be negative")
	case limit == 0:
		limit = s.defaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	q := salesQuery{
		Range:    rng,
		DishID:   input.DishID,
		Category: strings.TrimSpace(input.Category),
		GroupBy:  groupBy,
		Metric:   metric,
		Limit:    limit,
	}

	report := &SalesReport{Range: rng, GroupBy: groupBy, Metric: metric}
	key := s.cacheKey("sales", rng, q)
	if s.readCache(ctx, key, report) {
		return report, nil
	}

	rows, err := s.repo.Sales(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query sales")
	}
	if rows == nil {
		rows = []SalesRow{}
	}
	report.Rows = rows
	s.writeCache(ctx, key, report)
	return report, nil
}

func (s *service) Summary(ctx context.Context, input RangeInput) (*Summary, error) {
	rng, err := ResolveRange(input, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	var cached Summary
	key := s.cacheKey("summary", rng, rng)
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	summary, err := s.repo.Summary(ctx, rng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query summary")
	}
	s.writeCache(ctx, key, summary)
	return summary, nil
}

// cacheKey returns "" when the report must not be cached.
func (s *service) cacheKey(scope string, rng Range, params any) string {
	if s.cache == nil || rng.End.After(s.now()) {
		return ""
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return s.cache.CacheKey("analytics", scope+":"+string(raw))
}

// readCache fills dst on a hit. Cache failures fall through to the database.
func (s *service) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil || key == "" {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsMiss(err) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.cache.read_failed")
		}
		return false
	}
	return json.Unmarshal([]byte(raw), dst) == nil
}

func (s *service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || key == "" || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.cache.write_failed")
	}
}
