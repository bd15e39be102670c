package analytics

import (
	"context"

	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/enums"
)

// Repository runs the read-only aggregations. Names and prices come from the
// order item snapshots; categories come from the live dish row.
type Repository interface {
	Sales(ctx context.Context, q salesQuery) ([]SalesRow, error)
	Summary(ctx context.Context, rng Range) (*Summary, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an analytics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

var metricColumns = map[enums.AnalyticsMetric]string{
	enums.AnalyticsMetricRevenue:  "revenue",
	enums.AnalyticsMetricQuantity: "quantity",
}

func (r *repository) billableItems(ctx context.Context, rng Range) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("order_items AS oi").
		Joins("JOIN orders AS o ON o.id = oi.order_id").
		Joins("LEFT JOIN dishes AS d ON d.id = oi.dish_id").
		Where("o.created_at >= ? AND o.created_at < ?", rng.Start.UTC(), rng.End.UTC()).
		Where("o.status <> ? AND oi.status <> ?", enums.OrderStatusCancelled, enums.OrderItemStatusCancelled)
}

func (r *repository) Sales(ctx context.Context, q salesQuery) ([]SalesRow, error) {
	metric, ok := metricColumns[q.Metric]
	if !ok {
		metric = metricColumns[enums.AnalyticsMetricRevenue]
	}

	query := r.billableItems(ctx, q.Range)
	if q.DishID != nil {
		query = query.Where("oi.dish_id = ?", *q.DishID)
	}
	if q.Category != "" {
		query = query.Where("d.category = ?", q.Category)
	}

	if q.GroupBy == enums.AnalyticsGroupByCategory {
		query = query.
			Select("COALESCE(d.category, '') AS name, COALESCE(d.category, '') AS category, " +
				"SUM(oi.quantity) AS quantity, SUM(oi.quantity * oi.price_snapshot) AS revenue").
			Group("COALESCE(d.category, '')")
	} else {
		query = query.
			Select("oi.dish_id AS dish_id, MIN(oi.dish_name_snapshot) AS name, COALESCE(MIN(d.category), '') AS category, " +
				"SUM(oi.quantity) AS quantity, SUM(oi.quantity * oi.price_snapshot) AS revenue").
			Group("oi.dish_id")
	}

	var rows []SalesRow
	err := query.
		Order(metric + " DESC, name ASC").
		Limit(q.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Summary(ctx context.Context, rng Range) (*Summary, error) {
	out := &Summary{Range: rng}

	var orders struct {
		OrderCount   int64 `gorm:"column:order_count"`
		GrossRevenue int64 `gorm:"column:gross_revenue"`
	}
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("COUNT(*) AS order_count, COALESCE(SUM(o.order_total), 0) AS gross_revenue").
		Where("o.created_at >= ? AND o.created_at < ?", rng.Start.UTC(), rng.End.UTC()).
		Where("o.status <> ?", enums.OrderStatusCancelled).
		Scan(&orders).Error
	if err != nil {
		return nil, err
	}

	var items struct {
		ItemsSold int64 `gorm:"column:items_sold"`
	}
	if err := r.billableItems(ctx, rng).Select("COALESCE(SUM(oi.quantity), 0) AS items_sold").Scan(&items).Error; err != nil {
		return nil, err
	}

	out.OrderCount = orders.OrderCount
	out.GrossRevenue = orders.GrossRevenue
	out.ItemsSold = items.ItemsSold
	if out.OrderCount > 0 {
		out.AverageOrderValue = out.GrossRevenue / out.OrderCount
	}
	return out, nil
}
