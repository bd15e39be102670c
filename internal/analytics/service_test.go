package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/internal/orders"
	"github.com/tableside/pos-backend/pkg/db/dbtest"
	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
	"github.com/tableside/pos-backend/pkg/outbox"
	"github.com/tableside/pos-backend/pkg/redis"
)

var testNow = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

type env struct {
	conn      *gorm.DB
	catalog   catalog.Service
	orders    orders.Service
	analytics Service
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	client := dbtest.NewClient(t, "analytics")
	conn := client.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)

	cat, err := catalog.NewService(catalog.NewRepository(conn), client, emitter, nil)
	require.NoError(t, err)
	deductor, err := inventory.NewDeductor(inventory.NewRepository(conn), cat)
	require.NoError(t, err)
	ord, err := orders.NewService(orders.NewRepository(conn), client, cat, deductor, emitter,
		orders.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	svc, err := NewService(NewRepository(conn), time.UTC, 10, opts...)
	require.NoError(t, err)
	return &env{conn: conn, catalog: cat, orders: ord, analytics: svc}
}

func (e *env) dish(t *testing.T, name, category string, price int, recipe []catalog.RecipeInput) uuid.UUID {
	t.Helper()
	dto, err := e.catalog.CreateDish(context.Background(), catalog.CreateDishInput{
		Name: name, Category: category, PriceCents: price, IsActive: true, Recipe: recipe,
	})
	require.NoError(t, err)
	return dto.ID
}

func TestServeCancelAndReportToday(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	flour, err := e.catalog.CreateIngredient(ctx, catalog.CreateIngredientInput{Name: "flour", Unit: enums.IngredientUnitGram, InitialStock: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	dishA := e.dish(t, "A", "mains", 500, []catalog.RecipeInput{{IngredientID: flour.ID, QuantityNeeded: decimal.NewFromInt(100)}})
	dishB := e.dish(t, "B", "desserts", 300, nil)

	order, err := e.orders.CreateOrder(ctx, orders.CreateOrderInput{Tag: "T1", Items: []orders.ItemInput{{DishID: dishA, Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, 1000, order.OrderTotal)

	served := true
	_, err = e.orders.SetItemServed(ctx, orders.SetServedInput{OrderID: order.ID, ItemID: order.Items[0].ID, Served: &served})
	require.NoError(t, err)
	_, err = e.orders.SetItemServed(ctx, orders.SetServedInput{OrderID: order.ID, ItemID: order.Items[0].ID, Served: &served})
	require.NoError(t, err)

	var record models.InventoryRecord
	require.NoError(t, e.conn.Where("ingredient_id = ?", flour.ID).First(&record).Error)
	assert.True(t, record.StockQuantity.Equal(decimal.NewFromInt(800)), record.StockQuantity.String())

	withB, err := e.orders.AddItems(ctx, order.ID, []orders.ItemInput{{DishID: dishB, Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, 1300, withB.OrderTotal)
	cancelled, err := e.orders.CancelItem(ctx, order.ID, withB.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, cancelled.OrderTotal)

	report, err := e.analytics.Sales(ctx, SalesInput{Range: RangeInput{Preset: enums.AnalyticsRangeToday}})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	require.NotNil(t, row.DishID)
	assert.Equal(t, dishA, *row.DishID)
	assert.Equal(t, "A", row.Name)
	assert.Equal(t, int64(1000), row.Revenue)
	assert.Equal(t, int64(2), row.Quantity)

	yesterday, err := e.analytics.Sales(ctx, SalesInput{Range: RangeInput{Preset: enums.AnalyticsRangeYesterday}})
	require.NoError(t, err)
	assert.Empty(t, yesterday.Rows)

	summary, err := e.analytics.Summary(ctx, RangeInput{Preset: enums.AnalyticsRangeToday})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.OrderCount)
	assert.Equal(t, int64(2), summary.ItemsSold)
	assert.Equal(t, int64(1000), summary.GrossRevenue)
	assert.Equal(t, int64(1000), summary.AverageOrderValue)
}

func TestSalesSortingAndLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	soup := e.dish(t, "Soup", "starters", 400, nil)
	salad := e.dish(t, "Salad", "starters", 200, nil)
	steak := e.dish(t, "Steak", "mains", 2000, nil)

	_, err := e.orders.CreateOrder(ctx, orders.CreateOrderInput{Tag: "T1", Items: []orders.ItemInput{
		{DishID: soup, Quantity: 1}, {DishID: salad, Quantity: 2}, {DishID: steak, Quantity: 1},
	}})
	require.NoError(t, err)

	byQty, err := e.analytics.Sales(ctx, SalesInput{Metric: enums.AnalyticsMetricQuantity})
	require.NoError(t, err)
	require.Len(t, byQty.Rows, 3)
	assert.Equal(t, "Salad", byQty.Rows[0].Name)
	// Soup and Steak tie on quantity and fall back to name order
	assert.Equal(t, "Soup", byQty.Rows[1].Name)
	assert.Equal(t, "Steak", byQty.Rows[2].Name)

	top, err := e.analytics.Sales(ctx, SalesInput{Metric: enums.AnalyticsMetricRevenue, Limit: 1})
	require.NoError(t, err)
	require.Len(t, top.Rows, 1)
	assert.Equal(t, "Steak", top.Rows[0].Name)

	starters, err := e.analytics.Sales(ctx, SalesInput{Category: "starters"})
	require.NoError(t, err)
	assert.Len(t, starters.Rows, 2)

	onlySoup, err := e.analytics.Sales(ctx, SalesInput{DishID: &soup})
	require.NoError(t, err)
	require.Len(t, onlySoup.Rows, 1)
	assert.Equal(t, int64(400), onlySoup.Rows[0].Revenue)
}

func TestCategoryGroupingFollowsCurrentCatalog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	wings := e.dish(t, "Wings", "starters", 900, nil)
	burger := e.dish(t, "Burger", "mains", 1500, nil)
	_, err := e.orders.CreateOrder(ctx, orders.CreateOrderInput{Tag: "T1", Items: []orders.ItemInput{
		{DishID: wings, Quantity: 1}, {DishID: burger, Quantity: 1},
	}})
	require.NoError(t, err)

	before, err := e.analytics.Sales(ctx, SalesInput{GroupBy: enums.AnalyticsGroupByCategory})
	require.NoError(t, err)
	require.Len(t, before.Rows, 2)
	assert.Equal(t, "mains", before.Rows[0].Name)
	assert.Nil(t, before.Rows[0].DishID)

	mains := "mains"
	price := 1100
	_, err = e.catalog.UpdateDish(ctx, wings, catalog.UpdateDishInput{Category: &mains, PriceCents: &price})
	require.NoError(t, err)

	after, err := e.analytics.Sales(ctx, SalesInput{GroupBy: enums.AnalyticsGroupByCategory})
	require.NoError(t, err)
	require.Len(t, after.Rows, 1)
	assert.Equal(t, "mains", after.Rows[0].Category)
	// revenue keeps the snapshot price of wings, not the new one
	assert.Equal(t, int64(2400), after.Rows[0].Revenue)
}

func TestCancelledOrdersAreExcluded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pie := e.dish(t, "Pie", "desserts", 600, nil)
	order, err := e.orders.CreateOrder(ctx, orders.CreateOrderInput{Tag: "T1", Items: []orders.ItemInput{{DishID: pie, Quantity: 1}}})
	require.NoError(t, err)
	_, err = e.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)

	report, err := e.analytics.Sales(ctx, SalesInput{})
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
}

func newCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()})), mr
}

func TestOpenWindowBypassesCache(t *testing.T) {
	cache, mr := newCache(t)
	e := newEnv(t, WithCache(cache, time.Minute))
	ctx := context.Background()

	fish := e.dish(t, "Fish", "mains", 1800, nil)
	order, err := e.orders.CreateOrder(ctx, orders.CreateOrderInput{Tag: "T1", Items: []orders.ItemInput{{DishID: fish, Quantity: 1}}})
	require.NoError(t, err)

	first, err := e.analytics.Sales(ctx, SalesInput{})
	require.NoError(t, err)
	require.Len(t, first.Rows, 1)
	assert.Empty(t, mr.Keys(), "today is still open and must not be cached")

	_, err = e.orders.CancelItem(ctx, order.ID, order.Items[0].ID)
	require.NoError(t, err)

	after, err := e.analytics.Sales(ctx, SalesInput{})
	require.NoError(t, err)
	assert.Empty(t, after.Rows)

	summary, err := e.analytics.Summary(ctx, RangeInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.GrossRevenue)
	assert.Empty(t, mr.Keys())
}

func TestClosedWindowServedFromCache(t *testing.T) {
	cache, mr := newCache(t)
	nextDay := testNow.Add(24 * time.Hour)
	e := newEnv(t, WithCache(cache, time.Minute), WithClock(func() time.Time { return nextDay }))
	ctx := context.Background()
	yesterday := SalesInput{Range: RangeInput{Preset: enums.AnalyticsRangeYesterday}}

	fish := e.dish(t, "Fish", "mains", 1800, nil)
	_, err := e.orders.CreateOrder(ctx, orders.CreateOrderInput{Tag: "T1", Items: []orders.ItemInput{{DishID: fish, Quantity: 1}}})
	require.NoError(t, err)

	first, err := e.analytics.Sales(ctx, yesterday)
	require.NoError(t, err)
	require.Len(t, first.Rows, 1)
	require.NotEmpty(t, mr.Keys())

	_, err = e.orders.CreateOrder(ctx, orders.CreateOrderInput{Tag: "T2", Items: []orders.ItemInput{{DishID: fish, Quantity: 1}}})
	require.NoError(t, err)

	cached, err := e.analytics.Sales(ctx, yesterday)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), cached.Rows[0].Revenue)

	mr.FlushAll()
	fresh, err := e.analytics.Sales(ctx, yesterday)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), fresh.Rows[0].Revenue)
}
