package inventory

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tableside/pos-backend/pkg/db"
	"github.com/tableside/pos-backend/pkg/db/dbtest"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
)

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return conn, mock
}

func TestLockRecordsLocksRowsInIngredientOrder(t *testing.T) {
	conn, mock := newMockPostgres(t)

	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "inventory" WHERE ingredient_id IN ($1,$2) ORDER BY ingredient_id ASC FOR UPDATE`)).
		WithArgs(a.String(), b.String()).
		WillReturnRows(sqlmock.NewRows([]string{"ingredient_id", "stock_quantity", "updated_at"}).
			AddRow(a.String(), "12.500", time.Now()).
			AddRow(b.String(), "3.000", time.Now()))

	records, err := NewRepository(conn).LockRecords(context.Background(), []uuid.UUID{b, a, b})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, a, records[0].IngredientID)
	assert.True(t, records[0].StockQuantity.Equal(decimal.RequireFromString("12.5")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRecordsSkipsEmptyInput(t *testing.T) {
	conn, mock := newMockPostgres(t)

	records, err := NewRepository(conn).LockRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListStockFlagsLowStock(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "stock_list")
	mustIngredient(t, conn, "basil", "4")
	mustIngredient(t, conn, "tomato", "40")
	mustIngredient(t, conn, "truffle", "")

	low := decimal.NewFromInt(10)
	rows, err := NewRepository(conn).ListStock(context.Background(), StockFilters{MaxQuantity: &low})
	require.NoError(t, err)
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	assert.Equal(t, []string{"basil", "truffle"}, names)

	rows, err = NewRepository(conn).ListStock(context.Background(), StockFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

// Runs against a migrated Postgres when TABLESIDE_TEST_DB_DSN is set and
// proves that row locks let only one of two overdrafting deductions commit.
func TestConcurrentDeductionsPostgres(t *testing.T) {
	conn := dbtest.OpenPostgres(t)
	client := db.NewFromConn(conn, db.WithTxTimeout(10*time.Second))

	ctx := context.Background()
	ingredient := mustIngredient(t, conn, "pg-"+uuid.NewString(), "5")
	dish := mustDish(t, conn, map[uuid.UUID]string{ingredient: "3"})

	deductor, err := NewDeductor(NewRepository(conn), recipeTable{}, WithGlobalCheck(false))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.WithTx(ctx, func(tx *gorm.DB) error {
				_, err := deductor.Deduct(ctx, tx, ItemRef{ItemID: uuid.New(), DishID: dish, Quantity: 1})
				return err
			})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.True(t, stockOf(t, conn, ingredient).Equal(decimal.NewFromInt(2)))
}
