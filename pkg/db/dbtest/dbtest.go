// Package dbtest opens throwaway databases for repository and service tests.
package dbtest

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tableside/pos-backend/pkg/db"
	"github.com/tableside/pos-backend/pkg/db/models"
)

// PostgresDSNEnv names the DSN used by the optional Postgres integration tests.
const PostgresDSNEnv = "TABLESIDE_TEST_DB_DSN"

// OpenSQLite returns a migrated in-memory database private to the test. The
// pool is limited to one connection so concurrent transactions serialize
// the way row locks make them serialize on Postgres.
func OpenSQLite(t testing.TB, name string) *gorm.DB {
	t.Helper()

	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared&_fk=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// NewClient wraps OpenSQLite in a db.Client.
func NewClient(t testing.TB, name string, opts ...db.Option) *db.Client {
	t.Helper()
	return db.NewFromConn(OpenSQLite(t, name), opts...)
}

// OpenPostgres connects to the database named by TABLESIDE_TEST_DB_DSN and
// skips the test when it is unset. The schema is expected to be migrated.
func OpenPostgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", PostgresDSNEnv)
	}
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("postgres handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
