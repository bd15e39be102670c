package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

type recordingObserver struct {
	outcomes []string
	attempts []int
}

func (r *recordingObserver) ObserveTransaction(outcome string, attempts int, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
	r.attempts = append(r.attempts, attempts)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:dbclient_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	obs := &recordingObserver{}
	client := NewFromConn(db, WithObserver(obs))

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
	if len(obs.outcomes) != 2 || obs.outcomes[0] != TxCommitted || obs.outcomes[1] != TxRolledBack {
		t.Fatalf("unexpected outcomes %v", obs.outcomes)
	}
}

func TestWithTx_PassesTypedErrorsThrough(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	want := pkgerrors.New(pkgerrors.CodeInsufficientStock, "flour")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected typed error to pass through, got %v", err)
	}
}

func TestWithTx_RetriesSerializationFailures(t *testing.T) {
	obs := &recordingObserver{}
	client := NewFromConn(newTestDB(t), WithRetries(3, 0), WithObserver(obs))

	calls := 0
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		}
		return tx.Create(&testModel{Name: "third time"}).Error
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if obs.attempts[0] != 3 || obs.outcomes[0] != TxCommitted {
		t.Fatalf("unexpected observation %v %v", obs.outcomes, obs.attempts)
	}
}

func TestWithTx_ExhaustedRetriesSurfaceConcurrency(t *testing.T) {
	obs := &recordingObserver{}
	client := NewFromConn(newTestDB(t), WithRetries(2, 0), WithObserver(obs))

	calls := 0
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		calls++
		return pkgerrors.Wrap(pkgerrors.CodeDependency, &pgconn.PgError{Code: "40P01"}, "lock inventory")
	})
	if calls != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got %d", calls)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConcurrency {
		t.Fatalf("expected concurrency error, got %v", err)
	}
	if !typed.Retryable() {
		t.Fatalf("concurrency errors should be retryable")
	}
	if obs.outcomes[0] != TxConflict {
		t.Fatalf("expected conflict outcome, got %v", obs.outcomes)
	}
}

func TestWithTx_TimeoutSurfacesTimeoutCode(t *testing.T) {
	obs := &recordingObserver{}
	client := NewFromConn(newTestDB(t), WithTxTimeout(20*time.Millisecond), WithObserver(obs))

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		<-tx.Statement.Context.Done()
		return tx.Statement.Context.Err()
	})
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeTimeout {
		t.Fatalf("expected timeout code, got %s (%v)", code, err)
	}
	if obs.outcomes[0] != TxTimeout {
		t.Fatalf("expected timeout outcome, got %v", obs.outcomes)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Fatal("serialization failure should be retryable")
	}
	if IsRetryable(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation should not be retryable")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}, "") {
		t.Fatal("expected unique violation")
	}
	if !IsCheckViolation(errors.New("CHECK constraint failed: stock_non_negative")) {
		t.Fatal("expected sqlite check violation to be detected")
	}
}

func TestPing(t *testing.T) {
	client := NewFromConn(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}
