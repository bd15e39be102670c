package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/tableside/pos-backend/pkg/config"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
	"github.com/tableside/pos-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Transaction outcomes reported to a TxObserver.
const (
	TxCommitted  = "committed"
	TxRolledBack = "rolled_back"
	TxConflict   = "conflict"
	TxTimeout    = "timeout"
)

// Client wraps the shared GORM connection.
type Client struct {
	conn       *gorm.DB
	txTimeout  time.Duration
	maxRetries int
	retryDelay time.Duration
	observer   TxObserver
	logg       *logger.Logger
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxObserver receives one call per WithTx invocation.
type TxObserver interface {
	ObserveTransaction(outcome string, attempts int, elapsed time.Duration)
}

// Option customises a Client.
type Option func(*Client)

// WithTxTimeout bounds each transaction attempt.
func WithTxTimeout(d time.Duration) Option {
	return func(c *Client) { c.txTimeout = d }
}

// WithRetries sets how many extra attempts a transaction gets after a
// serialization failure or deadlock, and the base delay between them.
func WithRetries(max int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.retryDelay = delay
	}
}

func WithObserver(o TxObserver) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) { c.logg = logg }
}

// New boots a GORM client using the provided configuration.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	gormCfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}

	applyPoolSettings(sqlDB, cfg)

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if logg != nil {
		logg.Info(ctx, "database connection established")
	}

	base := []Option{
		WithTxTimeout(cfg.TxTimeout),
		WithRetries(cfg.TxMaxRetries, cfg.TxRetryDelay),
		WithLogger(logg),
	}
	return NewFromConn(conn, append(base, opts...)...), nil
}

// NewFromConn wraps an already opened connection.
func NewFromConn(conn *gorm.DB, opts ...Option) *Client {
	c := &Client{conn: conn}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	return c
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// SQL returns the database/sql handle, used by the migration runner.
func (c *Client) SQL() (*sql.DB, error) {
	return c.conn.DB()
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Exec wraps GORM's Exec with context propagation.
func (c *Client) Exec(ctx context.Context, query string, args ...any) *gorm.DB {
	return c.conn.WithContext(ctx).Exec(query, args...)
}

// Raw wraps GORM's Raw with context propagation.
func (c *Client) Raw(ctx context.Context, query string, args ...any) *gorm.DB {
	return c.conn.WithContext(ctx).Raw(query, args...)
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
//
// Every attempt runs under the configured timeout. Serialization failures and
// deadlocks restart fn from scratch, so fn must not keep state across calls.
// Once retries are exhausted the error surfaces as CodeConcurrency; an attempt
// that outlives its timeout surfaces as CodeTimeout.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	attempts := 0
	var err error

	for {
		attempts++
		err = c.runTx(ctx, fn)
		if err == nil || !IsRetryable(err) || attempts > c.maxRetries {
			break
		}
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "attempt", attempts), "db.tx.retry")
		}
		if waitErr := sleepCtx(ctx, backoff(c.retryDelay, attempts)); waitErr != nil {
			err = waitErr
			break
		}
	}

	outcome := TxCommitted
	switch {
	case err == nil:
	case IsRetryable(err):
		outcome = TxConflict
		err = pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "transaction aborted by a concurrent update")
	case pkgerrors.IsCode(err, pkgerrors.CodeTimeout):
		outcome = TxTimeout
	default:
		outcome = TxRolledBack
	}
	if c.observer != nil {
		c.observer.ObserveTransaction(outcome, attempts, time.Since(start))
	}
	return err
}

func (c *Client) runTx(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	txCtx := ctx
	if c.txTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, c.txTimeout)
		defer cancel()
	}

	defer func() {
		if err != nil && ctx.Err() == nil && errors.Is(txCtx.Err(), context.DeadlineExceeded) && !pkgerrors.IsCode(err, pkgerrors.CodeTimeout) {
			err = pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "transaction timed out")
		}
	}()

	tx := c.conn.WithContext(txCtx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	return base * time.Duration(1<<uint(attempt-1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
