package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Inventory    InventoryConfig
	Analytics    AnalyticsConfig
	Idempotency  IdempotencyConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Analytics.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TABLESIDE_APP_ENV" required:"true"`
	Port         string `envconfig:"TABLESIDE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TABLESIDE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TABLESIDE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"TABLESIDE_LOG_FORMAT" default:"json"`
	// CORSOrigins is the comma separated allow list for the admin and waiter UIs.
	CORSOrigins     []string      `envconfig:"TABLESIDE_CORS_ORIGINS" default:"http://localhost:5173"`
	ShutdownTimeout time.Duration `envconfig:"TABLESIDE_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TABLESIDE_DB_DSN"`
	Driver string `envconfig:"TABLESIDE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TABLESIDE_DB_HOST"`
	LegacyPort     int    `envconfig:"TABLESIDE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABLESIDE_DB_USER"`
	LegacyPassword string `envconfig:"TABLESIDE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABLESIDE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABLESIDE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABLESIDE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABLESIDE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABLESIDE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABLESIDE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// TxTimeout bounds every service transaction. Zero disables the bound.
	TxTimeout time.Duration `envconfig:"TABLESIDE_DB_TX_TIMEOUT" default:"5s"`
	// TxMaxRetries is how many extra attempts a transaction gets after a
	// serialization failure or deadlock.
	TxMaxRetries int           `envconfig:"TABLESIDE_DB_TX_MAX_RETRIES" default:"3"`
	TxRetryDelay time.Duration `envconfig:"TABLESIDE_DB_TX_RETRY_DELAY" default:"25ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TABLESIDE_REDIS_URL"`
	Address      string        `envconfig:"TABLESIDE_REDIS_ADDR"`
	Password     string        `envconfig:"TABLESIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABLESIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABLESIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABLESIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABLESIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABLESIDE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABLESIDE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TABLESIDE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TABLESIDE_AUTO_MIGRATE" default:"false"`
}

type InventoryConfig struct {
	CheckScope        string `envconfig:"TABLESIDE_INVENTORY_CHECK_SCOPE" default:"global"`
	LowStockThreshold string `envconfig:"TABLESIDE_INVENTORY_LOW_STOCK_THRESHOLD" default:"10"`
}

func (i InventoryConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(i.CheckScope)) {
	case InventoryCheckGlobal, InventoryCheckTouched:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvInventoryCheckScope, InventoryCheckGlobal, InventoryCheckTouched, i.CheckScope)
	}
	if _, err := i.Threshold(); err != nil {
		return err
	}
	return nil
}

// Threshold parses the low stock level. Empty means zero.
func (i InventoryConfig) Threshold() (decimal.Decimal, error) {
	raw := strings.TrimSpace(i.LowStockThreshold)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing low stock threshold %q: %w", raw, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("low stock threshold cannot be negative")
	}
	return value, nil
}

// GlobalCheck reports whether deductions verify the whole inventory table.
func (i InventoryConfig) GlobalCheck() bool {
	return !strings.EqualFold(strings.TrimSpace(i.CheckScope), InventoryCheckTouched)
}

type AnalyticsConfig struct {
	Timezone     string `envconfig:"TABLESIDE_ANALYTICS_TIMEZONE" default:"UTC"`
	DefaultLimit int    `envconfig:"TABLESIDE_ANALYTICS_DEFAULT_LIMIT" default:"10"`
	// CacheTTL bounds how long finished reports are served from Redis. Zero disables caching.
	CacheTTL time.Duration `envconfig:"TABLESIDE_ANALYTICS_CACHE_TTL" default:"60s"`
}

// Location resolves the business time zone used for range presets.
func (a AnalyticsConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvAnalyticsTimezone, err)
	}
	return loc, nil
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"TABLESIDE_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TABLESIDE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TABLESIDE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TABLESIDE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"TABLESIDE_PUBSUB_ORDERS_TOPIC" default:"tableside-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TABLESIDE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TABLESIDE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TABLESIDE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the cron worker.
type MaintenanceConfig struct {
	Interval        time.Duration `envconfig:"TABLESIDE_MAINTENANCE_INTERVAL" default:"1h"`
	OutboxRetention time.Duration `envconfig:"TABLESIDE_MAINTENANCE_OUTBOX_RETENTION" default:"720h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:tableside.db?cache=shared&_fk=1"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
