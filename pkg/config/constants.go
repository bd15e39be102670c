package config

const (
	EnvPrefix = "TABLESIDE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "TABLESIDE_APP_ENV"
	EnvPort     = "TABLESIDE_APP_PORT"
	EnvLogLevel = "TABLESIDE_LOG_LEVEL"

	EnvDBDSN       = "TABLESIDE_DB_DSN"
	EnvDBHost      = "TABLESIDE_DB_HOST"
	EnvDBUser      = "TABLESIDE_DB_USER"
	EnvDBName      = "TABLESIDE_DB_NAME"
	EnvDBTxTimeout = "TABLESIDE_DB_TX_TIMEOUT"
	EnvDBTxRetries = "TABLESIDE_DB_TX_MAX_RETRIES"

	EnvRedisURL = "TABLESIDE_REDIS_URL"

	EnvInventoryCheckScope = "TABLESIDE_INVENTORY_CHECK_SCOPE"
	EnvAnalyticsTimezone   = "TABLESIDE_ANALYTICS_TIMEZONE"

	EnvGCPProjectID      = "TABLESIDE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "TABLESIDE_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// Inventory check scopes. Global scans the whole inventory table for negative
// stock after a deduction; touched only looks at the rows the deduction wrote.
const (
	InventoryCheckGlobal  = "global"
	InventoryCheckTouched = "touched"
)
