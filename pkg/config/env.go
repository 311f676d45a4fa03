package config

// EnvPrefix is the envconfig namespace used by every ShareIt binary.
const EnvPrefix = "SHAREIT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "SHAREIT_APP_ENV"
	EnvPort     = "SHAREIT_APP_PORT"
	EnvLogLevel = "SHAREIT_LOG_LEVEL"

	EnvDBDSN      = "SHAREIT_DB_DSN"
	EnvDBDriver   = "SHAREIT_DB_DRIVER"
	EnvDBHost     = "SHAREIT_DB_HOST"
	EnvDBPort     = "SHAREIT_DB_PORT"
	EnvDBUser     = "SHAREIT_DB_USER"
	EnvDBPassword = "SHAREIT_DB_PASSWORD"
	EnvDBName     = "SHAREIT_DB_NAME"

	EnvRedisURL = "SHAREIT_REDIS_URL"

	EnvUseSQLite        = "SHAREIT_USE_SQLITE"
	EnvDistributedLocks = "SHAREIT_DISTRIBUTED_LOCKS"

	EnvBookingLockTTL  = "SHAREIT_BOOKING_LOCK_TTL"
	EnvBookingLockWait = "SHAREIT_BOOKING_LOCK_WAIT"

	EnvGCPProjectID        = "SHAREIT_GCP_PROJECT_ID"
	EnvPubSubBookingsTopic = "SHAREIT_PUBSUB_BOOKINGS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
