package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Bookings     BookingsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHAREIT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHAREIT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHAREIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHAREIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHAREIT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHAREIT_DB_DSN"`
	Driver string `envconfig:"SHAREIT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHAREIT_DB_HOST"`
	LegacyPort     int    `envconfig:"SHAREIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHAREIT_DB_USER"`
	LegacyPassword string `envconfig:"SHAREIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHAREIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHAREIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHAREIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHAREIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHAREIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHAREIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHAREIT_REDIS_URL"`
	Address      string        `envconfig:"SHAREIT_REDIS_ADDR"`
	Password     string        `envconfig:"SHAREIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHAREIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHAREIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHAREIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHAREIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHAREIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHAREIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite        bool `envconfig:"SHAREIT_USE_SQLITE" default:"false"`
	AutoMigrate      bool `envconfig:"SHAREIT_AUTO_MIGRATE" default:"false"`
	DistributedLocks bool `envconfig:"SHAREIT_DISTRIBUTED_LOCKS" default:"false"`
}

// BookingsConfig tunes the per-item serialization used by booking commands.
type BookingsConfig struct {
	LockTTL      time.Duration `envconfig:"SHAREIT_BOOKING_LOCK_TTL" default:"10s"`
	LockWait     time.Duration `envconfig:"SHAREIT_BOOKING_LOCK_WAIT" default:"3s"`
	LockRetryGap time.Duration `envconfig:"SHAREIT_BOOKING_LOCK_RETRY_GAP" default:"25ms"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHAREIT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	BookingsTopic string `envconfig:"SHAREIT_PUBSUB_BOOKINGS_TOPIC" default:"shareit-booking-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHAREIT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHAREIT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHAREIT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if sqlite {
		db.Driver = DBDriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:shareit.db?cache=shared"
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
