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
	DB           DBConfig
	Storage      StorageConfig
	Redis        RedisConfig
	Orders       OrdersConfig
	Maintenance  MaintenanceConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Orders.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"LOJAFLOW_APP_ENV" required:"true"`
	Port         string   `envconfig:"LOJAFLOW_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"LOJAFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"LOJAFLOW_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"LOJAFLOW_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"LOJAFLOW_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOJAFLOW_DB_DSN"`
	Driver string `envconfig:"LOJAFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOJAFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"LOJAFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOJAFLOW_DB_USER"`
	LegacyPassword string `envconfig:"LOJAFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOJAFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOJAFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOJAFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOJAFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOJAFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOJAFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured engine is SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

// StorageConfig selects which data-access adapter serves the services.
type StorageConfig struct {
	Adapter string `envconfig:"LOJAFLOW_STORAGE_ADAPTER" default:"gorm"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Adapter)) {
	case AdapterGORM, AdapterSQL:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q, got %q", EnvStorageAdapter, AdapterGORM, AdapterSQL, s.Adapter)
}

type RedisConfig struct {
	URL          string        `envconfig:"LOJAFLOW_REDIS_URL"`
	Address      string        `envconfig:"LOJAFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"LOJAFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOJAFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOJAFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOJAFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOJAFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOJAFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOJAFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type OrdersConfig struct {
	NodeID         int64         `envconfig:"LOJAFLOW_ORDERS_NODE_ID" default:"1"`
	PurgeRetention time.Duration `envconfig:"LOJAFLOW_ORDERS_PURGE_RETENTION" default:"4320h"`
	AuditTimeZone  string        `envconfig:"LOJAFLOW_ORDERS_AUDIT_TZ" default:"UTC"`
}

// Location resolves the zone used for audit note timestamps and the maintenance schedule.
func (o OrdersConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(o.AuditTimeZone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvOrdersAuditTZ, err)
	}
	return loc, nil
}

// MaintenanceConfig drives the background purge worker.
type MaintenanceConfig struct {
	Schedule string        `envconfig:"LOJAFLOW_MAINTENANCE_SCHEDULE" default:"@daily"`
	LockTTL  time.Duration `envconfig:"LOJAFLOW_MAINTENANCE_LOCK_TTL" default:"1h"`

	// MetricsAddr, when set, serves /metrics from the worker (e.g. ":9102").
	MetricsAddr string `envconfig:"LOJAFLOW_MAINTENANCE_METRICS_ADDR"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOJAFLOW_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DriverSQLite)
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
