package config

const EnvPrefix = "LOJAFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AdapterGORM = "gorm"
	AdapterSQL  = "sql"
)

const (
	EnvAppEnv         = "LOJAFLOW_APP_ENV"
	EnvPort           = "LOJAFLOW_APP_PORT"
	EnvLogLevel       = "LOJAFLOW_LOG_LEVEL"
	EnvDBDSN          = "LOJAFLOW_DB_DSN"
	EnvDBDriver       = "LOJAFLOW_DB_DRIVER"
	EnvDBHost         = "LOJAFLOW_DB_HOST"
	EnvDBPort         = "LOJAFLOW_DB_PORT"
	EnvDBUser         = "LOJAFLOW_DB_USER"
	EnvDBPassword     = "LOJAFLOW_DB_PASSWORD"
	EnvDBName         = "LOJAFLOW_DB_NAME"
	EnvStorageAdapter = "LOJAFLOW_STORAGE_ADAPTER"
	EnvRedisURL       = "LOJAFLOW_REDIS_URL"
	EnvOrdersNodeID   = "LOJAFLOW_ORDERS_NODE_ID"
	EnvOrdersRetain   = "LOJAFLOW_ORDERS_PURGE_RETENTION"
	EnvOrdersAuditTZ  = "LOJAFLOW_ORDERS_AUDIT_TZ"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
