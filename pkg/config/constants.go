package config

// EnvPrefix is handed to envconfig; every field carries an explicit name.
const EnvPrefix = "SB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	AdminPolicyStatic = "static"
	AdminPolicyToken  = "token"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "SB_APP_ENV"
	EnvPort              = "SB_APP_PORT"
	EnvAdminPolicy       = "SB_ADMIN_POLICY"
	EnvAdminDeveloperID  = "SB_ADMIN_DEVELOPER_ID"
	EnvAdminTokenSecret  = "SB_ADMIN_TOKEN_SECRET"
	EnvStoreDriver       = "SB_STORE_DRIVER"
	EnvStoreDir          = "SB_STORE_DIR"
	EnvDBDSN             = "SB_DB_DSN"
	EnvDBHost            = "SB_DB_HOST"
	EnvDBUser            = "SB_DB_USER"
	EnvDBName            = "SB_DB_NAME"
	EnvRedisURL          = "SB_REDIS_URL"
	EnvFeedRetention     = "SB_NOTIFICATIONS_RETENTION"
	EnvAnnouncementEvery = "SB_ANNOUNCEMENT_REPEAT_INTERVAL"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
