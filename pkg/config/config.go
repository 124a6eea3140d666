package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	Admin          AdminConfig
	Store          StoreConfig
	DB             DBConfig
	Redis          RedisConfig
	Feed           FeedConfig
	ClaimRateLimit ClaimRateLimitConfig
	Delivery       DeliveryConfig
	Webhook        WebhookConfig
	CompanionBot   CompanionBotConfig
	Sendgrid       SendgridConfig
	GCP            GCPConfig
	PubSub         PubSubConfig
	AMQP           AMQPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Admin.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesDB() {
		if err := cfg.DB.ensureDSN(cfg.Store.Driver); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SB_APP_ENV" default:"dev"`
	Port         string   `envconfig:"SB_APP_PORT" default:"3001"`
	LogLevel     string   `envconfig:"SB_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SB_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool     `envconfig:"SB_AUTO_MIGRATE" default:"false"`
	CORSOrigins  []string `envconfig:"SB_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type AdminConfig struct {
	Policy      string        `envconfig:"SB_ADMIN_POLICY" default:"static"`
	DeveloperID string        `envconfig:"SB_ADMIN_DEVELOPER_ID" default:"1362553254117904496"`
	TokenSecret string        `envconfig:"SB_ADMIN_TOKEN_SECRET"`
	TokenIssuer string        `envconfig:"SB_ADMIN_TOKEN_ISSUER" default:"sb-premium"`
	TokenTTL    time.Duration `envconfig:"SB_ADMIN_TOKEN_TTL" default:"24h"`
}

func (a AdminConfig) validate() error {
	switch strings.ToLower(a.Policy) {
	case AdminPolicyStatic:
		if strings.TrimSpace(a.DeveloperID) == "" {
			return fmt.Errorf("%s is required for the static admin policy", EnvAdminDeveloperID)
		}
	case AdminPolicyToken:
		if a.TokenSecret == "" {
			return fmt.Errorf("%s is required for the token admin policy", EnvAdminTokenSecret)
		}
	default:
		return fmt.Errorf("unknown admin policy %q", a.Policy)
	}
	return nil
}

type StoreConfig struct {
	Driver string `envconfig:"SB_STORE_DRIVER" default:"memory"`
	Dir    string `envconfig:"SB_STORE_DIR" default:"data"`
}

// UsesDB reports whether documents live in a SQL database.
func (s StoreConfig) UsesDB() bool {
	d := strings.ToLower(s.Driver)
	return d == StoreDriverPostgres || d == StoreDriverSQLite
}

func (s StoreConfig) validate() error {
	switch strings.ToLower(s.Driver) {
	case StoreDriverMemory, StoreDriverFile, StoreDriverPostgres, StoreDriverSQLite:
		return nil
	}
	return fmt.Errorf("unknown store driver %q", s.Driver)
}

type DBConfig struct {
	DSN string `envconfig:"SB_DB_DSN"`

	Host     string `envconfig:"SB_DB_HOST"`
	Port     int    `envconfig:"SB_DB_PORT" default:"5432"`
	User     string `envconfig:"SB_DB_USER"`
	Password string `envconfig:"SB_DB_PASSWORD"`
	Name     string `envconfig:"SB_DB_NAME"`
	SSLMode  string `envconfig:"SB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SB_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SB_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SB_REDIS_URL"`
	Address      string        `envconfig:"SB_REDIS_ADDR"`
	Password     string        `envconfig:"SB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeedConfig struct {
	Retention      int           `envconfig:"SB_NOTIFICATIONS_RETENTION" default:"500"`
	RepeatInterval time.Duration `envconfig:"SB_ANNOUNCEMENT_REPEAT_INTERVAL" default:"15m"`
}

type ClaimRateLimitConfig struct {
	Window    time.Duration `envconfig:"SB_CLAIM_RATE_LIMIT_WINDOW" default:"1m"`
	UserLimit int           `envconfig:"SB_CLAIM_RATE_LIMIT_USER_LIMIT" default:"10"`
	IPLimit   int           `envconfig:"SB_CLAIM_RATE_LIMIT_IP_LIMIT" default:"60"`
}

type DeliveryConfig struct {
	Timeout time.Duration `envconfig:"SB_DELIVERY_TIMEOUT" default:"10s"`
}

type WebhookConfig struct {
	URL      string `envconfig:"SB_WEBHOOK_URL"`
	Username string `envconfig:"SB_WEBHOOK_USERNAME" default:"SB Premium"`
}

type CompanionBotConfig struct {
	URL    string `envconfig:"SB_COMPANION_BOT_URL"`
	Secret string `envconfig:"SB_COMPANION_BOT_SECRET"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SB_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SB_SENDGRID_FROM_EMAIL"`
	NotifyTo    string `envconfig:"SB_SENDGRID_NOTIFY_EMAIL"`
	BaseURL     string `envconfig:"SB_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SB_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	GiftEventsTopic string `envconfig:"SB_PUBSUB_GIFT_EVENTS_TOPIC"`
}

type AMQPConfig struct {
	URL   string `envconfig:"SB_AMQP_URL"`
	Queue string `envconfig:"SB_AMQP_QUEUE" default:"sb.gift.events"`
}

func (db *DBConfig) ensureDSN(driver string) error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(driver, StoreDriverSQLite) {
		return fmt.Errorf("%s is required for the sqlite store", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
