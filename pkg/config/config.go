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
	GCP          GCPConfig
	PubSub       PubSubConfig
	Sendgrid     SendgridConfig
	Certificates CertificatesConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EVENTRA_APP_ENV" required:"true"`
	Port         string `envconfig:"EVENTRA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EVENTRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVENTRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EVENTRA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EVENTRA_DB_DSN"`
	Driver string `envconfig:"EVENTRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EVENTRA_DB_HOST"`
	LegacyPort     int    `envconfig:"EVENTRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVENTRA_DB_USER"`
	LegacyPassword string `envconfig:"EVENTRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVENTRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVENTRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVENTRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EVENTRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EVENTRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVENTRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVENTRA_REDIS_URL" required:"true"`
	Password     string        `envconfig:"EVENTRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVENTRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVENTRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVENTRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVENTRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVENTRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVENTRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EVENTRA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"EVENTRA_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	CertificateTopic        string `envconfig:"EVENTRA_PUBSUB_CERTIFICATE_TOPIC" default:"ev-certificate-jobs"`
	CertificateSubscription string `envconfig:"EVENTRA_PUBSUB_CERTIFICATE_SUBSCRIPTION" required:"true"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"EVENTRA_SENDGRID_API_KEY" required:"true"`
	DefaultFrom string `envconfig:"EVENTRA_SENDGRID_FROM_EMAIL" required:"true"`
	FromName    string `envconfig:"EVENTRA_SENDGRID_FROM_NAME" default:"Eventra"`
}

type CertificatesConfig struct {
	// DispatchInterval is the pause after each recipient, keeping outbound
	// email under the transport's rate limit.
	DispatchInterval time.Duration `envconfig:"EVENTRA_CERT_DISPATCH_INTERVAL" default:"2s"`
	// BatchLockTTL must cover recipients * DispatchInterval for the largest
	// expected batch; the ledger keeps an expired-lock overlap harmless, but
	// the lock only prevents concurrent sends while it lives.
	BatchLockTTL time.Duration `envconfig:"EVENTRA_CERT_BATCH_LOCK_TTL" default:"1h"`
	TemplateTimeout  time.Duration `envconfig:"EVENTRA_CERT_TEMPLATE_TIMEOUT" default:"30s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
