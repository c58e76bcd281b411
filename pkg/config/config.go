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
	Redis        RedisConfig
	JWT          JWTConfig
	Paystack     PaystackConfig
	Telco        TelcoConfig
	Payments     PaymentsConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DATAMART_APP_ENV" required:"true"`
	Port         string `envconfig:"DATAMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DATAMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DATAMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DATAMART_DB_DSN"`
	Driver string `envconfig:"DATAMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DATAMART_DB_HOST"`
	Port     int    `envconfig:"DATAMART_DB_PORT" default:"5432"`
	User     string `envconfig:"DATAMART_DB_USER"`
	Password string `envconfig:"DATAMART_DB_PASSWORD"`
	Name     string `envconfig:"DATAMART_DB_NAME"`
	SSLMode  string `envconfig:"DATAMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DATAMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DATAMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DATAMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DATAMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DATAMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DATAMART_REDIS_ADDR"`
	Password     string        `envconfig:"DATAMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"DATAMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DATAMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DATAMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DATAMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DATAMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DATAMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens minted by the external identity provider. This
// service only validates claims; it never issues tokens itself.
type JWTConfig struct {
	Secret string `envconfig:"DATAMART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"DATAMART_JWT_ISSUER" required:"true"`
}

type PaystackConfig struct {
	SecretKey     string        `envconfig:"DATAMART_PAYSTACK_SECRET_KEY" required:"true"`
	WebhookSecret string        `envconfig:"DATAMART_PAYSTACK_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"DATAMART_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL   string        `envconfig:"DATAMART_PAYSTACK_CALLBACK_URL" required:"true"`
	Timeout       time.Duration `envconfig:"DATAMART_PAYSTACK_TIMEOUT" default:"15s"`
}

// WebhookSigningSecret returns the secret used to validate inbound webhook
// signatures. Paystack signs with the account secret key unless a dedicated
// webhook secret is configured.
func (p PaystackConfig) WebhookSigningSecret() string {
	if strings.TrimSpace(p.WebhookSecret) != "" {
		return p.WebhookSecret
	}
	return p.SecretKey
}

type TelcoConfig struct {
	BaseURL string        `envconfig:"DATAMART_TELCO_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"DATAMART_TELCO_API_KEY" required:"true"`
	Timeout time.Duration `envconfig:"DATAMART_TELCO_TIMEOUT" default:"30s"`
}

type PaymentsConfig struct {
	VerifyRetries int           `envconfig:"DATAMART_PAYMENTS_VERIFY_RETRIES" default:"2"`
	VerifyBackoff time.Duration `envconfig:"DATAMART_PAYMENTS_VERIFY_BACKOFF" default:"2s"`
	WebhookTTL    time.Duration `envconfig:"DATAMART_PAYMENTS_WEBHOOK_GUARD_TTL" default:"168h"`
	// Cedis, parsed with pkg/money at wiring time.
	AgentActivationFee string `envconfig:"DATAMART_PAYMENTS_AGENT_ACTIVATION_FEE" default:"15.00"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DATAMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DATAMART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if parts[env] == "" {
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
