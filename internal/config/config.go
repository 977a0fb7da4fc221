package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// DeploymentMode identifies how the binary is being run.
type DeploymentMode string

const (
	ModeLocal DeploymentMode = "local"
	ModeProd  DeploymentMode = "prod"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
	Billing    BillingConfig    `mapstructure:"billing"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

type DeploymentConfig struct {
	Mode DeploymentMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level          types.LogLevel `mapstructure:"level" validate:"required"`
	FluentdEnabled bool           `mapstructure:"fluentd_enabled"`
	FluentdHost    string         `mapstructure:"fluentd_host"`
	FluentdPort    int            `mapstructure:"fluentd_port"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" validate:"required"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"` // inmemory or redis
}

type AuthConfig struct {
	// JWTSecret signs session tokens issued by the main application.
	JWTSecret string `mapstructure:"jwt_secret" validate:"required"`
	// BypassEmails is the operator allowlist granted top-tier entitlements
	// without a real subscription. Matched case-insensitively.
	BypassEmails []string `mapstructure:"bypass_emails"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// MaxNetworkRetries is passed to the stripe client; its backoff handles
	// transient API failures so we never retry inline.
	MaxNetworkRetries int64 `mapstructure:"max_network_retries"`
}

type WebhookConfig struct {
	// RateLimitRPS and RateLimitBurst bound per-IP webhook traffic. The
	// ceiling is generous: signature verification is the security boundary.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type BillingConfig struct {
	// StatusCacheTTL bounds the staleness window between a webhook landing
	// and billing-status reads reflecting it.
	StatusCacheTTL time.Duration `mapstructure:"status_cache_ttl"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// NewConfig loads configuration from config.yaml, .env and TRADEFLOW_*
// environment variables, in increasing order of precedence.
func NewConfig() (*Configuration, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("TRADEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "tradeflow")
	v.SetDefault("postgres.dbname", "tradeflow")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "inmemory")
	v.SetDefault("auth.jwt_secret", "dev-secret")
	v.SetDefault("stripe.max_network_retries", 2)
	v.SetDefault("webhook.rate_limit_rps", 50.0)
	v.SetDefault("webhook.rate_limit_burst", 100)
	v.SetDefault("billing.status_cache_ttl", 30*time.Second)
	v.SetDefault("sentry.sample_rate", 0.1)
}

// Validate checks the configuration against struct tags.
func (c *Configuration) Validate() error {
	return validator.New().Struct(c)
}

// GetDefaultConfig returns a config suitable for tests and scripts.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "tradeflow",
			DBName:  "tradeflow",
			SSLMode: "disable",
		},
		Cache: CacheConfig{Enabled: true, Type: "inmemory"},
		Auth:  AuthConfig{JWTSecret: "test-secret"},
		Stripe: StripeConfig{
			SecretKey:         "sk_test_dummy",
			WebhookSecret:     "whsec_dummy",
			MaxNetworkRetries: 2,
		},
		Webhook: WebhookConfig{RateLimitRPS: 50, RateLimitBurst: 100},
		Billing: BillingConfig{StatusCacheTTL: 30 * time.Second},
	}
}
