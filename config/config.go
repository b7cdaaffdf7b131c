package config

import (
	"fmt"
	"strings"
	"time"

	"anypay-go/pkg/anypay"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	AnyPay    AnyPayConfig    `mapstructure:"anypay"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// AnyPayConfig holds the merchant account credentials.
type AnyPayConfig struct {
	APIID         string `mapstructure:"api_id"`
	APIKey        string `mapstructure:"api_key"`
	ProjectID     int64  `mapstructure:"project_id"`
	ProjectSecret string `mapstructure:"project_secret"`
	UseMD5        bool   `mapstructure:"use_md5"`
	NoCheck       bool   `mapstructure:"no_check"` // skip the credential check on startup
	BaseURL       string `mapstructure:"base_url"`

	HealthCacheTTL time.Duration `mapstructure:"health_cache_ttl"` // reuse of the /health upstream check
}

// Client returns the library configuration.
func (a AnyPayConfig) Client() anypay.Config {
	return anypay.Config{
		APIID:         a.APIID,
		APIKey:        a.APIKey,
		ProjectID:     a.ProjectID,
		ProjectSecret: a.ProjectSecret,
		UseMD5:        a.UseMD5,
		NoCheck:       a.NoCheck,
		BaseURL:       a.BaseURL,
	}
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds the rate limiter's Redis connection.
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix"` // namespaces every key the gateway writes
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"` // also bounds writes
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// RateLimitConfig bounds requests per token subject in a fixed window.
type RateLimitConfig struct {
	Limit  int64         `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ANYPAY"

// New returns a viper instance with defaults, search paths and environment
// binding applied. Callers may bind flags to it before calling Unmarshal.
func New(path string) *viper.Viper {
	v := viper.New()

	// Defaults
	v.SetDefault("anypay.api_id", "")
	v.SetDefault("anypay.api_key", "")
	v.SetDefault("anypay.project_id", 0)
	v.SetDefault("anypay.project_secret", "")
	v.SetDefault("anypay.use_md5", false)
	v.SetDefault("anypay.no_check", false)
	v.SetDefault("anypay.base_url", anypay.DefaultBaseURL)
	v.SetDefault("anypay.health_cache_ttl", "15s")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "anypay_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "anypay:")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "anypay-gateway")
	v.SetDefault("ratelimit.limit", 60)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: ANYPAY_ANYPAY_API_KEY -> anypay.api_key
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Read reads the config file into v, if one exists, and decodes the result.
func Read(v *viper.Viper) (*Config, error) {
	// Config file is optional; env vars can suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: ANYPAY_.
// Nested keys use underscore: ANYPAY_ANYPAY_API_ID, ANYPAY_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	return Read(New(path))
}

// Validate checks the settings the gateway cannot start without.
func (c *Config) Validate() error {
	if c.AnyPay.APIID == "" || c.AnyPay.APIKey == "" {
		return fmt.Errorf("anypay.api_id and anypay.api_key are required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.limit and ratelimit.window must be positive")
	}
	return nil
}
