package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for weave-api.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, signing keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// ServerConfig holds HTTP server timeouts.
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"weave"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"weave"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:""` // Empty uses embedded migrations
}

// RedisConfig holds the optional recommendation cache configuration.
// The cache is disabled when Host is empty.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_CACHE_TTL" env-default:"30s"`
}

// Enabled reports whether a Redis host is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// AuthConfig holds token issuing configuration.
type AuthConfig struct {
	// JWTSecret signs access tokens (HS256). Required.
	JWTSecret string        `yaml:"-" env:"JWT_SECRET"` // Secret - not in YAML
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	Issuer    string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"weave-api"`
	// BcryptCost is the work factor for password hashes. 0 uses bcrypt.DefaultCost.
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"0"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	// AllowedOriginsStr is a comma-separated list of origins.
	AllowedOriginsStr string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`

	// AllowedOrigins is the parsed list from AllowedOriginsStr (not from config file).
	AllowedOrigins []string `yaml:"-"`
}

// RateLimitConfig limits unauthenticated account endpoints per client IP.
type RateLimitConfig struct {
	AuthRequestsPerMinute int `yaml:"auth_requests_per_minute" env:"RATE_LIMIT_AUTH_PER_MINUTE" env-default:"20"`
}

// RecommendConfig tunes the recommendation endpoint.
type RecommendConfig struct {
	// MaxResults caps the number of suggestions returned. 0 means unlimited.
	MaxResults int `yaml:"max_results" env:"RECOMMEND_MAX_RESULTS" env-default:"0"`
}

// Load reads configuration with environment variable overrides.
// A .env file in the working directory is loaded first if present. config.yaml is
// read when it exists; otherwise only the environment is used.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.CORS.AllowedOrigins = parseList(cfg.CORS.AllowedOriginsStr)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks values that cannot be expressed as defaults.
func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.Recommend.MaxResults < 0 {
		return errors.New("recommend.max_results must not be negative")
	}
	if c.RateLimit.AuthRequestsPerMinute < 0 {
		return errors.New("rate_limit.auth_requests_per_minute must not be negative")
	}
	return nil
}

// parseList splits a comma-separated value, dropping empty entries.
func parseList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// URL returns the connection settings as a postgres:// URL, the form both
// pgxpool and the migration driver accept. Credentials are escaped so
// reserved characters in the password cannot shift the host or path.
func (c *DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
