package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// configFile is the optional YAML configuration file read at startup.
const configFile = "config.yaml"

// Config holds all configuration for sqldeck-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords, signing keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8099"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL, server-persisted tab state)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (legacy session snapshots)
	Redis RedisConfig `yaml:"redis"`

	// SQL Lab session bootstrap configuration
	SQLLab SQLLabConfig `yaml:"sqllab"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"sqldeck"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"sqldeck_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration. Redis is optional: when Host is
// empty the engine falls back to the configured legacy-store mode.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Legacy store backends.
const (
	LegacyStoreMemory = "memory"
	LegacyStoreRedis  = "redis"
	LegacyStoreCookie = "cookie"
)

// SQLLabConfig holds the session bootstrap settings.
type SQLLabConfig struct {
	// DefaultRowLimit is the query-result row limit applied to new editors
	// (surfaced to clients as DEFAULT_SQLLAB_LIMIT).
	DefaultRowLimit int64 `yaml:"default_row_limit" env:"SQLLAB_DEFAULT_ROW_LIMIT" env-default:"1000"`

	// DefaultDatabaseID preselects a database for new editors. Zero means none.
	DefaultDatabaseID int64 `yaml:"default_database_id" env:"SQLLAB_DEFAULT_DATABASE_ID" env-default:"0"`

	// LegacyStore selects where legacy session snapshots are read from:
	// memory, redis, or cookie.
	LegacyStore string `yaml:"legacy_store" env:"SQLLAB_LEGACY_STORE" env-default:"memory"`

	// LegacyKeyPrefix prefixes the per-user legacy snapshot key.
	LegacyKeyPrefix string `yaml:"legacy_key_prefix" env:"SQLLAB_LEGACY_KEY_PREFIX" env-default:"sqllab:legacy:"`

	// CookieSecret signs the legacy-state cookie when LegacyStore is
	// "cookie". Secret - environment only.
	CookieSecret string `yaml:"-" env:"SQLLAB_COOKIE_SECRET"`
}

// LegacyKey returns the legacy snapshot key for one user.
func (c *SQLLabConfig) LegacyKey(userID string) string {
	return c.LegacyKeyPrefix + userID
}

// Load reads configuration from config.yaml with environment variable
// overrides. When the file is absent, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(configFile); err == nil {
		if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Auto-derive BaseURL from Port if not explicitly set.
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Auth.JWKSEndpoints = parseJWKSEndpoints(c.Auth.JWKSEndpointsStr)
	return nil
}

func (c *Config) validate() error {
	switch c.SQLLab.LegacyStore {
	case LegacyStoreMemory, LegacyStoreRedis, LegacyStoreCookie:
	default:
		return fmt.Errorf("invalid sqllab legacy_store %q (expected memory, redis, or cookie)", c.SQLLab.LegacyStore)
	}

	if c.SQLLab.LegacyStore == LegacyStoreRedis && c.Redis.Host == "" {
		return fmt.Errorf("sqllab legacy_store is redis but REDIS_HOST is not set")
	}
	if c.SQLLab.LegacyStore == LegacyStoreCookie && c.SQLLab.CookieSecret == "" {
		return fmt.Errorf("sqllab legacy_store is cookie but SQLLAB_COOKIE_SECRET is not set")
	}

	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("auth verification is enabled but JWKS_ENDPOINTS is not set")
	}
	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}
