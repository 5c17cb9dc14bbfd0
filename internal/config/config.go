// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.ragchat/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Credentials: external gateway key and internal service key
//   - Gateway: listen address, downstream storage URL
//   - Storage: listen address, PostgreSQL connection (see storage.go)
//   - Logging: level and format
//
// Security: secrets are never logged; MarshalJSON masks them.
// Error handling: sentinel errors for Go-idiomatic checks with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingInternalKey indicates the internal service key is not set.
	// Both tiers refuse to start without it.
	ErrMissingInternalKey = errors.New("missing internal service key")

	// ErrInvalidStorageURL indicates the downstream storage URL is invalid.
	ErrInvalidStorageURL = errors.New("invalid storage URL")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")
)

const maskedValue = "████████"

// Config stores application configuration for both services.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// Credentials
	GatewayAPIKey      string `mapstructure:"gateway_api_key" json:"gateway_api_key"`           // external caller key; empty = allow all (logged hazard)
	InternalServiceKey string `mapstructure:"internal_service_key" json:"internal_service_key"` // shared secret between tiers, required

	// Gateway service
	GatewayAddr string `mapstructure:"gateway_addr" json:"gateway_addr"`
	StorageURL  string `mapstructure:"storage_url" json:"storage_url"` // downstream base URL for the forwarder

	// Storage service
	StorageAddr string `mapstructure:"storage_addr" json:"storage_addr"`

	// Path prefixes that bypass key checks at both tiers.
	// Must include the service's own health and docs routes.
	PublicPrefixes []string `mapstructure:"public_prefixes" json:"public_prefixes"`

	// PostgreSQL connection settings (see storage.go for DSN builders)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug | info | warn | error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Credentials holds the two shared secrets, loaded once at process start and
// passed explicitly to the pipeline and guard constructors. Immutable by
// convention: constructed here, never written elsewhere.
type Credentials struct {
	// GatewayKey is the external caller credential checked by the gateway.
	// Empty means external key validation is disabled.
	GatewayKey string

	// InternalKey is the shared secret injected by the gateway and verified
	// by the storage tier.
	InternalKey string
}

// Credentials returns the credential pair for constructor injection.
func (c *Config) Credentials() Credentials {
	return Credentials{
		GatewayKey:  c.GatewayAPIKey,
		InternalKey: c.InternalServiceKey,
	}
}

// Load reads configuration from file, environment, and defaults.
// Validation is intentionally deferred to ValidateGateway/ValidateStorage so
// each service only checks the settings it actually uses.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ragchat")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults and env apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway_addr", "127.0.0.1:8080")
	v.SetDefault("storage_addr", "127.0.0.1:8081")
	v.SetDefault("storage_url", "http://127.0.0.1:8081")

	v.SetDefault("public_prefixes", []string{"/health", "/ready", "/docs"})

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "ragchat")
	v.SetDefault("postgres_password", "ragchat_dev_password")
	v.SetDefault("postgres_db_name", "ragchat")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("gateway_api_key", "GATEWAY_API_KEY")
	mustBind("internal_service_key", "APP_INTERNAL_SERVICE_KEY")

	mustBind("gateway_addr", "RAGCHAT_GATEWAY_ADDR")
	mustBind("storage_addr", "RAGCHAT_STORAGE_ADDR")
	mustBind("storage_url", "RAGCHAT_STORAGE_URL")

	mustBind("log_level", "RAGCHAT_LOG_LEVEL")
	mustBind("log_json", "RAGCHAT_LOG_JSON")
}

// SlogLevel converts the configured level name to a slog.Level.
// Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// maskSecret masks a secret for safe display.
// Short secrets are fully masked; longer ones keep two chars at each end.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON masks sensitive fields so the config can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GatewayAPIKey = maskSecret(a.GatewayAPIKey)
	a.InternalServiceKey = maskSecret(a.InternalServiceKey)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
