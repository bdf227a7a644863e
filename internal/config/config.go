// Package config loads and validates runtime configuration at startup.
// Sources are layered: built-in defaults, then an optional YAML file, then
// environment variables. Fail-fast: an invalid config stops the process.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{"config.yaml", "config.yml"}

// DefaultFeedURL is the XML feed polled when none is configured.
const DefaultFeedURL = "https://app.ktitalentindicator.com/xml/w3.xml"

// Config holds all runtime configuration for the matching service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Feed     FeedConfig     `koanf:"feed"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	HTTPPort string `koanf:"http_port" validate:"required,numeric"`
	GRPCPort string `koanf:"grpc_port" validate:"omitempty,numeric"`
	// RateLimit is requests per minute per client IP on /api. 0 disables it.
	RateLimit int `koanf:"rate_limit" validate:"gte=0"`
}

// DatabaseConfig selects the store: Postgres when URL is set, SQLite otherwise.
type DatabaseConfig struct {
	URL        string `koanf:"url" validate:"omitempty,url"`
	SQLitePath string `koanf:"sqlite_path" validate:"required_without=URL"`
	// MaxConns caps the Postgres pool. 0 keeps the driver default.
	MaxConns int32 `koanf:"max_conns" validate:"gte=0"`
}

type RedisConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

type FeedConfig struct {
	URL          string        `koanf:"url" validate:"required,url"`
	SyncInterval time.Duration `koanf:"sync_interval" validate:"gte=1m"`
	// Timeout bounds one feed download. 0 means no timeout.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

type CatalogConfig struct {
	CacheBackend    string        `koanf:"cache_backend" validate:"oneof=memory redis"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// UsePostgres reports whether a Postgres URL is configured.
func (c *Config) UsePostgres() bool { return c.Database.URL != "" }

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:  "8080",
			GRPCPort:  "9090",
			RateLimit: 120,
		},
		Database: DatabaseConfig{
			SQLitePath: "matching.db",
			MaxConns:   10,
		},
		Feed: FeedConfig{
			URL:          DefaultFeedURL,
			SyncInterval: 12 * time.Hour,
		},
		Catalog: CatalogConfig{
			CacheBackend:    "memory",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envMappings maps environment variables to config paths. Anything not
// listed is ignored.
var envMappings = map[string]string{
	"http_port":              "server.http_port",
	"grpc_port":              "server.grpc_port",
	"rate_limit_per_minute":  "server.rate_limit",
	"database_url":           "database.url",
	"sqlite_path":            "database.sqlite_path",
	"database_max_conns":     "database.max_conns",
	"redis_url":              "redis.url",
	"xml_feed_url":           "feed.url",
	"sync_interval":          "feed.sync_interval",
	"feed_timeout":           "feed.timeout",
	"cache_backend":          "catalog.cache_backend",
	"catalog_breaker_fails":  "catalog.breaker_failures",
	"catalog_breaker_reopen": "catalog.breaker_timeout",
	"log_level":              "log.level",
	"log_format":             "log.format",
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load reads defaults, the config file (if any) and the environment, and
// returns a validated Config.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Catalog.CacheBackend == "redis" && c.Redis.URL == "" {
		return errors.New("invalid config: catalog.cache_backend=redis requires REDIS_URL")
	}
	return nil
}
