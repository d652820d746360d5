// Package config loads server configuration from defaults, an optional YAML
// file, RACHA_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. RACHA_STORE_DRIVER.
const EnvPrefix = "RACHA"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Notification backends.
const (
	NotifyLocal = "local"
	NotifyRedis = "redis"
)

// Config holds all configuration for the server.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Notify NotifyConfig `mapstructure:"notify"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	StaticPath      string        `mapstructure:"static_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig selects the log level (debug, info, warn, error) and format (text, json).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects the table store.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RedisConfig is shared by the Redis store and the Redis notifier.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// NotifyConfig selects how table events reach observers.
type NotifyConfig struct {
	// Backend is local (in-process only) or redis (shared by every instance).
	Backend string `mapstructure:"backend"`
}

// AuthConfig holds venue login and admin settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. When empty a random secret is generated
	// at startup and tokens do not survive a restart.
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// AdminSecret guards DeleteAllTables. When empty bulk deletion is disabled.
	AdminSecret string `mapstructure:"admin_secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_path", "./static")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "./data/racha.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "racha")

	v.SetDefault("notify.backend", NotifyLocal)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_secret", "")
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"static":       "server.static_path",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"store":        "store.driver",
	"db":           "store.sqlite_path",
	"redis-addr":   "redis.addr",
	"notify":       "notify.backend",
	"admin-secret": "auth.admin_secret",
}

// NewFlagSet returns the server's flags. Parse it and pass it to Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("addr", "", "HTTP listen address")
	fs.String("static", "", "directory of static files to serve")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: text, json")
	fs.String("store", "", "table store: memory, sqlite, redis")
	fs.String("db", "", "SQLite database path")
	fs.String("redis-addr", "", "Redis address")
	fs.String("notify", "", "notification backend: local, redis")
	fs.String("admin-secret", "", "secret required to delete all tables")
	return fs
}

// Load parses args with the server's flags and resolves the configuration.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("racha")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return LoadFlags(fs)
}

// LoadFlags resolves the configuration using an already parsed flag set.
// Only flags that were set explicitly override other sources.
func LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backends are known and complete.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	c.Notify.Backend = strings.ToLower(c.Notify.Backend)

	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Notify.Backend {
	case NotifyLocal, NotifyRedis:
	default:
		return fmt.Errorf("unknown notify backend %q", c.Notify.Backend)
	}

	if (c.Store.Driver == DriverRedis || c.Notify.Backend == NotifyRedis) && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}
