// Package config builds the typed runtime configuration from defaults, an
// optional YAML file, an optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is built once at startup and handed to constructors.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Gateway GatewayConfig
	Log     LogConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr              string
	PublicBaseURL     string
	AllowedOrigins    []string
	RequestTimeout    time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

type StoreConfig struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// RedisConfig configures the optional lookup cache backend. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type CacheConfig struct {
	TTL time.Duration
}

// GatewayConfig holds the messaging provider credentials. Any empty field
// leaves the notify operation unavailable.
type GatewayConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
	Timeout      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// envBindings maps configuration keys to environment variables.
var envBindings = map[string]string{
	"server.addr":                 "LOSTFOUND_ADDR",
	"server.public_base_url":      "PUBLIC_BASE_URL",
	"server.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	"server.request_timeout":      "REQUEST_TIMEOUT",
	"server.read_header_timeout":  "READ_HEADER_TIMEOUT",
	"server.shutdown_timeout":     "SHUTDOWN_TIMEOUT",
	"store.driver":                "STORE_DRIVER",
	"store.database_url":          "DATABASE_URL",
	"store.sqlite_path":           "SQLITE_PATH",
	"redis.url":                   "REDIS_URL",
	"redis.pool_size":             "REDIS_POOL_SIZE",
	"cache.ttl":                   "CACHE_TTL",
	"gateway.account_sid":         "TWILIO_ACCOUNT_SID",
	"gateway.auth_token":          "TWILIO_AUTH_TOKEN",
	"gateway.whatsapp_from":       "TWILIO_WHATSAPP_FROM",
	"gateway.timeout":             "GATEWAY_TIMEOUT",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.cors_allowed_origins", "*")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("store.sqlite_path", "lostfound.db")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("gateway.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration. configFile may be empty. A missing .env file is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:              v.GetString("server.addr"),
			PublicBaseURL:     strings.TrimRight(v.GetString("server.public_base_url"), "/"),
			AllowedOrigins:    splitList(v.GetString("server.cors_allowed_origins")),
			RequestTimeout:    v.GetDuration("server.request_timeout"),
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			DatabaseURL: v.GetString("store.database_url"),
			SQLitePath:  v.GetString("store.sqlite_path"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Cache: CacheConfig{
			TTL: v.GetDuration("cache.ttl"),
		},
		Gateway: GatewayConfig{
			AccountSID:   v.GetString("gateway.account_sid"),
			AuthToken:    v.GetString("gateway.auth_token"),
			WhatsAppFrom: v.GetString("gateway.whatsapp_from"),
			Timeout:      v.GetDuration("gateway.timeout"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreSQLite
		if cfg.Store.DatabaseURL != "" {
			cfg.Store.Driver = StorePostgres
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == StoreSQLite && c.Store.SQLitePath == "" {
		return errors.New("config: SQLITE_PATH is required for the sqlite store")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("config: REQUEST_TIMEOUT must be positive")
	}
	if c.Cache.TTL < 0 {
		return errors.New("config: CACHE_TTL must not be negative")
	}
	return nil
}

// GatewayConfigured reports whether every messaging credential is present.
func (c GatewayConfig) GatewayConfigured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.WhatsAppFrom != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
