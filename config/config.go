// Package config loads the trustgig server configuration from the environment.
//
// Values are read with github.com/caarlos0/env after an optional .env file has been
// loaded with godotenv. See the struct tags below for the available variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Lock backends
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config is the top level server configuration.
type Config struct {
	// LogLevel is one of logrus' level names.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server   ServerConfig
	Postgres DBConfig `envPrefix:"DB_"`
	Lock     LockConfig
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Audit    AuditConfig
	Watcher  WatcherConfig

	// WalletFaucet enables the account.fund RPC method. Development only.
	WalletFaucet bool `env:"WALLET_FAUCET" envDefault:"false"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host       string `env:"HOST"        envDefault:"localhost"`
	Port       int    `env:"PORT"        envDefault:"5432"`
	User       string `env:"USER"        envDefault:"postgres"`
	Password   string `env:"PASSWORD"    envDefault:"postgres"`
	Name       string `env:"NAME"        envDefault:"trustgig"`
	SSLEnabled bool   `env:"SSL_ENABLED" envDefault:"false"`
}

// LockConfig selects how operations on the same job are serialized.
type LockConfig struct {
	Backend string        `env:"LOCK_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"LOCK_TTL"     envDefault:"30s"`
}

// RedisConfig contains Redis connection settings for the redis lock backend.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// AuditConfig configures the append-only audit log. An empty Dir disables it.
type AuditConfig struct {
	Dir string `env:"AUDIT_DIR" envDefault:""`
}

// WatcherConfig configures the overdue-assignment watcher.
type WatcherConfig struct {
	Interval time.Duration `env:"WATCHER_INTERVAL" envDefault:"1m"`
	Batch    int           `env:"WATCHER_BATCH"    envDefault:"100"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Sanitize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() error {
	switch c.Lock.Backend {
	case "":
		c.Lock.Backend = LockBackendMemory
	case LockBackendMemory, LockBackendRedis:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.Lock.TTL <= 0 {
		c.Lock.TTL = 30 * time.Second
	}
	if c.Watcher.Interval <= 0 {
		c.Watcher.Interval = time.Minute
	}
	if c.Watcher.Batch <= 0 {
		c.Watcher.Batch = 100
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	return nil
}
