package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
	LockMemory    = "memory"
	LockRedis     = "redis"
)

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	GinMode     string `envconfig:"GIN_MODE" default:"debug"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"settlement"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"settlement_secret"`
	DBName      string `envconfig:"DB_NAME" default:"settlement"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	LockDriver    string        `envconfig:"LOCK_DRIVER" default:"memory"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"30s"`
	LockWait      time.Duration `envconfig:"LOCK_WAIT" default:"5s"`

	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int `envconfig:"RATE_LIMIT" default:"600"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreDriver)
	}
	switch c.LockDriver {
	case LockMemory, LockRedis:
	default:
		return fmt.Errorf("LOCK_DRIVER must be %q or %q, got %q", LockMemory, LockRedis, c.LockDriver)
	}
	if c.LockTTL <= 0 || c.LockWait <= 0 {
		return fmt.Errorf("LOCK_TTL and LOCK_WAIT must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative")
	}
	if c.LockWait >= c.LockTTL {
		return fmt.Errorf("LOCK_WAIT (%s) must be shorter than LOCK_TTL (%s)", c.LockWait, c.LockTTL)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}
