// Package config загружает настройки сервиса: значения по умолчанию,
// затем YAML-файл, затем переменные окружения APP_*.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Auth    AuthConfig    `koanf:"auth"`
	Retry   RetryConfig   `koanf:"retry"`
	Redis   RedisConfig   `koanf:"redis"`
	NATS    NATSConfig    `koanf:"nats"`
	Logging LoggingConfig `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type StorageConfig struct {
	// Driver: in-memory или postgres
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	Debug  bool   `koanf:"debug"`
	// SeedMockData заполняет in-memory хранилище демо-данными
	SeedMockData bool `koanf:"seed_mock_data"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	Interval    time.Duration `koanf:"interval"`
	// WatchCooldown - интервал, в течение которого повторный просмотр не засчитывается
	WatchCooldown time.Duration `koanf:"watch_cooldown"`
}

// RedisConfig включает распределённые блокировки вместо локальных.
type RedisConfig struct {
	Enabled bool          `koanf:"enabled"`
	Addr    string        `koanf:"addr"`
	Prefix  string        `koanf:"prefix"`
	LockTTL time.Duration `koanf:"lock_ttl"`
}

type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	// EmbeddedServer поднимает NATS внутри процесса; URL тогда игнорируется
	EmbeddedServer     bool          `koanf:"embedded_server"`
	Prefix             string        `koanf:"prefix"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Storage.Driver {
	case StorageInMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", StorageInMemory, StoragePostgres, c.Storage.Driver))
	}

	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 characters"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.NATS.Enabled && !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		errs = append(errs, errors.New("nats.url is required when nats is enabled without embedded server"))
	}

	return errors.Join(errs...)
}
