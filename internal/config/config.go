package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "fuelsoyo/libs/config"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Storage       StorageConfig       `yaml:"storage"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	AMQP          AMQPConfig          `yaml:"amqp"`
	JWT           JWTConfig           `yaml:"jwt"`
	Sentry        SentryConfig        `yaml:"sentry"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Log           LogConfig           `yaml:"log"`
	// SeedPassword is shared by the demo accounts created on first start.
	SeedPassword string `yaml:"seedPassword" env:"FUELSOYO_SEED_PASSWORD"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port" env:"FUELSOYO_HTTP_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"FUELSOYO_HTTP_SHUTDOWN_TIMEOUT"`
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string `yaml:"allowedOrigins" env:"FUELSOYO_HTTP_ALLOWED_ORIGINS"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"FUELSOYO_STORAGE_DRIVER"`
}

type DatabaseConfig struct {
	DSN          string        `yaml:"dsn" env:"FUELSOYO_POSTGRES_DSN"`
	MaxOpenConns int           `yaml:"maxOpenConns" env:"FUELSOYO_POSTGRES_MAX_OPEN_CONNS"`
	ConnLifetime time.Duration `yaml:"connLifetime" env:"FUELSOYO_POSTGRES_CONN_LIFETIME"`
}

// RedisConfig is used by the redis storage driver and by the notification
// relay. An empty Addr disables both.
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"FUELSOYO_REDIS_ADDR"`
	Password  string `yaml:"password" env:"FUELSOYO_REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"FUELSOYO_REDIS_DB"`
	KeyPrefix string `yaml:"keyPrefix" env:"FUELSOYO_REDIS_KEY_PREFIX"`
	Channel   string `yaml:"channel" env:"FUELSOYO_REDIS_CHANNEL"`
}

type AMQPConfig struct {
	URL string `yaml:"url" env:"FUELSOYO_AMQP_URL"`
}

type JWTConfig struct {
	Secret           string `yaml:"secret" env:"FUELSOYO_JWT_SECRET"`
	ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"FUELSOYO_JWT_EXPIRES_MINUTES"`
}

type SentryConfig struct {
	DSN         string `yaml:"dsn" env:"FUELSOYO_SENTRY_DSN"`
	Environment string `yaml:"environment" env:"FUELSOYO_SENTRY_ENVIRONMENT"`
}

type NotificationsConfig struct {
	StaleAfter time.Duration `yaml:"staleAfter" env:"FUELSOYO_STALE_AFTER"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		HTTP:          HTTPConfig{Port: "8080", ShutdownTimeout: 10 * time.Second},
		Storage:       StorageConfig{Driver: StorageMemory},
		Database:      DatabaseConfig{MaxOpenConns: 10, ConnLifetime: 30 * time.Minute},
		Redis:         RedisConfig{KeyPrefix: "fuelsoyo"},
		JWT:           JWTConfig{ExpiresInMinutes: 24 * 60},
		Notifications: NotificationsConfig{StaleAfter: 24 * time.Hour},
		Log:           LogConfig{Level: "info", Format: "json"},
		SeedPassword:  "123",
	}
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.DSN == "" {
			return errors.New("config: database DSN is required for the postgres driver")
		}
	case StorageRedis:
		if c.Redis.Addr == "" {
			return errors.New("config: redis addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("config: jwt secret is required")
	}
	if c.JWT.ExpiresInMinutes <= 0 {
		c.JWT.ExpiresInMinutes = 24 * 60
	}
	if c.Notifications.StaleAfter <= 0 {
		c.Notifications.StaleAfter = 24 * time.Hour
	}
	return nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.JWT.ExpiresInMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}
