package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libconfig "fuelsoyo/libs/config"
)

func TestLoad_DefaultsWithSecret(t *testing.T) {
	t.Setenv(libconfig.PathEnv, "")
	t.Setenv("FUELSOYO_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration())
	assert.Equal(t, 24*time.Hour, cfg.Notifications.StaleAfter)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuelsoyo.yaml")
	body := "http:\n  port: \"9090\"\nstorage:\n  driver: Redis\nredis:\n  addr: localhost:6379\njwt:\n  secret: from-file\n  expiresInMinutes: 30\nnotifications:\n  staleAfter: 2h\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv(libconfig.PathEnv, path)
	t.Setenv("FUELSOYO_HTTP_PORT", ":7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddress())
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "fuelsoyo", cfg.Redis.KeyPrefix)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiration())
	assert.Equal(t, 2*time.Hour, cfg.Notifications.StaleAfter)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Validate(), "jwt secret")

	cfg.JWT.Secret = "x"
	cfg.Storage.Driver = StoragePostgres
	assert.ErrorContains(t, cfg.Validate(), "DSN")

	cfg.Storage.Driver = StorageRedis
	assert.ErrorContains(t, cfg.Validate(), "redis addr")

	cfg.Storage.Driver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "unknown storage driver")

	cfg.Storage.Driver = StorageMemory
	assert.NoError(t, cfg.Validate())
}
