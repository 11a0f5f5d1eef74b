package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "roomboard.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	return path
}

func TestReadConfigLayers(t *testing.T) {
	path := writeConfig(t, `
[database]
driver = "sqlite"
dsn = "file.db"
max_open_conns = 4

[auth]
jwt_secret = "from-file"
`)

	t.Setenv("ROOMBOARD_AUTH_JWT_SECRET", "from-env")
	t.Setenv("ROOMBOARD_DATABASE_MAX_IDLE_CONNS", "3")
	t.Setenv("ROOMBOARD_MESSAGES_SEND_RATE", "0")

	config, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.HTTP.Addr)
	assert.Equal(t, int64(1<<20), config.HTTP.MaxBodyBytes)
	assert.Equal(t, 15*time.Second, config.HTTP.ReadTimeout)
	assert.Equal(t, "sqlite", config.Database.Driver)
	assert.Equal(t, "file.db", config.Database.DSN)
	assert.Equal(t, 4, config.Database.MaxOpenConns)
	assert.Equal(t, 3, config.Database.MaxIdleConns)
	assert.Equal(t, "from-env", config.Auth.JWTSecret)
	assert.Equal(t, 168*time.Hour, config.Auth.TokenTTL)
	assert.Zero(t, config.Messages.SendRate)
	assert.Equal(t, 10, config.Messages.SendBurst)

	require.NoError(t, validateServeConfig(config))
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	config, err := readConfig(writeConfig(t, "[database]\ndsn = \"root@/roomboard\"\n"))
	require.NoError(t, err)

	require.NoError(t, validateConfig(config))
	assert.EqualError(t, validateServeConfig(config), "auth jwt_secret is required")

	config.Database.Driver = "oracle"
	assert.Error(t, validateConfig(config))

	config.Database.Driver = "postgres"
	config.Database.DSN = ""
	assert.EqualError(t, validateConfig(config), "database dsn is required")
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomboard.toml")

	require.NoError(t, initConfig(path))
	assert.Error(t, initConfig(path))

	config, err := readConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", config.Database.Driver)
	assert.Equal(t, "change-me", config.Auth.JWTSecret)
}
