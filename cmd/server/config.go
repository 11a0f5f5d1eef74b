package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jrozner/roomboard/web/store"
)

const envPrefix = "ROOMBOARD_"

type Config struct {
	HTTP struct {
		Addr         string        `koanf:"addr"`
		MaxBodyBytes int64         `koanf:"max_body_bytes"`
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
	} `koanf:"http"`

	Database struct {
		Driver          string        `koanf:"driver"`
		DSN             string        `koanf:"dsn"`
		Debug           bool          `koanf:"debug"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"database"`

	Auth struct {
		JWTSecret string        `koanf:"jwt_secret"`
		TokenTTL  time.Duration `koanf:"token_ttl"`
	} `koanf:"auth"`

	Messages struct {
		SendRate  float64 `koanf:"send_rate"`
		SendBurst int     `koanf:"send_burst"`
	} `koanf:"messages"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"http.addr":                  ":8080",
		"http.max_body_bytes":        1 << 20,
		"http.read_timeout":          "15s",
		"http.write_timeout":         "30s",
		"database.driver":            store.DriverMySQL,
		"database.max_open_conns":    20,
		"database.max_idle_conns":    5,
		"database.conn_max_lifetime": "30m",
		"auth.token_ttl":             "168h",
		"messages.send_rate":         1.0,
		"messages.send_burst":        10,
		"log.level":                  "info",
	}
}

// readConfig layers defaults, the TOML file and ROOMBOARD_* environment
// variables, in that order. An empty path tries the default locations and
// skips any that do not exist.
func readConfig(path string) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		err = k.Load(file.Provider(path), toml.Parser())
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, candidate := range []string{"./roomboard.toml", "$HOME/.roomboard.toml"} {
			candidate = os.ExpandEnv(candidate)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}

			err = k.Load(file.Provider(candidate), toml.Parser())
			if err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", candidate, err)
			}
			break
		}
	}

	// ROOMBOARD_DATABASE_DSN -> database.dsn; only the first underscore
	// separates the section so keys like max_open_conns survive.
	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	config := &Config{}
	err = k.Unmarshal("", config)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case store.DriverMySQL, store.DriverPostgres, store.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	return nil
}

func validateServeConfig(config *Config) error {
	err := validateConfig(config)
	if err != nil {
		return err
	}

	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}

	if config.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token_ttl must be positive")
	}

	return nil
}

const sampleConfig = `# roomboard configuration

[http]
addr = ":8080"
max_body_bytes = 1048576

[database]
driver = "mysql"
dsn = "root@unix(/tmp/mysql.sock)/roomboard?charset=utf8mb4"
debug = false
max_open_conns = 20

[auth]
jwt_secret = "change-me"
token_ttl = "168h"

[messages]
send_rate = 1.0
send_burst = 10

[log]
level = "info"
pretty = false
`

func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}

	return os.WriteFile(path, []byte(sampleConfig), 0600)
}
