package main

import (
	"os"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const configPath = "roomboard-client.toml"

type Config struct {
	Host  string `koanf:"host"`
	Token string `koanf:"token"`
}

func readConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(file.Provider(configPath), toml.Parser())
	if err != nil {
		return nil, err
	}

	config := &Config{}
	err = k.Unmarshal("", config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func createConfig() (*Config, error) {
	config := &Config{Host: "http://localhost:8080"}

	err := saveConfig(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// saveConfig rewrites the whole file; it holds a session token so it is only
// readable by the owner.
func saveConfig(config *Config) error {
	encoded, err := toml.Parser().Marshal(map[string]interface{}{
		"host":  config.Host,
		"token": config.Token,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, encoded, 0600)
}
