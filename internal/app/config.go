package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mlfoundry/catalog-backend/internal/db"
	"github.com/mlfoundry/catalog-backend/internal/platform/envutil"
)

// Config is the process configuration: environment variables first, with
// an optional YAML file overlay pointed at by CONFIG_PATH.
type Config struct {
	LogMode  string            `yaml:"log_mode"`
	HTTPAddr string            `yaml:"http_addr"`
	Database db.PostgresConfig `yaml:"database"`
}

func LoadConfig() (Config, error) {
	cfg := Config{
		LogMode:  envutil.Str("LOG_MODE", "development"),
		HTTPAddr: envutil.Str("HTTP_ADDR", ":8080"),
		Database: db.PostgresConfigFromEnv(),
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
