package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ActivationsSource string        `yaml:"activations_source"`
	BroadcastSource   string        `yaml:"broadcast_source"`
	FetchLogDB        string        `yaml:"fetch_log_db"`
	Port              string        `yaml:"port"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	LogLevel          slog.Level    `yaml:"-"`
	LogLevelName      string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		ActivationsSource: "202202.csv",
		BroadcastSource:   "202202_bulk.csv",
		Port:              "8080",
		HTTPTimeout:       15 * time.Second,
		LogLevel:          slog.LevelInfo,
		LogLevelName:      "info",
	}
}

// Load builds the config from defaults, then the YAML file at path (if
// any), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.LogLevel = parseLevel(cfg.LogLevelName)
	return cfg, nil
}

// FromEnv is Load without a config file.
func FromEnv() Config {
	cfg, _ := Load("")
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	cfg.ActivationsSource = envOr("ACTIVATIONS_SOURCE", cfg.ActivationsSource)
	cfg.BroadcastSource = envOr("BROADCAST_SOURCE", cfg.BroadcastSource)
	cfg.FetchLogDB = envOr("FETCH_LOG_DB", cfg.FetchLogDB)
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevelName = envOr("LOG_LEVEL", cfg.LogLevelName)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
