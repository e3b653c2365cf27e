package measure

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config controls how a registry is built from the environment.
type Config struct {
	DBPath          string `env:"MEASURE_DB_PATH"`
	DefinitionsFile string `env:"MEASURE_DEFINITIONS"`
	LogLevel        string `env:"MEASURE_LOG_LEVEL" envDefault:"info"`
	LinkUnits       bool   `env:"MEASURE_LINK_UNITS" envDefault:"true"`
	ListenAddr      string `env:"MEASURE_LISTEN_ADDR" envDefault:"127.0.0.1:7411"`
}

func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Level maps LogLevel onto a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewRegistryFromConfig builds a registry, loads the definitions file and
// attaches the database named by cfg.
func NewRegistryFromConfig(cfg Config, logger *slog.Logger) (*Registry, error) {
	opts := []Option{WithLogger(logger)}
	if !cfg.LinkUnits {
		opts = append(opts, WithoutLinking())
	}
	r, err := NewRegistry(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.DefinitionsFile != "" {
		f, err := os.Open(cfg.DefinitionsFile)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open definitions: %w", err)
		}
		err = r.LoadDefinitions(f)
		f.Close()
		if err != nil {
			r.Close()
			return nil, err
		}
	}
	if cfg.DBPath != "" {
		if err := r.WithSQLite(cfg.DBPath); err != nil {
			r.Close()
			return nil, fmt.Errorf("open unit database: %w", err)
		}
	}
	return r, nil
}
