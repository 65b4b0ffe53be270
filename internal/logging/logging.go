// Package logging builds the zap logger used across the service
package logging

import (
	"go.uber.org/zap"
)

// Config holds logging configuration
type Config struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"` // "json" or "console"
	OutputPath  string `toml:"output_path"`
	Development bool   `toml:"development"`
}

// DefaultConfig info level JSON logs on stderr
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
	}
}

// New creates a logger from config
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	if cfg.OutputPath != "" {
		zapConfig.OutputPaths = []string{cfg.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "templatecheck")), nil
}

// NewOrNop falls back to a no-op logger when the config cannot be built.
func NewOrNop(cfg Config) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
