package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joeshaw/envdecode"
)

// SelfPlayConfig configures the local bot-vs-bot driver from LANDLORD_* variables.
type SelfPlayConfig struct {
	Seed       int64  `env:"LANDLORD_SEED,default=1"`
	Rounds     int    `env:"LANDLORD_ROUNDS,default=1"`
	LogLevel   string `env:"LANDLORD_LOG_LEVEL,default=info"`
	ConfigPath string `env:"LANDLORD_CONFIG"`
}

// LoadSelfPlayConfig decodes the driver configuration from the environment.
func LoadSelfPlayConfig() (SelfPlayConfig, error) {
	var c SelfPlayConfig
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return SelfPlayConfig{}, fmt.Errorf("failed to decode environment: %w", err)
	}
	if c.Rounds <= 0 {
		return SelfPlayConfig{}, fmt.Errorf("LANDLORD_ROUNDS must be positive, got %d", c.Rounds)
	}
	return c, nil
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c SelfPlayConfig) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
