package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment (and an optional .env file); flags override it
type Config struct {
	LogLevel  string   `env:"TABLEFSM_LOG_LEVEL" envDefault:"info"`
	LogFormat string   `env:"TABLEFSM_LOG_FORMAT" envDefault:"text"`
	Table     string   `env:"TABLEFSM_TABLE"`
	AuditFile string   `env:"TABLEFSM_AUDIT_FILE"`
	Metrics   bool     `env:"TABLEFSM_METRICS" envDefault:"false"`
	Models    int      `env:"TABLEFSM_MODELS" envDefault:"1"`
	Deny      []string `env:"TABLEFSM_DENY" envSeparator:","`
}

var errInvalidConfig = errors.New("invalid configuration")

// loadConfig parses the environment after loading envFile, if it exists
func loadConfig(envFile string) (Config, error) {
	if envFile != "" {
		// A missing .env file is not an error
		_ = godotenv.Load(envFile)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(errInvalidConfig, err)
	}
	if cfg.Models < 1 {
		return Config{}, fmt.Errorf("%w: TABLEFSM_MODELS must be at least 1, got %d", errInvalidConfig, cfg.Models)
	}
	return cfg, nil
}

// newLogger builds the process logger from the configured format and level
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", errInvalidConfig, level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: log format %q must be text or json", errInvalidConfig, format)
	}
}
