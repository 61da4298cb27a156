// Package config loads ledger node settings from the environment.
package config

import (
	"fmt"
	"strings"

	"moviereview/app/pubkey"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the ledger node.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LEDGER_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LEDGER_LOG_FORMAT" envDefault:"text"`

	// HTTP server
	Addr string `env:"LEDGER_ADDR" envDefault:":8080"`

	// Storage
	DBPath    string `env:"LEDGER_DB_PATH" envDefault:"data/ledger"`
	BackupDir string `env:"LEDGER_BACKUP_DIR" envDefault:"data/backups"`
	InMemory  bool   `env:"LEDGER_IN_MEMORY" envDefault:"false"`

	// Runtime
	ProgramID    string `env:"LEDGER_PROGRAM_ID" envDefault:"FmzAVsBmJWcfkfe7VrvEi7pLA9ALLDWB3NoU2MvLrCZj"`
	HashWindow   uint64 `env:"LEDGER_HASH_WINDOW" envDefault:"150"`
	AirdropLimit uint64 `env:"LEDGER_AIRDROP_LIMIT" envDefault:"100000000000"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load ledger config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if _, err := pubkey.Parse(c.ProgramID); err != nil {
		return fmt.Errorf("invalid program id %q: %w", c.ProgramID, err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	if c.HashWindow == 0 {
		return fmt.Errorf("invalid hash window: %d", c.HashWindow)
	}
	if !c.InMemory && strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// ProgramKey returns the parsed program id. Load has already validated it.
func (c *Config) ProgramKey() pubkey.PublicKey {
	return pubkey.MustParse(c.ProgramID)
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
