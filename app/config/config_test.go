package config

import (
	"testing"

	"moviereview/app/pubkey"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "data/ledger", cfg.DBPath)
	assert.Equal(t, "data/backups", cfg.BackupDir)
	assert.False(t, cfg.InMemory)
	assert.Equal(t, uint64(150), cfg.HashWindow)
	assert.Equal(t, uint64(100_000_000_000), cfg.AirdropLimit)
	assert.Equal(t, pubkey.MovieReviewProgramID, cfg.ProgramKey())
}

func TestLoad_Overrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"LEDGER_ADDR":          ":9090",
		"LEDGER_DB_PATH":       "/tmp/ledger",
		"LEDGER_LOG_LEVEL":     "debug",
		"LEDGER_LOG_FORMAT":    "json",
		"LEDGER_HASH_WINDOW":   "10",
		"LEDGER_AIRDROP_LIMIT": "0",
		"LEDGER_IN_MEMORY":     "true",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/tmp/ledger", cfg.DBPath)
	assert.Equal(t, uint64(10), cfg.HashWindow)
	assert.Equal(t, uint64(0), cfg.AirdropLimit)
	assert.True(t, cfg.InMemory)

	log := cfg.Logger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestLoad_InvalidProgramID(t *testing.T) {
	setEnvs(t, map[string]string{"LEDGER_PROGRAM_ID": "not-base58-0OIl"})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid program id")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setEnvs(t, map[string]string{"LEDGER_LOG_LEVEL": "loud"})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	setEnvs(t, map[string]string{"LEDGER_LOG_FORMAT": "xml"})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestLoad_InvalidHashWindow(t *testing.T) {
	setEnvs(t, map[string]string{"LEDGER_HASH_WINDOW": "0"})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid hash window")
}

func TestLoad_UnparsableNumber(t *testing.T) {
	setEnvs(t, map[string]string{"LEDGER_AIRDROP_LIMIT": "lots"})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "load ledger config")
}

func TestLoad_EmptyDBPath(t *testing.T) {
	setEnvs(t, map[string]string{"LEDGER_DB_PATH": " "})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")

	setEnvs(t, map[string]string{"LEDGER_IN_MEMORY": "true"})
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.InMemory)
}
