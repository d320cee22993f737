package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDBFile, cfg.DBPath)
	assert.Empty(t, cfg.SeedsDir)
	assert.Equal(t, DefaultLoanPeriodDays, cfg.LoanPeriodDays)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)

	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	ResetConfig()
	t.Setenv("SHELFTALK_DB_PATH", "/tmp/env.db")
	t.Setenv("SHELFTALK_LOAN_PERIOD_DAYS", "14")
	t.Setenv("SHELFTALK_OUTPUT", "markdown")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, 14, cfg.LoanPeriodDays)
	assert.Equal(t, "markdown", cfg.OutputFormat)
}

func TestLoadConfig_FlagsBeatEnv(t *testing.T) {
	ResetConfig()
	t.Setenv("SHELFTALK_DB_PATH", "/tmp/env.db")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.String("seeds-dir", "", "")
	require.NoError(t, fs.Set("db", "/tmp/flag.db"))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	// --db maps to the db_path config key
	assert.Equal(t, "/tmp/flag.db", cfg.DBPath)
}

func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	ResetConfig()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	// An unset flag must not clobber the default with its empty value.
	assert.Equal(t, DefaultDBFile, cfg.DBPath)
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	ResetConfig()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "shelftalk.yaml")
	content := "db_path: data/lib.db\nloan_period_days: 21\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	// Relative paths resolve against the config file's directory.
	assert.Equal(t, filepath.Join(dir, "data/lib.db"), cfg.DBPath)
	assert.Equal(t, 21, cfg.LoanPeriodDays)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfig_InvalidLoanPeriod(t *testing.T) {
	ResetConfig()
	t.Setenv("SHELFTALK_LOAN_PERIOD_DAYS", "-1")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loan_period_days must be positive")
}

func TestGetLogger(t *testing.T) {
	// Fallback is a discard logger, never nil.
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)

	custom := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.WithValue(context.Background(), LoggerKey(), custom)
	assert.Same(t, custom, GetLogger(ctx))
}
