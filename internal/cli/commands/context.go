package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/shelftalk/internal/cli/config"
	"github.com/leapstack-labs/shelftalk/internal/cli/output"
	"github.com/leapstack-labs/shelftalk/internal/library"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration. It uses
// config.GetCurrentConfig() if available, otherwise falls back to
// environment variables with defaults.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	dbPath := getEnvOrDefault("SHELFTALK_DB_PATH", config.DefaultDBFile)
	seedsDir := os.Getenv("SHELFTALK_SEEDS_DIR")
	loanDays := config.DefaultLoanPeriodDays
	if v := os.Getenv("SHELFTALK_LOAN_PERIOD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			loanDays = n
		}
	}

	return &config.Config{
		DBPath:         dbPath,
		SeedsDir:       seedsDir,
		LoanPeriodDays: loanDays,
		Verbose:        os.Getenv("SHELFTALK_VERBOSE") == "true",
		OutputFormat:   os.Getenv("SHELFTALK_OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStore opens the library database for reading and writing. The
// database must already exist; setup creates it.
func openStore(cfg *config.Config) (*library.SQLiteStore, error) {
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("library database not found at %s (run 'shelftalk setup' first)", cfg.DBPath)
	}

	store := library.NewSQLiteStore()
	if err := store.Open(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}
	return store, nil
}
