package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/shelftalk/internal/cli/config"
)

// openLibraryDBReadOnly opens the library database in read-only mode.
// The file: prefix is required for the driver to honor mode=ro.
func openLibraryDBReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("library database not found at %s (run 'shelftalk setup' first)", path)
	}
	return sql.Open("sqlite", "file:"+path+"?mode=ro")
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the library database with SQL",
		Long: `Run read-only SQL queries against the library database.

Inspect books, students, and borrowings directly when the assistant's
built-in questions are not enough. Supports multiple output formats for
scripting and integration.`,
		Example: `  # Execute SQL directly
  shelftalk query "SELECT title, available_copies FROM books"

  # List available tables
  shelftalk query tables

  # Show schema for a table
  shelftalk query schema borrowings

  # Output as JSON
  shelftalk query "SELECT * FROM students" --format json

  # Read SQL from a file or stdin
  shelftalk query -i report.sql
  echo "SELECT COUNT(*) FROM books" | shelftalk query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	dbPath := cmdCtx.Cfg.DBPath

	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return cmd.Help()
	}

	return executeAndRender(cmd.Context(), cmd, dbPath, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, cmd *cobra.Command, dbPath, sqlQuery, format string) error {
	db, err := openLibraryDBReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List all tables in the library database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			return withReadOnlyDB(cmdCtx.Cfg, func(db *sql.DB) error {
				return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, opts.Format)
			})
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			return withReadOnlyDB(cmdCtx.Cfg, func(db *sql.DB) error {
				return showSchemaFromDB(cmd.Context(), cmd.OutOrStdout(), db, args[0], opts.Format)
			})
		},
	}
}

func withReadOnlyDB(cfg *config.Config, fn func(db *sql.DB) error) error {
	db, err := openLibraryDBReadOnly(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
