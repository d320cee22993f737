package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/shelftalk/internal/cli/output"
	"github.com/leapstack-labs/shelftalk/internal/library"
)

// SetupOptions holds options for the setup command.
type SetupOptions struct {
	Force bool
}

// NewSetupCommand creates the setup command.
func NewSetupCommand() *cobra.Command {
	opts := &SetupOptions{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the library database and load sample data",
		Long: `Create the library database, run migrations, and load seed data.

Seed data ships embedded in the binary (a small catalog of books, students,
and borrowing records). Use --seeds-dir to load your own CSV files instead:
books.csv, students.csv, and borrowings.csv.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Create library.db with the sample data set
  shelftalk setup

  # Recreate from scratch
  shelftalk setup --force

  # Load seeds from a custom directory
  shelftalk setup --seeds-dir ./data/seeds

  # Machine-readable result
  shelftalk setup --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Delete the existing database before setup")

	return cmd
}

// setupResult is the JSON shape of a setup run.
type setupResult struct {
	DBPath  string              `json:"db_path"`
	Created bool                `json:"created"`
	Seeds   *library.SeedCounts `json:"seeds"`
}

func runSetup(cmd *cobra.Command, opts *SetupOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	if opts.Force {
		if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}

	_, statErr := os.Stat(cfg.DBPath)
	created := os.IsNotExist(statErr)

	store := library.NewSQLiteStore()
	if err := store.Open(cfg.DBPath); err != nil {
		return fmt.Errorf("failed to open library database: %w", err)
	}
	defer func() { _ = store.Close() }()

	cmdCtx.Logger.Debug("running migrations", "db_path", cfg.DBPath)
	if err := store.Migrate(); err != nil {
		return err
	}

	var counts *library.SeedCounts
	var err error
	if cfg.SeedsDir != "" {
		cmdCtx.Logger.Debug("loading seeds from directory", "seeds_dir", cfg.SeedsDir)
		counts, err = store.SeedFromDir(ctx, cfg.SeedsDir)
	} else {
		counts, err = store.Seed(ctx)
	}
	if err != nil {
		return err
	}

	result := setupResult{DBPath: cfg.DBPath, Created: created, Seeds: counts}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Library Setup"))
		r.Println("")
		r.Println(output.FormatKeyValue("Database", cfg.DBPath))
		r.Println(output.FormatKeyValue("Books", fmt.Sprintf("%d", counts.Books)))
		r.Println(output.FormatKeyValue("Students", fmt.Sprintf("%d", counts.Students)))
		r.Println(output.FormatKeyValue("Borrowings", fmt.Sprintf("%d", counts.Borrowings)))
		return nil
	default:
		r.Header(1, "Library Setup")
		r.Success("Database ready at " + cfg.DBPath)
		r.KeyValue("Books", counts.Books)
		r.KeyValue("Students", counts.Students)
		r.KeyValue("Borrowings", counts.Borrowings)
		r.Println("")
		r.Muted("Try: shelftalk chat")
		return nil
	}
}
