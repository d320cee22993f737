package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/shelftalk/internal/agent"
)

// Words that end a chat session, checked case-insensitively.
var quitWords = map[string]bool{
	"quit": true,
	"exit": true,
	"bye":  true,
	"q":    true,
}

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive library assistant session",
		Long: `Start an interactive session with the library assistant.

Ask questions in plain English about books, students, and borrowings.
The assistant matches each question against a set of known phrasings and
answers from the library database.

Dot-commands (.tables, .schema, .help) inspect the underlying database
directly. Type 'help' for example questions, 'quit' to leave.`,
		Example: `  shelftalk chat

  shelftalk> What books are available?
  shelftalk> What books did Alice Chan borrow?
  shelftalk> Is The Hobbit available?`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd)
		},
	}
}

func runChat(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ag := agent.New(store, cmdCtx.Logger)

	// History lives next to the database so each library keeps its own.
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.DBPath), ".shelftalk_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "shelftalk> ",
		HistoryFile:     historyFile,
		AutoComplete:    newChatCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat session: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "School Library Assistant (db: %s)\n", cmdCtx.Cfg.DBPath)
	_, _ = fmt.Fprintln(out, "Ask about books, students, and borrowings. Type 'help' for examples, 'quit' to exit.")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if quitWords[strings.ToLower(line)] {
			break
		}

		if strings.HasPrefix(line, ".") {
			if line == ".quit" || line == ".exit" {
				break
			}
			handleChatDotCommand(ctx, cmd, store.DB(), line)
			continue
		}

		_, _ = fmt.Fprintln(out, ag.Respond(ctx, line))
		_, _ = fmt.Fprintln(out)
	}

	_, _ = fmt.Fprintln(out, "Goodbye!")
	return nil
}

func handleChatDotCommand(ctx context.Context, cmd *cobra.Command, db *sql.DB, line string) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".help":
		printChatHelp(cmd.OutOrStdout())

	case ".tables":
		if err := listTablesFromDB(ctx, cmd.OutOrStdout(), db, "table"); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return
		}
		if err := showSchemaFromDB(ctx, cmd.OutOrStdout(), db, parts[1], "table"); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
}

func printChatHelp(w io.Writer) {
	help := `
Dot-commands:
  .help           Show this help message
  .tables         List database tables
  .schema <name>  Show schema for a table
  .clear          Clear the screen
  .quit / .exit   Leave the session

Tips:
  - Type 'help' (no dot) for example questions the assistant understands
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newChatCompleter suggests sample questions and dot-commands.
func newChatCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("What books are available?"),
		readline.PcItem("Show all books"),
		readline.PcItem("Show current borrowings"),
		readline.PcItem("What books are overdue?"),
		readline.PcItem("List all students"),
		readline.PcItem("Library stats"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
