package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/shelftalk/internal/agent"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the library assistant a single question",
		Long: `Ask the library assistant one question and print the answer.

The question can be passed as arguments or piped on stdin. This is the
non-interactive counterpart of 'shelftalk chat', suited to scripting.`,
		Example: `  shelftalk ask "What books are available?"
  shelftalk ask what books did Alice Chan borrow
  echo "library stats" | shelftalk ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args)
		},
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)

	var question string
	switch {
	case len(args) > 0:
		question = strings.Join(args, " ")
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		question = string(content)
	default:
		return fmt.Errorf("no question given (pass it as arguments or pipe it on stdin)")
	}

	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ag := agent.New(store, cmdCtx.Logger)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), ag.Respond(cmd.Context(), question))
	return nil
}
