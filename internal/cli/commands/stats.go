package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/shelftalk/internal/cli/output"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Long: `Show library-wide statistics: catalog size, copies, students, and
active borrowings.`,
		Example: `  shelftalk stats
  shelftalk stats --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd)
		},
	}
}

// statsResult is the JSON shape of the stats command.
type statsResult struct {
	TotalBooks       int `json:"total_books"`
	TotalCopies      int `json:"total_copies"`
	AvailableCopies  int `json:"available_copies"`
	BorrowedCopies   int `json:"borrowed_copies"`
	TotalStudents    int `json:"total_students"`
	ActiveBorrowings int `json:"active_borrowings"`
}

func runStats(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)

	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(statsResult{
			TotalBooks:       stats.TotalBooks,
			TotalCopies:      stats.TotalCopies,
			AvailableCopies:  stats.AvailableCopies,
			BorrowedCopies:   stats.BorrowedCopies,
			TotalStudents:    stats.TotalStudents,
			ActiveBorrowings: stats.ActiveBorrowings,
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Library Statistics"))
		r.Println("")
		r.Println(output.FormatKeyValue("Total unique books", fmt.Sprintf("%d", stats.TotalBooks)))
		r.Println(output.FormatKeyValue("Total copies", fmt.Sprintf("%d", stats.TotalCopies)))
		r.Println(output.FormatKeyValue("Available copies", fmt.Sprintf("%d", stats.AvailableCopies)))
		r.Println(output.FormatKeyValue("Borrowed copies", fmt.Sprintf("%d", stats.BorrowedCopies)))
		r.Println(output.FormatKeyValue("Total students", fmt.Sprintf("%d", stats.TotalStudents)))
		r.Println(output.FormatKeyValue("Active borrowings", fmt.Sprintf("%d", stats.ActiveBorrowings)))
		return nil
	default:
		r.Header(1, "Library Statistics")
		r.KeyValue("Total unique books", stats.TotalBooks)
		r.KeyValue("Total copies", stats.TotalCopies)
		r.KeyValue("Available copies", stats.AvailableCopies)
		r.KeyValue("Borrowed copies", stats.BorrowedCopies)
		r.KeyValue("Total students", stats.TotalStudents)
		r.KeyValue("Active borrowings", stats.ActiveBorrowings)
		return nil
	}
}
