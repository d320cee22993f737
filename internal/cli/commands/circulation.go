package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/shelftalk/internal/cli/output"
	"github.com/leapstack-labs/shelftalk/internal/library"
)

// CheckoutOptions holds options for the checkout command.
type CheckoutOptions struct {
	Days int
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand() *cobra.Command {
	opts := &CheckoutOptions{}

	cmd := &cobra.Command{
		Use:   "checkout <student-id> <isbn>",
		Short: "Check a book out to a student",
		Long: `Check a book out to a student.

The student is identified by their library ID (e.g. S2023001) and the book
by ISBN. The due date defaults to the configured loan period from today;
override it per checkout with --days.`,
		Example: `  shelftalk checkout S2023001 978-0-7475-3269-9

  # Two-week loan
  shelftalk checkout S2023001 978-0-7475-3269-9 --days 14`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Days, "days", 0, "Loan period in days (default: configured loan_period_days)")

	return cmd
}

// borrowingResult is the JSON shape of a circulation operation.
type borrowingResult struct {
	StudentID  string  `json:"student_id"`
	ISBN       string  `json:"isbn"`
	BorrowDate string  `json:"borrow_date"`
	DueDate    string  `json:"due_date"`
	ReturnDate *string `json:"return_date,omitempty"`
}

func runCheckout(cmd *cobra.Command, args []string, opts *CheckoutOptions) error {
	cmdCtx := NewCommandContext(cmd)
	studentID, isbn := args[0], args[1]

	days := opts.Days
	if days <= 0 {
		days = cmdCtx.Cfg.LoanPeriodDays
	}

	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	now := timeNow()
	borrowDate := now.Format(library.DateLayout)
	dueDate := now.AddDate(0, 0, days).Format(library.DateLayout)

	b, err := store.CheckoutBook(cmd.Context(), studentID, isbn, borrowDate, dueDate)
	if err != nil {
		return circulationError(err)
	}

	cmdCtx.Logger.Debug("checked out book",
		"student_id", studentID, "isbn", isbn, "due_date", b.DueDate)

	r := cmdCtx.Renderer
	result := borrowingResult{
		StudentID:  studentID,
		ISBN:       isbn,
		BorrowDate: b.BorrowDate,
		DueDate:    b.DueDate,
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Checkout"))
		r.Println("")
		r.Println(output.FormatKeyValue("Student", studentID))
		r.Println(output.FormatKeyValue("ISBN", isbn))
		r.Println(output.FormatKeyValue("Due date", b.DueDate))
		return nil
	default:
		r.Success(fmt.Sprintf("Checked out %s to %s", isbn, studentID))
		r.KeyValue("Borrowed", b.BorrowDate)
		r.KeyValue("Due", b.DueDate)
		return nil
	}
}

// NewReturnCommand creates the return command.
func NewReturnCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "return <student-id> <isbn>",
		Short: "Return a borrowed book",
		Long: `Record the return of a borrowed book.

Closes the oldest outstanding borrowing for the student/book pair and
makes the copy available again.`,
		Example: `  shelftalk return S2023001 978-0-7475-3269-9`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReturn(cmd, args)
		},
	}
}

func runReturn(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	studentID, isbn := args[0], args[1]

	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	returnDate := timeNow().Format(library.DateLayout)

	b, err := store.ReturnBook(cmd.Context(), studentID, isbn, returnDate)
	if err != nil {
		return circulationError(err)
	}

	cmdCtx.Logger.Debug("returned book",
		"student_id", studentID, "isbn", isbn, "return_date", returnDate)

	r := cmdCtx.Renderer
	result := borrowingResult{
		StudentID:  studentID,
		ISBN:       isbn,
		BorrowDate: b.BorrowDate,
		DueDate:    b.DueDate,
		ReturnDate: b.ReturnDate,
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Return"))
		r.Println("")
		r.Println(output.FormatKeyValue("Student", studentID))
		r.Println(output.FormatKeyValue("ISBN", isbn))
		r.Println(output.FormatKeyValue("Returned", returnDate))
		return nil
	default:
		r.Success(fmt.Sprintf("Returned %s from %s", isbn, studentID))
		if b.DueDate < returnDate {
			r.Muted("Returned after the due date (" + b.DueDate + ")")
		}
		return nil
	}
}

// circulationError keeps the sentinel errors readable at the CLI without
// the wrapping chain.
func circulationError(err error) error {
	switch {
	case errors.Is(err, library.ErrBookNotFound),
		errors.Is(err, library.ErrStudentNotFound),
		errors.Is(err, library.ErrNoCopiesAvailable),
		errors.Is(err, library.ErrNotBorrowed):
		return err
	default:
		return fmt.Errorf("circulation operation failed: %w", err)
	}
}
