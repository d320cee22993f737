// Package agent implements the rule-based intent router that turns
// natural-language questions into library store queries.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/shelftalk/internal/library"
)

// Agent matches input text against an ordered list of intent patterns and
// dispatches to the corresponding store operation. It holds no state beyond
// the open store handle.
type Agent struct {
	store    library.Store
	logger   *slog.Logger
	now      func() time.Time
	patterns []pattern
}

type handlerFunc func(ctx context.Context, match []string) (string, error)

type pattern struct {
	re     *regexp.Regexp
	handle handlerFunc
}

// New creates an agent over the given store.
func New(store library.Store, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &Agent{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	a.patterns = a.buildPatterns()
	return a
}

// buildPatterns returns the intent table. Order is precedence: specific
// phrasings come before the broad catch-alls at the bottom, so
// "fantasy books" reaches the genre search and "alice's books" the
// borrowing lookup.
func (a *Agent) buildPatterns() []pattern {
	return []pattern{
		// Books borrowed by a named student
		{regexp.MustCompile(`(?:what|which) books? (?:did|has|have) (.+?) borrow(?:ed)?`), a.handleStudentBorrowings},
		{regexp.MustCompile(`books? borrowed by (.+)`), a.handleStudentBorrowings},

		// Available books
		{regexp.MustCompile(`(?:which|what) books? (?:are|is) (?:currently )?available`), a.handleAvailableBooks},
		{regexp.MustCompile(`^available books?$`), a.handleAvailableBooks},
		{regexp.MustCompile(`books? (?:that are )?(?:in stock|available)`), a.handleAvailableBooks},

		// Unavailable books
		{regexp.MustCompile(`(?:which|what) books? (?:are|is) (?:not available|unavailable|borrowed out)`), a.handleUnavailableBooks},
		{regexp.MustCompile(`^unavailable books?$`), a.handleUnavailableBooks},

		// Overdue books
		{regexp.MustCompile(`overdue books?`), a.handleOverdueBooks},
		{regexp.MustCompile(`(?:which|what) books? (?:are|is) overdue`), a.handleOverdueBooks},
		{regexp.MustCompile(`late (?:returns?|books?)`), a.handleOverdueBooks},

		// Current borrowings
		{regexp.MustCompile(`(?:current|active) borrowings?`), a.handleCurrentBorrowings},
		{regexp.MustCompile(`(?:who|which students?) (?:has|have) borrowed`), a.handleCurrentBorrowings},
		{regexp.MustCompile(`(?:what|which) books? (?:are|is) (?:currently )?borrowed`), a.handleCurrentBorrowings},

		// All books
		{regexp.MustCompile(`(?:list|show|get|what are) (?:all )?(?:the )?books?$`), a.handleAllBooks},
		{regexp.MustCompile(`^all books?$`), a.handleAllBooks},

		// Availability of a specific title
		{regexp.MustCompile(`(?:is|are) (.+?) available`), a.handleBookAvailability},
		{regexp.MustCompile(`(?:check|find) availability (?:of|for) (.+)`), a.handleBookAvailability},
		{regexp.MustCompile(`(?:do you have|have) (.+)`), a.handleBookAvailability},

		// Search by author
		{regexp.MustCompile(`books? (?:written )?by (.+)`), a.handleSearchByAuthor},
		{regexp.MustCompile(`(?:find|search) books? by (.+)`), a.handleSearchByAuthor},

		// Students by grade
		{regexp.MustCompile(`students? in grade (\d+)`), a.handleStudentsByGrade},
		{regexp.MustCompile(`grade (\d+) students?`), a.handleStudentsByGrade},

		// All students
		{regexp.MustCompile(`(?:list|show|get|all) students?`), a.handleAllStudents},
		{regexp.MustCompile(`(?:who are|which) (?:the )?students?`), a.handleAllStudents},

		// Library statistics
		{regexp.MustCompile(`(?:library )?(?:stats?|statistics|summary|overview)$`), a.handleStats},
		{regexp.MustCompile(`how many books?`), a.handleStats},

		// Borrowing history
		{regexp.MustCompile(`borrowing history`), a.handleBorrowingHistory},
		{regexp.MustCompile(`^(?:all )?borrowings?$`), a.handleBorrowingHistory},

		// Possessive student lookup ("alice's books")
		{regexp.MustCompile(`(.+?)'s (?:borrowed )?books?`), a.handleStudentBorrowings},

		// Genre search (broadest book pattern, second to last)
		{regexp.MustCompile(`books? (?:in|of) (?:the )?(.+?) genre`), a.handleSearchByGenre},
		{regexp.MustCompile(`(.+?) books?$`), a.handleSearchByGenre},

		// Help
		{regexp.MustCompile(`^(?:help|what can you do|commands?)$`), a.handleHelp},
	}
}

// Respond processes one question and returns the answer text. It never
// returns an error: handler failures are reported in-line so the chat loop
// keeps going.
func (a *Agent) Respond(ctx context.Context, input string) string {
	q := normalize(input)
	if q == "" {
		return "Please enter a question about the library."
	}

	for _, p := range a.patterns {
		m := p.re.FindStringSubmatch(q)
		if m == nil {
			continue
		}

		reply, err := p.handle(ctx, m)
		if err != nil {
			a.logger.Error("intent handler failed", "input", q, "error", err)
			return fmt.Sprintf("Sorry, I ran into an error: %v", err)
		}
		return reply
	}

	return unknownText
}

// normalize lowercases the question and strips surrounding whitespace and
// trailing punctuation so captures stay clean.
func normalize(input string) string {
	q := strings.ToLower(strings.TrimSpace(input))
	return strings.TrimRight(q, " ?!.")
}

var fillerWords = regexp.MustCompile(`\b(currently|borrow|borrowed|has|have|did)\b`)

// cleanStudentName strips question filler from a captured student name.
func cleanStudentName(name string) string {
	cleaned := fillerWords.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// skipWords are captures of the broad genre pattern that really mean
// "all books".
var skipWords = map[string]bool{
	"all":       true,
	"the":       true,
	"list":      true,
	"show":      true,
	"available": true,
	"borrowed":  true,
}

// --- Handlers ---

func (a *Agent) handleStudentBorrowings(ctx context.Context, match []string) (string, error) {
	name := cleanStudentName(match[1])
	if len(name) < 2 {
		return "Please specify a student name.", nil
	}

	records, err := a.store.BorrowingsByStudent(ctx, name)
	if err != nil {
		return "", err
	}
	return formatBorrowings(fmt.Sprintf("Books borrowed by '%s'", name), records, false), nil
}

func (a *Agent) handleAvailableBooks(ctx context.Context, _ []string) (string, error) {
	books, err := a.store.AvailableBooks(ctx)
	if err != nil {
		return "", err
	}
	return formatBooks("Available Books", books), nil
}

func (a *Agent) handleUnavailableBooks(ctx context.Context, _ []string) (string, error) {
	books, err := a.store.UnavailableBooks(ctx)
	if err != nil {
		return "", err
	}
	return formatBooks("Unavailable Books (all copies borrowed)", books), nil
}

func (a *Agent) handleAllBooks(ctx context.Context, _ []string) (string, error) {
	books, err := a.store.AllBooks(ctx)
	if err != nil {
		return "", err
	}
	return formatBooks("All Library Books", books), nil
}

func (a *Agent) handleSearchByAuthor(ctx context.Context, match []string) (string, error) {
	author := strings.TrimSpace(match[1])
	books, err := a.store.SearchBooksByAuthor(ctx, author)
	if err != nil {
		return "", err
	}
	return formatBooks(fmt.Sprintf("Books by '%s'", author), books), nil
}

func (a *Agent) handleSearchByGenre(ctx context.Context, match []string) (string, error) {
	genre := strings.TrimSpace(match[1])
	if skipWords[genre] {
		return a.handleAllBooks(ctx, match)
	}

	books, err := a.store.SearchBooksByGenre(ctx, genre)
	if err != nil {
		return "", err
	}
	if len(books) > 0 {
		return formatBooks(fmt.Sprintf("'%s' Books", titleCase(genre)), books), nil
	}

	// The capture may have been a title rather than a genre.
	books, err = a.store.SearchBooksByTitle(ctx, genre)
	if err != nil {
		return "", err
	}
	if len(books) > 0 {
		return formatBooks(fmt.Sprintf("Books matching '%s'", genre), books), nil
	}

	return fmt.Sprintf("No books found for genre or title '%s'.", genre), nil
}

func (a *Agent) handleBookAvailability(ctx context.Context, match []string) (string, error) {
	title := strings.TrimSpace(match[1])
	results, err := a.store.BookAvailability(ctx, title)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No book found matching '%s'.", title), nil
	}
	return formatAvailability(title, results), nil
}

func (a *Agent) handleCurrentBorrowings(ctx context.Context, _ []string) (string, error) {
	records, err := a.store.CurrentBorrowings(ctx)
	if err != nil {
		return "", err
	}
	return formatBorrowings("Current Borrowings", records, true), nil
}

func (a *Agent) handleOverdueBooks(ctx context.Context, _ []string) (string, error) {
	asOf := a.now().Format(library.DateLayout)
	records, err := a.store.OverdueBorrowings(ctx, asOf)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "No overdue books! All borrowed books are within their due dates.", nil
	}
	return formatBorrowings("Overdue Books", records, true), nil
}

func (a *Agent) handleAllStudents(ctx context.Context, _ []string) (string, error) {
	students, err := a.store.AllStudents(ctx)
	if err != nil {
		return "", err
	}
	return formatStudents("All Students", students), nil
}

func (a *Agent) handleStudentsByGrade(ctx context.Context, match []string) (string, error) {
	grade, err := strconv.Atoi(match[1])
	if err != nil {
		return "", fmt.Errorf("invalid grade %q: %w", match[1], err)
	}
	if grade < 7 || grade > 12 {
		return fmt.Sprintf("Grades run 7 through 12; there is no grade %d here.", grade), nil
	}

	students, err := a.store.StudentsByGrade(ctx, grade)
	if err != nil {
		return "", err
	}
	return formatStudents(fmt.Sprintf("Grade %d Students", grade), students), nil
}

func (a *Agent) handleStats(ctx context.Context, _ []string) (string, error) {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return "", err
	}
	return formatStats(stats), nil
}

func (a *Agent) handleBorrowingHistory(ctx context.Context, _ []string) (string, error) {
	records, err := a.store.BorrowingHistory(ctx)
	if err != nil {
		return "", err
	}
	return formatBorrowings("Borrowing History", records, true), nil
}

func (a *Agent) handleHelp(_ context.Context, _ []string) (string, error) {
	return helpText, nil
}
