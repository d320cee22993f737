package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/shelftalk/internal/library"
	"github.com/leapstack-labs/shelftalk/internal/testutil"
)

func setupTestAgent(t *testing.T) *Agent {
	t.Helper()
	store := library.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"), "open store")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(), "migrate")
	_, err := store.Seed(context.Background())
	require.NoError(t, err, "seed")

	a := New(store, testutil.NewTestLogger(t))
	// Fixed clock so overdue answers are stable against the seed data.
	a.now = func() time.Time {
		return time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)
	}
	return a
}

func TestAgent_Respond(t *testing.T) {
	a := setupTestAgent(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name:     "available books",
			input:    "What books are available?",
			contains: []string{"Available Books (11 found)", "The Hobbit"},
		},
		{
			name:     "all books",
			input:    "Show all books",
			contains: []string{"All Library Books (12 found)", "The Catcher in the Rye"},
		},
		{
			name:     "all books with trailing punctuation",
			input:    "  Show all books.  ",
			contains: []string{"All Library Books (12 found)"},
		},
		{
			name:     "unavailable books",
			input:    "unavailable books",
			contains: []string{"Unavailable Books", "The Catcher in the Rye"},
		},
		{
			name:     "student borrowings",
			input:    "What books did Alice Chan borrow?",
			contains: []string{"Books borrowed by 'alice chan' (2 found)", "The Hobbit", "1984"},
		},
		{
			name:     "student borrowings with filler words",
			input:    "What books did Alice Chan currently borrow?",
			contains: []string{"Books borrowed by 'alice chan' (2 found)"},
		},
		{
			name:     "borrowed by phrasing",
			input:    "Books borrowed by Bob Lee",
			contains: []string{"Books borrowed by 'bob lee' (2 found)", "The Great Gatsby"},
		},
		{
			name:     "possessive student lookup",
			input:    "Alice Chan's books",
			contains: []string{"Books borrowed by 'alice chan' (2 found)"},
		},
		{
			name:     "missing student name",
			input:    "books borrowed by a",
			contains: []string{"Please specify a student name."},
		},
		{
			name:     "search by author",
			input:    "Books by George Orwell",
			contains: []string{"Books by 'george orwell' (2 found)", "Animal Farm"},
		},
		{
			name:     "genre search",
			input:    "Fantasy books",
			contains: []string{"'Fantasy' Books (2 found)", "Harry Potter"},
		},
		{
			name:     "genre falls back to title",
			input:    "Hobbit books",
			contains: []string{"Books matching 'hobbit' (1 found)"},
		},
		{
			name:     "genre with no match at all",
			input:    "Mystery books",
			contains: []string{"No books found for genre or title 'mystery'."},
		},
		{
			name:     "availability of a title",
			input:    "Is The Hobbit available?",
			contains: []string{"Availability for 'the hobbit'", "3/5 copies", "2 borrowed"},
		},
		{
			name:     "availability via do you have",
			input:    "Do you have The Hobbit?",
			contains: []string{"Availability for 'the hobbit'", "3/5 copies"},
		},
		{
			name:     "availability via bare have",
			input:    "Have The Hobbit?",
			contains: []string{"Availability for 'the hobbit'", "3/5 copies"},
		},
		{
			name:     "availability of unknown title",
			input:    "Is Moby Dick available?",
			contains: []string{"No book found matching 'moby dick'."},
		},
		{
			name:     "current borrowings",
			input:    "Show current borrowings",
			contains: []string{"Current Borrowings (10 found)"},
		},
		{
			name:     "overdue books",
			input:    "What books are overdue?",
			contains: []string{"Overdue Books (2 found)", "The Catcher in the Rye"},
		},
		{
			name:     "all students",
			input:    "List all students",
			contains: []string{"All Students (8 found)", "Henry Brown"},
		},
		{
			name:     "students by grade",
			input:    "Students in grade 10",
			contains: []string{"Grade 10 Students (2 found)", "Alice Chan", "David Kim"},
		},
		{
			name:     "students in out of range grade",
			input:    "Students in grade 5",
			contains: []string{"Grades run 7 through 12"},
		},
		{
			name:     "library stats",
			input:    "Library stats",
			contains: []string{"Library Statistics", "Total unique books"},
		},
		{
			name:     "how many books",
			input:    "How many books?",
			contains: []string{"Library Statistics"},
		},
		{
			name:     "borrowing history",
			input:    "Borrowing history",
			contains: []string{"Borrowing History (13 found)"},
		},
		{
			name:     "help",
			input:    "help",
			contains: []string{"BOOKS", "STUDENTS", "BORROWINGS"},
		},
		{
			name:     "empty input",
			input:    "   ",
			contains: []string{"Please enter a question about the library."},
		},
		{
			name:     "unrecognized input",
			input:    "xyzabc123",
			contains: []string{"not sure"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := a.Respond(ctx, tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, reply, want)
			}
		})
	}
}

func TestAgent_OverdueNoResults(t *testing.T) {
	a := setupTestAgent(t)
	// Before any seed due date has passed.
	a.now = func() time.Time {
		return time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	}

	reply := a.Respond(context.Background(), "overdue books")
	assert.Equal(t, "No overdue books! All borrowed books are within their due dates.", reply)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"What books are available?", "what books are available"},
		{"  HELP!  ", "help"},
		{"stats...", "stats"},
		{"", ""},
		{" ?! ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize(tt.input), "normalize(%q)", tt.input)
	}
}

func TestCleanStudentName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice chan", "alice chan"},
		{"alice chan currently", "alice chan"},
		{"bob lee borrowed", "bob lee"},
		{"has  emma  wilson", "emma wilson"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanStudentName(tt.input), "cleanStudentName(%q)", tt.input)
	}
}

func TestFormatBooks_Empty(t *testing.T) {
	assert.Equal(t, "No available books found.", formatBooks("Available Books", nil))
}

func TestFormatStats(t *testing.T) {
	out := formatStats(&library.Stats{
		TotalBooks:       12,
		TotalCopies:      55,
		AvailableCopies:  37,
		BorrowedCopies:   18,
		TotalStudents:    8,
		ActiveBorrowings: 10,
	})

	assert.Contains(t, out, "Library Statistics:")
	assert.Contains(t, out, "Total unique books:  12")
	assert.Contains(t, out, "Active borrowings:   10")
}
