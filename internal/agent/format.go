package agent

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/shelftalk/internal/library"
)

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func newResultTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

// formatBooks renders a headed book list with availability counts.
func formatBooks(heading string, books []*library.Book) string {
	if len(books) == 0 {
		return fmt.Sprintf("No %s found.", strings.ToLower(heading))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d found):\n", heading, len(books))

	t := newResultTable()
	t.AppendHeader(table.Row{"Title", "Author", "Genre", "Available"})
	for _, b := range books {
		t.AppendRow(table.Row{
			b.Title,
			b.Author,
			b.Genre,
			fmt.Sprintf("%d/%d", b.AvailableCopies, b.TotalCopies),
		})
	}
	sb.WriteString(t.Render())
	sb.WriteByte('\n')
	return sb.String()
}

// formatBorrowings renders borrowing records. The student column is only
// included when the records are not already scoped to one student.
func formatBorrowings(heading string, records []*library.BorrowingRecord, withStudent bool) string {
	if len(records) == 0 {
		return fmt.Sprintf("No %s found.", strings.ToLower(heading))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d found):\n", heading, len(records))

	t := newResultTable()
	header := table.Row{"Title"}
	if withStudent {
		header = append(header, "Student")
	}
	header = append(header, "Borrowed", "Due", "Status")
	t.AppendHeader(header)

	for _, r := range records {
		status := r.Status
		if r.ReturnDate != nil {
			status = fmt.Sprintf("Returned %s", *r.ReturnDate)
		}

		row := table.Row{r.Title}
		if withStudent {
			student := r.StudentName
			if r.StudentRef != "" {
				student = fmt.Sprintf("%s (%s)", r.StudentName, r.StudentRef)
			}
			row = append(row, student)
		}
		row = append(row, r.BorrowDate, r.DueDate, status)
		t.AppendRow(row)
	}
	sb.WriteString(t.Render())
	sb.WriteByte('\n')
	return sb.String()
}

// formatStudents renders a headed student list.
func formatStudents(heading string, students []*library.Student) string {
	if len(students) == 0 {
		return fmt.Sprintf("No %s found.", strings.ToLower(heading))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d found):\n", heading, len(students))

	t := newResultTable()
	t.AppendHeader(table.Row{"Name", "ID", "Grade"})
	for _, s := range students {
		t.AppendRow(table.Row{s.Name, s.StudentID, s.Grade})
	}
	sb.WriteString(t.Render())
	sb.WriteByte('\n')
	return sb.String()
}

// formatAvailability renders copy counts for titles matching a search term.
func formatAvailability(term string, results []*library.Availability) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Availability for '%s':\n", term)

	for _, r := range results {
		status := "Available"
		if r.AvailableCopies == 0 {
			status = "Not available"
		}
		fmt.Fprintf(&sb, "  %s by %s: %s (%d/%d copies, %d borrowed)\n",
			r.Title, r.Author, status, r.AvailableCopies, r.TotalCopies, r.BorrowedCopies)
	}
	return sb.String()
}

// formatStats renders the library-wide statistics.
func formatStats(s *library.Stats) string {
	var sb strings.Builder
	sb.WriteString("Library Statistics:\n")
	fmt.Fprintf(&sb, "  Total unique books:  %d\n", s.TotalBooks)
	fmt.Fprintf(&sb, "  Total copies:        %d\n", s.TotalCopies)
	fmt.Fprintf(&sb, "  Available copies:    %d\n", s.AvailableCopies)
	fmt.Fprintf(&sb, "  Borrowed copies:     %d\n", s.BorrowedCopies)
	fmt.Fprintf(&sb, "  Total students:      %d\n", s.TotalStudents)
	fmt.Fprintf(&sb, "  Active borrowings:   %d\n", s.ActiveBorrowings)
	return sb.String()
}

const helpText = `Shelftalk Help

BOOKS
  "What books are available?"
  "Show all books"
  "Books by J.K. Rowling"
  "Fantasy books"               (search by genre)
  "Is The Hobbit available?"

STUDENTS
  "List all students"
  "Students in grade 10"

BORROWINGS
  "What books did Alice Chan borrow?"
  "Current borrowings"
  "Overdue books"
  "Borrowing history"

OTHER
  "Library stats"               overall statistics
  "help"                        this message

Type 'quit' or 'exit' to leave the chat.`

const unknownText = `I'm not sure how to answer that question.

Try asking things like:
  "What books are available?"
  "What books did Alice Chan borrow?"
  "Show all students"
  "Library stats"

Type 'help' for more options.`
