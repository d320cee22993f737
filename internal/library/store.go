// Package library provides the data access layer for the school library:
// books, students, and borrowing records backed by an embedded SQLite
// database.
package library

import (
	"context"
	"errors"
)

// DateLayout is the ISO date format used for all date columns.
const DateLayout = "2006-01-02"

// Sentinel errors returned by circulation operations.
var (
	ErrBookNotFound      = errors.New("book not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrNotBorrowed       = errors.New("book is not currently borrowed by this student")
)

// Book is a catalog entry. AvailableCopies is always within
// [0, TotalCopies].
type Book struct {
	ID              int64
	Title           string
	Author          string
	ISBN            string
	PublishedYear   int
	Genre           string
	TotalCopies     int
	AvailableCopies int
}

// Student is a registered library patron. StudentID is the formatted
// identifier (e.g. "S2023001"), distinct from the surrogate key.
type Student struct {
	ID        int64
	Name      string
	Grade     int
	StudentID string
}

// Borrowing is a single loan row. ReturnDate is nil while the loan is
// outstanding.
type Borrowing struct {
	ID         int64
	StudentID  int64
	BookID     int64
	BorrowDate string
	DueDate    string
	ReturnDate *string
}

// BorrowingRecord is a borrowing joined with its book and student,
// as presented to the user. StudentName and StudentRef are empty for
// queries already scoped to one student.
type BorrowingRecord struct {
	Title       string
	Author      string
	StudentName string
	StudentRef  string
	BorrowDate  string
	DueDate     string
	ReturnDate  *string
	Status      string
}

// Availability describes the copy counts for a single title.
type Availability struct {
	Title           string
	Author          string
	TotalCopies     int
	AvailableCopies int
	BorrowedCopies  int
}

// Stats holds the library-wide aggregate counts.
type Stats struct {
	TotalBooks       int
	TotalCopies      int
	AvailableCopies  int
	BorrowedCopies   int
	TotalStudents    int
	ActiveBorrowings int
}

// Store is the read/write interface over the library database.
type Store interface {
	// Books
	AllBooks(ctx context.Context) ([]*Book, error)
	AvailableBooks(ctx context.Context) ([]*Book, error)
	UnavailableBooks(ctx context.Context) ([]*Book, error)
	SearchBooksByTitle(ctx context.Context, title string) ([]*Book, error)
	SearchBooksByAuthor(ctx context.Context, author string) ([]*Book, error)
	SearchBooksByGenre(ctx context.Context, genre string) ([]*Book, error)
	BookAvailability(ctx context.Context, title string) ([]*Availability, error)

	// Students
	AllStudents(ctx context.Context) ([]*Student, error)
	SearchStudentsByName(ctx context.Context, name string) ([]*Student, error)
	StudentByID(ctx context.Context, studentID string) (*Student, error)
	StudentsByGrade(ctx context.Context, grade int) ([]*Student, error)

	// Borrowings
	BorrowingsByStudent(ctx context.Context, studentName string) ([]*BorrowingRecord, error)
	CurrentBorrowingsByStudent(ctx context.Context, studentName string) ([]*BorrowingRecord, error)
	CurrentBorrowings(ctx context.Context) ([]*BorrowingRecord, error)
	OverdueBorrowings(ctx context.Context, asOf string) ([]*BorrowingRecord, error)
	BorrowingHistory(ctx context.Context) ([]*BorrowingRecord, error)

	// Aggregates
	Stats(ctx context.Context) (*Stats, error)

	// Circulation
	CheckoutBook(ctx context.Context, studentID, isbn, borrowDate, dueDate string) (*Borrowing, error)
	ReturnBook(ctx context.Context, studentID, isbn, returnDate string) (*Borrowing, error)
}
