package library

import (
	"context"
	"database/sql"
	"fmt"

	// sqlite driver for the library database.
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" {
		// Each pool connection gets its own in-memory database, so a
		// second connection would see empty tables.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for migrations and tests.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const bookColumns = `id, title, author, isbn, published_year, genre, total_copies, available_copies`

// --- Book operations ---

// AllBooks returns every book in the catalog.
func (s *SQLiteStore) AllBooks(ctx context.Context) ([]*Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title`)
}

// AvailableBooks returns books with at least one available copy.
func (s *SQLiteStore) AvailableBooks(ctx context.Context) ([]*Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE available_copies > 0 ORDER BY title`)
}

// UnavailableBooks returns books with every copy borrowed out.
func (s *SQLiteStore) UnavailableBooks(ctx context.Context) ([]*Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE available_copies = 0 ORDER BY title`)
}

// SearchBooksByTitle matches titles case-insensitively on a partial string.
func (s *SQLiteStore) SearchBooksByTitle(ctx context.Context, title string) ([]*Book, error) {
	return s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE LOWER(title) LIKE LOWER(?) ORDER BY title`,
		likePattern(title))
}

// SearchBooksByAuthor matches authors case-insensitively on a partial string.
func (s *SQLiteStore) SearchBooksByAuthor(ctx context.Context, author string) ([]*Book, error) {
	return s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE LOWER(author) LIKE LOWER(?) ORDER BY title`,
		likePattern(author))
}

// SearchBooksByGenre matches genres case-insensitively on a partial string.
func (s *SQLiteStore) SearchBooksByGenre(ctx context.Context, genre string) ([]*Book, error) {
	return s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE LOWER(genre) LIKE LOWER(?) ORDER BY title`,
		likePattern(genre))
}

// BookAvailability returns copy counts for titles matching the given string.
func (s *SQLiteStore) BookAvailability(ctx context.Context, title string) ([]*Availability, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT title, author, total_copies, available_copies,
		       (total_copies - available_copies) AS borrowed_copies
		FROM books
		WHERE LOWER(title) LIKE LOWER(?)
		ORDER BY title`,
		likePattern(title))
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var results []*Availability
	for rows.Next() {
		a := &Availability{}
		if err := rows.Scan(&a.Title, &a.Author, &a.TotalCopies, &a.AvailableCopies, &a.BorrowedCopies); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		results = append(results, a)
	}

	return results, rows.Err()
}

func (s *SQLiteStore) queryBooks(ctx context.Context, query string, args ...any) ([]*Book, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		b := &Book{}
		var isbn, genre sql.NullString
		var year sql.NullInt64

		err := rows.Scan(&b.ID, &b.Title, &b.Author, &isbn, &year, &genre, &b.TotalCopies, &b.AvailableCopies)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}

		if isbn.Valid {
			b.ISBN = isbn.String
		}
		if year.Valid {
			b.PublishedYear = int(year.Int64)
		}
		if genre.Valid {
			b.Genre = genre.String
		}
		books = append(books, b)
	}

	return books, rows.Err()
}

// --- Student operations ---

const studentColumns = `id, name, grade, student_id`

// AllStudents returns every registered student.
func (s *SQLiteStore) AllStudents(ctx context.Context) ([]*Student, error) {
	return s.queryStudents(ctx, `SELECT `+studentColumns+` FROM students ORDER BY name`)
}

// SearchStudentsByName matches student names case-insensitively on a
// partial string.
func (s *SQLiteStore) SearchStudentsByName(ctx context.Context, name string) ([]*Student, error) {
	return s.queryStudents(ctx,
		`SELECT `+studentColumns+` FROM students WHERE LOWER(name) LIKE LOWER(?) ORDER BY name`,
		likePattern(name))
}

// StudentByID retrieves a student by their formatted identifier
// (e.g. "S2023001"). Returns ErrStudentNotFound when no row matches.
func (s *SQLiteStore) StudentByID(ctx context.Context, studentID string) (*Student, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	st := &Student{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE student_id = ?`,
		studentID,
	).Scan(&st.ID, &st.Name, &st.Grade, &st.StudentID)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return st, nil
}

// StudentsByGrade returns all students in the given grade.
func (s *SQLiteStore) StudentsByGrade(ctx context.Context, grade int) ([]*Student, error) {
	return s.queryStudents(ctx,
		`SELECT `+studentColumns+` FROM students WHERE grade = ? ORDER BY name`,
		grade)
}

func (s *SQLiteStore) queryStudents(ctx context.Context, query string, args ...any) ([]*Student, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []*Student
	for rows.Next() {
		st := &Student{}
		if err := rows.Scan(&st.ID, &st.Name, &st.Grade, &st.StudentID); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, st)
	}

	return students, rows.Err()
}

// --- Borrowing operations ---

// BorrowingsByStudent returns the full loan history for students matching
// the given name, newest first.
func (s *SQLiteStore) BorrowingsByStudent(ctx context.Context, studentName string) ([]*BorrowingRecord, error) {
	return s.queryBorrowings(ctx, `
		SELECT b.title, b.author, '', '', br.borrow_date, br.due_date, br.return_date,
		       CASE WHEN br.return_date IS NULL THEN 'Currently Borrowed' ELSE 'Returned' END
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		JOIN students s ON br.student_id = s.id
		WHERE LOWER(s.name) LIKE LOWER(?)
		ORDER BY br.borrow_date DESC`,
		likePattern(studentName))
}

// CurrentBorrowingsByStudent returns the outstanding loans for students
// matching the given name.
func (s *SQLiteStore) CurrentBorrowingsByStudent(ctx context.Context, studentName string) ([]*BorrowingRecord, error) {
	return s.queryBorrowings(ctx, `
		SELECT b.title, b.author, '', '', br.borrow_date, br.due_date, br.return_date,
		       'Currently Borrowed'
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		JOIN students s ON br.student_id = s.id
		WHERE LOWER(s.name) LIKE LOWER(?) AND br.return_date IS NULL
		ORDER BY br.due_date`,
		likePattern(studentName))
}

// CurrentBorrowings returns every outstanding loan, ordered by due date.
func (s *SQLiteStore) CurrentBorrowings(ctx context.Context) ([]*BorrowingRecord, error) {
	return s.queryBorrowings(ctx, `
		SELECT b.title, b.author, s.name, s.student_id, br.borrow_date, br.due_date, br.return_date,
		       'Currently Borrowed'
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		JOIN students s ON br.student_id = s.id
		WHERE br.return_date IS NULL
		ORDER BY br.due_date`)
}

// OverdueBorrowings returns outstanding loans whose due date is strictly
// before asOf (ISO date).
func (s *SQLiteStore) OverdueBorrowings(ctx context.Context, asOf string) ([]*BorrowingRecord, error) {
	return s.queryBorrowings(ctx, `
		SELECT b.title, b.author, s.name, s.student_id, br.borrow_date, br.due_date, br.return_date,
		       'Overdue'
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		JOIN students s ON br.student_id = s.id
		WHERE br.return_date IS NULL AND br.due_date < ?
		ORDER BY br.due_date`,
		asOf)
}

// BorrowingHistory returns every loan ever recorded, newest first.
func (s *SQLiteStore) BorrowingHistory(ctx context.Context) ([]*BorrowingRecord, error) {
	return s.queryBorrowings(ctx, `
		SELECT b.title, b.author, s.name, s.student_id, br.borrow_date, br.due_date, br.return_date,
		       CASE WHEN br.return_date IS NULL THEN 'Currently Borrowed' ELSE 'Returned' END
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		JOIN students s ON br.student_id = s.id
		ORDER BY br.borrow_date DESC`)
}

func (s *SQLiteStore) queryBorrowings(ctx context.Context, query string, args ...any) ([]*BorrowingRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrowings: %w", err)
	}
	defer rows.Close()

	var records []*BorrowingRecord
	for rows.Next() {
		r := &BorrowingRecord{}
		var returnDate sql.NullString

		err := rows.Scan(&r.Title, &r.Author, &r.StudentName, &r.StudentRef,
			&r.BorrowDate, &r.DueDate, &returnDate, &r.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrowing: %w", err)
		}

		if returnDate.Valid {
			r.ReturnDate = &returnDate.String
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// --- Aggregates ---

// Stats returns the library-wide aggregate counts. NULL sums from an empty
// catalog coalesce to zero.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COALESCE(SUM(total_copies), 0) FROM books),
			(SELECT COALESCE(SUM(available_copies), 0) FROM books),
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM borrowings WHERE return_date IS NULL)`,
	).Scan(&stats.TotalBooks, &stats.TotalCopies, &stats.AvailableCopies,
		&stats.TotalStudents, &stats.ActiveBorrowings)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	stats.BorrowedCopies = stats.TotalCopies - stats.AvailableCopies
	return stats, nil
}

// --- Circulation ---

// CheckoutBook decrements the book's availability and inserts a borrowing
// row in one transaction. The student is identified by the formatted
// identifier and the book by ISBN.
func (s *SQLiteStore) CheckoutBook(ctx context.Context, studentID, isbn, borrowDate, dueDate string) (*Borrowing, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var bookID int64
	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT id, available_copies FROM books WHERE isbn = ?`, isbn,
	).Scan(&bookID, &available)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: isbn %s", ErrBookNotFound, isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up book: %w", err)
	}
	if available <= 0 {
		return nil, fmt.Errorf("%w: isbn %s", ErrNoCopiesAvailable, isbn)
	}

	var studentRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM students WHERE student_id = ?`, studentID,
	).Scan(&studentRowID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies - 1 WHERE id = ? AND available_copies > 0`,
		bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement availability: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO borrowings (student_id, book_id, borrow_date, due_date) VALUES (?, ?, ?, ?)`,
		studentRowID, bookID, borrowDate, dueDate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert borrowing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read borrowing id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	return &Borrowing{
		ID:         id,
		StudentID:  studentRowID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
	}, nil
}

// ReturnBook sets the return date on the oldest outstanding borrowing for
// the student/book pair and increments the book's availability, in one
// transaction.
func (s *SQLiteStore) ReturnBook(ctx context.Context, studentID, isbn, returnDate string) (*Borrowing, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var bookID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM books WHERE isbn = ?`, isbn).Scan(&bookID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: isbn %s", ErrBookNotFound, isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up book: %w", err)
	}

	var studentRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM students WHERE student_id = ?`, studentID,
	).Scan(&studentRowID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}

	b := &Borrowing{StudentID: studentRowID, BookID: bookID}
	err = tx.QueryRowContext(ctx, `
		SELECT id, borrow_date, due_date FROM borrowings
		WHERE student_id = ? AND book_id = ? AND return_date IS NULL
		ORDER BY borrow_date LIMIT 1`,
		studentRowID, bookID,
	).Scan(&b.ID, &b.BorrowDate, &b.DueDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: student %s, isbn %s", ErrNotBorrowed, studentID, isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up borrowing: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE borrowings SET return_date = ? WHERE id = ?`, returnDate, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to set return date: %w", err)
	}

	// Guard keeps available_copies <= total_copies even if the row was
	// mutated outside this store.
	_, err = tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies + 1
		 WHERE id = ? AND available_copies < total_copies`,
		bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit return: %w", err)
	}

	b.ReturnDate = &returnDate
	return b, nil
}

func likePattern(term string) string {
	return "%" + term + "%"
}

// Ensure SQLiteStore implements the Store interface.
var _ Store = (*SQLiteStore)(nil)
