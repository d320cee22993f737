package library

import (
	"context"
	"database/sql"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
)

//go:embed seeds/*.csv
var embeddedSeeds embed.FS

// SeedCounts reports how many rows each seed file produced.
type SeedCounts struct {
	Books      int `json:"books"`
	Students   int `json:"students"`
	Borrowings int `json:"borrowings"`
}

// Seed loads the embedded sample data set. Existing rows are replaced so
// setup stays idempotent.
func (s *SQLiteStore) Seed(ctx context.Context) (*SeedCounts, error) {
	return s.seedFromFS(ctx, embeddedSeeds, "seeds")
}

// SeedFromDir loads seed CSV files (books.csv, students.csv,
// borrowings.csv) from a directory instead of the embedded defaults.
func (s *SQLiteStore) SeedFromDir(ctx context.Context, dir string) (*SeedCounts, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("seeds directory not usable: %w", err)
	}
	return s.seedFromFS(ctx, os.DirFS(dir), ".")
}

func (s *SQLiteStore) seedFromFS(ctx context.Context, fsys fs.FS, root string) (*SeedCounts, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Child rows first so foreign keys stay satisfied during the wipe.
	for _, table := range []string{"borrowings", "students", "books"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	counts := &SeedCounts{}

	counts.Books, err = loadSeedFile(ctx, tx, fsys, path.Join(root, "books.csv"),
		`INSERT INTO books (title, author, isbn, published_year, genre, total_copies, available_copies)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		map[int]bool{3: true, 5: true, 6: true})
	if err != nil {
		return nil, err
	}

	counts.Students, err = loadSeedFile(ctx, tx, fsys, path.Join(root, "students.csv"),
		`INSERT INTO students (name, grade, student_id) VALUES (?, ?, ?)`,
		map[int]bool{1: true})
	if err != nil {
		return nil, err
	}

	counts.Borrowings, err = loadSeedFile(ctx, tx, fsys, path.Join(root, "borrowings.csv"),
		`INSERT INTO borrowings (student_id, book_id, borrow_date, due_date, return_date)
		 VALUES (?, ?, ?, ?, ?)`,
		map[int]bool{0: true, 1: true})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seed data: %w", err)
	}

	return counts, nil
}

// loadSeedFile reads one CSV file (header row required) and inserts each
// record with the given statement. Columns flagged in intCols are bound as
// integers; empty fields are bound as NULL.
func loadSeedFile(ctx context.Context, tx *sql.Tx, fsys fs.FS, name, insert string, intCols map[int]bool) (int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header of %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert for %s: %w", name, err)
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(record) != len(header) {
			return 0, fmt.Errorf("seed file %s row %d: expected %d fields, got %d",
				name, count+2, len(header), len(record))
		}

		args := make([]any, len(record))
		for i, field := range record {
			switch {
			case field == "":
				args[i] = nil
			case intCols[i]:
				n, err := strconv.Atoi(field)
				if err != nil {
					return 0, fmt.Errorf("seed file %s row %d column %q: %w",
						name, count+2, header[i], err)
				}
				args[i] = n
			default:
				args[i] = field
			}
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d of %s: %w", count+2, name, err)
		}
		count++
	}

	return count, nil
}
