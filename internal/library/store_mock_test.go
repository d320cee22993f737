package library

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// Driver-level failures must surface as wrapped errors, not panics or
// silent empty results.
func TestSQLiteStore_QueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := &SQLiteStore{db: db}
	ctx := context.Background()

	mock.ExpectQuery("SELECT .* FROM books").WillReturnError(sqlmock.ErrCancelled)
	if _, err := store.AllBooks(ctx); err == nil || !strings.Contains(err.Error(), "failed to query books") {
		t.Errorf("expected wrapped query error, got %v", err)
	}

	mock.ExpectQuery("SELECT").WillReturnError(sqlmock.ErrCancelled)
	if _, err := store.Stats(ctx); err == nil || !strings.Contains(err.Error(), "failed to query stats") {
		t.Errorf("expected wrapped stats error, got %v", err)
	}

	mock.ExpectBegin().WillReturnError(sqlmock.ErrCancelled)
	if _, err := store.CheckoutBook(ctx, "S2023001", "isbn", "2026-01-01", "2026-02-01"); err == nil ||
		!strings.Contains(err.Error(), "failed to begin transaction") {
		t.Errorf("expected wrapped begin error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	if _, err := store.AllBooks(ctx); err == nil {
		t.Error("expected error from unopened store")
	}
	if _, err := store.Stats(ctx); err == nil {
		t.Error("expected error from unopened store")
	}
	if err := store.Migrate(); err == nil {
		t.Error("expected error from unopened store")
	}
	if _, err := store.Seed(ctx); err == nil {
		t.Error("expected error from unopened store")
	}
}
