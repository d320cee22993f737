// Package commands tests CLI command creation and end-to-end runs
// against a temporary library database.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/shelftalk/internal/cli/config"
	"github.com/leapstack-labs/shelftalk/internal/library"
)

func TestNewSetupCommand(t *testing.T) {
	cmd := NewSetupCommand()

	assert.Equal(t, "setup", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "flag force should exist")
}

func TestNewChatCommand(t *testing.T) {
	cmd := NewChatCommand()

	assert.Equal(t, "chat", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewAskCommand(t *testing.T) {
	cmd := NewAskCommand()

	assert.Equal(t, "ask [question]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query [SQL]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	for _, flag := range []string{"format", "input"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	subs := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
	}
	assert.True(t, subs["tables"], "tables subcommand should exist")
	assert.True(t, subs["schema"], "schema subcommand should exist")
}

func TestNewCheckoutCommand(t *testing.T) {
	cmd := NewCheckoutCommand()

	assert.Equal(t, "checkout <student-id> <isbn>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("days"), "flag days should exist")
}

func TestNewReturnCommand(t *testing.T) {
	cmd := NewReturnCommand()

	assert.Equal(t, "return <student-id> <isbn>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewStatsCommand(t *testing.T) {
	cmd := NewStatsCommand()

	assert.Equal(t, "stats", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	assert.Contains(t, buf.String(), "ShelfTalk v1.2.3")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "42", formatValue(42))
	assert.Equal(t, "hello", formatValue("hello"))
}

func TestEscapeCSV(t *testing.T) {
	assert.Equal(t, "plain", escapeCSV("plain"))
	assert.Equal(t, `"a,b"`, escapeCSV("a,b"))
	assert.Equal(t, `"say ""hi"""`, escapeCSV(`say "hi"`))
}

func TestCommandsEndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	config.ResetConfig()
	t.Setenv("SHELFTALK_DB_PATH", dbPath)
	t.Setenv("SHELFTALK_OUTPUT", "json")

	// setup creates and seeds the database
	setup := NewSetupCommand()
	var out bytes.Buffer
	setup.SetOut(&out)
	setup.SetErr(&out)
	setup.SetArgs([]string{})
	require.NoError(t, setup.Execute())

	var setupRes struct {
		DBPath string `json:"db_path"`
		Seeds  struct {
			Books      int `json:"books"`
			Students   int `json:"students"`
			Borrowings int `json:"borrowings"`
		} `json:"seeds"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &setupRes))
	assert.Equal(t, dbPath, setupRes.DBPath)
	assert.Equal(t, 12, setupRes.Seeds.Books)
	assert.Equal(t, 8, setupRes.Seeds.Students)
	assert.Equal(t, 13, setupRes.Seeds.Borrowings)

	// stats reads the seeded database
	stats := NewStatsCommand()
	out.Reset()
	stats.SetOut(&out)
	stats.SetErr(&out)
	stats.SetArgs([]string{})
	require.NoError(t, stats.Execute())

	var statsRes statsResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &statsRes))
	assert.Equal(t, 12, statsRes.TotalBooks)
	assert.Equal(t, 10, statsRes.ActiveBorrowings)

	// checkout then return a book
	checkout := NewCheckoutCommand()
	out.Reset()
	checkout.SetOut(&out)
	checkout.SetErr(&out)
	checkout.SetArgs([]string{"S2023012", "978-0141439518"})
	require.NoError(t, checkout.Execute())

	var checkoutRes borrowingResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &checkoutRes))
	assert.Equal(t, "S2023012", checkoutRes.StudentID)
	assert.NotEmpty(t, checkoutRes.DueDate)

	ret := NewReturnCommand()
	out.Reset()
	ret.SetOut(&out)
	ret.SetErr(&out)
	ret.SetArgs([]string{"S2023012", "978-0141439518"})
	require.NoError(t, ret.Execute())

	var returnRes borrowingResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &returnRes))
	require.NotNil(t, returnRes.ReturnDate)

	// ask answers from the same database
	ask := NewAskCommand()
	out.Reset()
	ask.SetOut(&out)
	ask.SetErr(&out)
	ask.SetArgs([]string{"library", "stats"})
	require.NoError(t, ask.Execute())
	assert.Contains(t, out.String(), "Library Statistics")
}

func TestCirculationErrorsAtCLI(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	config.ResetConfig()
	t.Setenv("SHELFTALK_DB_PATH", dbPath)
	t.Setenv("SHELFTALK_OUTPUT", "json")

	setup := NewSetupCommand()
	var out bytes.Buffer
	setup.SetOut(&out)
	setup.SetErr(&out)
	setup.SetArgs([]string{})
	require.NoError(t, setup.Execute())

	// The Catcher in the Rye has no available copies in the seed data.
	checkout := NewCheckoutCommand()
	checkout.SetOut(&out)
	checkout.SetErr(&out)
	checkout.SetArgs([]string{"S2023001", "978-0316769488"})
	err := checkout.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no copies available")

	ret := NewReturnCommand()
	ret.SetOut(&out)
	ret.SetErr(&out)
	ret.SetArgs([]string{"S2023001", "978-0061124952"})
	err = ret.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not currently borrowed")
}

func TestOpenLibraryDBReadOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	store := library.NewSQLiteStore()
	require.NoError(t, store.Open(dbPath))
	require.NoError(t, store.Migrate())
	_, err := store.Seed(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := openLibraryDBReadOnly(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM books").Scan(&count))
	assert.Equal(t, 12, count)

	// Writes must be rejected on this handle.
	_, err = db.Exec("INSERT INTO students (name, grade, student_id) VALUES ('X', 10, 'S9990001')")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readonly")

	_, err = db.Exec("DELETE FROM books")
	require.Error(t, err)
}

func TestOpenLibraryDBReadOnlyMissingDatabase(t *testing.T) {
	_, err := openLibraryDBReadOnly(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'shelftalk setup' first")
}

func TestOpenStoreMissingDatabase(t *testing.T) {
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "missing.db")}

	_, err := openStore(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'shelftalk setup' first")
}
