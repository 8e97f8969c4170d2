package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/simmerapp/simmer-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestUser creates a user row so FK constraints on owned entities hold.
func insertTestUser(t *testing.T, s *Store, id, email string) {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$argon2id$test",
		Name:         "Test User",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("insert test user %s: %v", id, err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{
		"users", "sessions", "tags", "ingredients",
		"recipes", "recipe_tags", "recipe_ingredients",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()
}

func TestFormatTime_FixedWidthLexicalOrder(t *testing.T) {
	// Trailing fractional zeros must not be trimmed, otherwise TEXT
	// comparison diverges from chronological order.
	early := time.Date(2026, 8, 30, 12, 0, 0, 120000000, time.UTC)
	late := time.Date(2026, 8, 30, 12, 0, 0, 120100000, time.UTC)

	a, b := formatTime(early), formatTime(late)
	if len(a) != len(b) {
		t.Fatalf("widths differ: %q vs %q", a, b)
	}
	if a >= b {
		t.Errorf("lexical order broken: %q >= %q", a, b)
	}

	got, err := parseTime(a)
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !got.Equal(early) {
		t.Errorf("round-trip: got %v, want %v", got, early)
	}

	// Rows written before the fixed-width format still parse.
	legacy, err := parseTime(early.Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("parseTime legacy: %v", err)
	}
	if !legacy.Equal(early) {
		t.Errorf("legacy round-trip: got %v, want %v", legacy, early)
	}
}
