package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"expensetracker/internal/log"
	"expensetracker/internal/slot"
)

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "db", "expenses.db")

	repo, err := NewSQLiteRepository(dbPath, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, ok, err := repo.Read(ctx, slot.DefaultKey); ok || err != nil {
		t.Fatalf("expected absent slot, ok=%v err=%v", ok, err)
	}
	if err := repo.Write(ctx, slot.DefaultKey, []byte(`[]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := repo.Write(ctx, slot.DefaultKey, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening runs migrations again and must keep the data.
	repo, err = NewSQLiteRepository(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	got, ok, err := repo.Read(ctx, slot.DefaultKey)
	if err != nil || !ok || string(got) != `[{"id":1}]` {
		t.Fatalf("unexpected read: %q ok=%v err=%v", got, ok, err)
	}
	if repo.Dialect() != DialectSQLite {
		t.Fatalf("unexpected dialect %s", repo.Dialect())
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSQLiteRepositoryEmptyKey(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"), log.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	if err := repo.Write(context.Background(), "", []byte("x")); !errors.Is(err, slot.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestDialectPlaceholders(t *testing.T) {
	if DialectSQLite.placeholder(2) != "?" {
		t.Fatalf("sqlite placeholder")
	}
	if DialectPostgres.placeholder(2) != "$2" {
		t.Fatalf("postgres placeholder")
	}
}

func TestSQLiteRepositoryLogsThroughComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: &buf})
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"), logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	if err := repo.Write(context.Background(), "expenses", []byte(`[]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Slot saved") || !strings.Contains(out, "component=storage") || !strings.Contains(out, "slot_key=expenses") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
