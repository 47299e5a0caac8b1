package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"expensetracker/internal/slot"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, ok, err := s.Read(ctx, slot.DefaultKey); ok || err != nil {
		t.Fatalf("expected absent slot, ok=%v err=%v", ok, err)
	}

	if err := s.Write(ctx, slot.DefaultKey, []byte(`[]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, slot.DefaultKey, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := s.Read(ctx, slot.DefaultKey)
	if err != nil || !ok || string(got) != `[{"id":1}]` {
		t.Fatalf("unexpected read: %q ok=%v err=%v", got, ok, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "expenses.json" {
		t.Fatalf("expected only expenses.json, got %v", entries)
	}
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Write(context.Background(), "", nil); !errors.Is(err, slot.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	for _, key := range []string{"../escape", `a\b`, ".."} {
		if err := s.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
