package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// fileEnv points the commands at a fresh file backend.
func fileEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("SLOT_KEY", "expenses")
	t.Setenv("ID_POLICY", "max")
	t.Setenv("PERSIST_EMPTY", "true")
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestListShowsSeedsOnFirstStart(t *testing.T) {
	dir := fileEnv(t)

	out := mustRun(t, "list")
	for _, want := range []string{"Groceries", "Rent", "Utilities", "Dining Out", "$250.00", "15/05/2024", "Total: $1000.00 (4 expenses)"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "expenses.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("reading the seeds must not write the slot")
	}
}

func TestAddPersistsAcrossRuns(t *testing.T) {
	dir := fileEnv(t)

	out := mustRun(t, "add", "--name", "Coffee", "--amount", "4.5", "--date", "2024-07-02")
	if !strings.Contains(out, "Added expense #5: Coffee, $4.50, 02/07/2024") {
		t.Fatalf("unexpected add output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "expenses.json")); err != nil {
		t.Fatalf("slot not written: %v", err)
	}

	out = mustRun(t, "total")
	if strings.TrimSpace(out) != "Total: $1004.50 (5 expenses)" {
		t.Errorf("total = %q", out)
	}

	out = mustRun(t, "list", "--json")
	if !strings.Contains(out, `{"id":5,"name":"Coffee","amount":4.5,"date":"2024-07-02"}`) {
		t.Errorf("unexpected JSON: %s", out)
	}
}

func TestAddInvalidAmountCountsAsZero(t *testing.T) {
	fileEnv(t)

	out := mustRun(t, "add", "--name", "Mystery", "--amount", "abc", "--date", "2024-07-02")
	if !strings.Contains(out, "Mystery, —, 02/07/2024") {
		t.Fatalf("unexpected add output: %s", out)
	}
	out = mustRun(t, "total")
	if strings.TrimSpace(out) != "Total: $1000.00 (5 expenses, 1 without a valid amount)" {
		t.Errorf("total = %q", out)
	}
}

func TestAddRejectsMalformedDate(t *testing.T) {
	fileEnv(t)
	if _, err := run(t, "add", "--name", "x", "--amount", "1", "--date", "02/07/2024"); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestEditChangesOnlyGivenFields(t *testing.T) {
	fileEnv(t)

	out := mustRun(t, "edit", "2", "--amount", "900")
	if !strings.Contains(out, "Updated expense #2: Rent, $900.00, 01/06/2024") {
		t.Fatalf("unexpected edit output: %s", out)
	}
	out = mustRun(t, "total")
	if strings.TrimSpace(out) != "Total: $1650.00 (4 expenses)" {
		t.Errorf("total = %q", out)
	}

	out = mustRun(t, "edit", "99", "--name", "Ghost")
	if !strings.Contains(out, "No expense with id 99") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestDelete(t *testing.T) {
	fileEnv(t)

	out := mustRun(t, "delete", "1")
	if strings.TrimSpace(out) != "Deleted expense #1" {
		t.Fatalf("unexpected output: %s", out)
	}
	out = mustRun(t, "rm", "1")
	if !strings.Contains(out, "nothing deleted") {
		t.Errorf("second delete should be a no-op: %s", out)
	}
	out = mustRun(t, "list")
	if strings.Contains(out, "Groceries") || !strings.Contains(out, "Total: $750.00 (3 expenses)") {
		t.Errorf("unexpected list after delete:\n%s", out)
	}

	if _, err := run(t, "delete", "abc"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestDeletingEverything(t *testing.T) {
	tests := []struct {
		name         string
		persistEmpty string
		wantList     string
	}{
		{"empty list is written", "true", "No expenses yet."},
		{"last record survives a restart", "false", "Dining Out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileEnv(t)
			t.Setenv("PERSIST_EMPTY", tt.persistEmpty)
			for _, id := range []string{"1", "2", "3", "4"} {
				mustRun(t, "delete", id)
			}
			out := mustRun(t, "list")
			if !strings.Contains(out, tt.wantList) {
				t.Errorf("list = %q, want it to contain %q", out, tt.wantList)
			}
		})
	}
}

func TestLengthIDPolicy(t *testing.T) {
	fileEnv(t)
	t.Setenv("ID_POLICY", "length")

	mustRun(t, "delete", "1")
	out := mustRun(t, "add", "--name", "Books", "--amount", "10", "--date", "2024-07-01")
	if !strings.Contains(out, "Added expense #4") {
		t.Errorf("length policy should reuse id 4: %s", out)
	}
}

func TestInvalidConfigurationFails(t *testing.T) {
	fileEnv(t)
	t.Setenv("ID_POLICY", "random")
	_, err := run(t, "list")
	if err == nil || !strings.Contains(err.Error(), "invalid id policy") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestWatchNeedsAMQP(t *testing.T) {
	fileEnv(t)
	if _, err := run(t, "watch"); !errors.Is(err, errAMQPDisabled) {
		t.Fatalf("expected errAMQPDisabled, got %v", err)
	}
}

func TestEnvFileIsLoaded(t *testing.T) {
	dir := fileEnv(t)
	os.Unsetenv("ID_POLICY")
	t.Cleanup(func() { os.Unsetenv("ID_POLICY") })

	env := filepath.Join(dir, "test.env")
	if err := os.WriteFile(env, []byte("ID_POLICY=sometimes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--env-file", env, "total"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "sometimes") {
		t.Fatalf("expected the env file value to be validated, got %v", err)
	}
}

func TestFormatChange(t *testing.T) {
	ts := time.Date(2024, 7, 2, 9, 30, 0, 0, time.UTC)
	add := amqp.NewChangeMessage(store.OpAdd, core.Expense{ID: 5, Name: "Coffee", Amount: core.MustAmount("4.5"), Date: core.NewDate(2024, 7, 2)})
	add.Timestamp = ts
	if got, want := formatChange(add), "2024-07-02T09:30:00Z add    #5 Coffee, $4.50, 02/07/2024"; got != want {
		t.Errorf("formatChange(add) = %q, want %q", got, want)
	}

	del := amqp.NewChangeMessage(store.OpDelete, core.Expense{ID: 2})
	del.Timestamp = ts
	if got, want := formatChange(del), "2024-07-02T09:30:00Z delete #2"; got != want {
		t.Errorf("formatChange(delete) = %q, want %q", got, want)
	}
}
