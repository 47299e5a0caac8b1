// Package backend builds the slot implementation selected by DATA_BACKEND.
package backend

import (
	"context"

	"expensetracker/internal/slot"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the slot and an optional cleanup function.
type Result struct {
	Slot    slot.Slot
	Cleanup CleanupFunc
	// Ready is nil for backends that are always ready.
	Ready func(ctx context.Context) error
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// file
	DataDirectory string
	// sqlite
	SQLiteDBPath string
	// postgres
	PostgresURL string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
