package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"expensetracker/internal/log"
	"expensetracker/internal/slot"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a repository.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SQLRepository keeps slots in a single key/value table.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger

	readQuery  string
	writeQuery string
}

// NewSQLiteRepository opens (and migrates) a SQLite database file.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath, logger)
}

// NewPostgresRepository connects to (and migrates) a PostgreSQL database.
func NewPostgresRepository(url string, logger *log.Logger) (*SQLRepository, error) {
	return open(DialectPostgres, url, logger)
}

func open(dialect Dialect, dsn string, logger *log.Logger) (*SQLRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{
		db:        db,
		dialect:   dialect,
		logger:    logger.WithComponent(log.ComponentStorage),
		readQuery: "SELECT value FROM slots WHERE key = " + dialect.placeholder(1),
		writeQuery: "INSERT INTO slots (key, value, updated_at) VALUES (" +
			dialect.placeholder(1) + ", " + dialect.placeholder(2) + ", CURRENT_TIMESTAMP) " +
			"ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP",
	}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Dialect returns the SQL flavour of the repository.
func (r *SQLRepository) Dialect() Dialect {
	return r.dialect
}

// Ping checks the database connection.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Read implements slot.Reader
func (r *SQLRepository) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, slot.ErrEmptyKey
	}
	var value string
	err := r.db.QueryRowContext(ctx, r.readQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Write implements slot.Writer
func (r *SQLRepository) Write(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return slot.ErrEmptyKey
	}
	if _, err := r.db.ExecContext(ctx, r.writeQuery, key, string(value)); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}

	r.logger.DebugContext(ctx, "Slot saved",
		"dialect", r.dialect,
		log.FieldSlotKey, key,
		"bytes", len(value))

	return nil
}
