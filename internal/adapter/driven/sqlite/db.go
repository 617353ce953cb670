// Package sqlite implements the storage ports on top of an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	_ "modernc.org/sqlite"

	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// SchemaVersion is the migration version the application expects. Bump it
// together with a new file under migrations/ to trigger a schema upgrade.
const SchemaVersion uint = 2

// DB provides dual reader/writer database connections with WAL mode enabled.
// The writer connection is limited to a single connection to avoid "database is locked" errors.
// The reader connection pool allows up to 4 concurrent readers.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// Open opens (creating on first use) the store at dbPath and migrates its
// schema to version. Calling Open again on the same path is safe.
// It fails with driven.ErrUnsupportedEnvironment when persistence is disabled
// (empty path) or the sqlite driver is not linked in, and wraps every other
// failure in driven.ErrOpen.
func Open(ctx context.Context, dbPath string, version uint) (*DB, error) {
	if dbPath == "" || !slices.Contains(sql.Drivers(), "sqlite") {
		return nil, driven.ErrUnsupportedEnvironment
	}

	db, err := NewDB(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", driven.ErrOpen, dbPath, err)
	}

	if err := RunMigrations(db.Writer, version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w %s: %w", driven.ErrOpen, dbPath, err)
	}

	return db, nil
}

// NewDB creates a new dual-connection SQLite database with WAL mode, busy timeout,
// synchronous NORMAL, foreign keys enabled, and a 64MB cache.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)
	return newDB(ctx, dsn, dbPath)
}

func newDB(ctx context.Context, dsn, path string) (*DB, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.PingContext(ctx); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{
		Writer: writer,
		Reader: reader,
		path:   path,
	}, nil
}

// Path returns the database file the connections were opened on.
func (db *DB) Path() string {
	return db.path
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
