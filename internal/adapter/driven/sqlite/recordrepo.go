package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KeyValueStore = (*RecordRepo)(nil)

// RecordRepo is the SQLite implementation of the KeyValueStore port interface.
// Values are stored as JSON text in the single records table.
type RecordRepo struct {
	db *DB
}

// NewRecordRepo creates a new RecordRepo backed by the given DB.
func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// Get retrieves the record stored under key. Returns (nil, nil) if no record exists.
func (r *RecordRepo) Get(ctx context.Context, key string) (*model.Record, error) {
	const query = `SELECT id, value, updated_at FROM records WHERE id = ?`

	var (
		rec       model.Record
		value     string
		updatedAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&rec.ID, &value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %q: %w", key, err)
	}

	rec.Value = json.RawMessage(value)
	rec.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for record %q: %w", key, err)
	}

	return &rec, nil
}

// Set inserts or replaces the record for key. It reports whether the id
// returned by the upsert equals key.
func (r *RecordRepo) Set(ctx context.Context, key string, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%w: encode record %q: %w", driven.ErrWrite, key, err)
	}

	const query = `
		INSERT INTO records (id, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
		RETURNING id
	`

	var written string
	err = r.db.Writer.QueryRowContext(ctx, query, key, string(data), formatTime(time.Now())).Scan(&written)
	if err != nil {
		return false, fmt.Errorf("%w: set record %q: %w", driven.ErrWrite, key, err)
	}

	return written == key, nil
}

// Delete removes the record for key. Deleting a missing key is not an error.
func (r *RecordRepo) Delete(ctx context.Context, key string) (bool, error) {
	const query = `DELETE FROM records WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return false, fmt.Errorf("%w: delete record %q: %w", driven.ErrWrite, key, err)
	}
	return true, nil
}
