package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AssetCacheStore = (*AssetRepo)(nil)

// AssetRepo is the SQLite implementation of the AssetCacheStore port interface.
type AssetRepo struct {
	db *DB
}

// NewAssetRepo creates a new AssetRepo backed by the given DB.
func NewAssetRepo(db *DB) *AssetRepo {
	return &AssetRepo{db: db}
}

// CreateCache creates the named generation. An existing generation is kept as is.
func (r *AssetRepo) CreateCache(ctx context.Context, name string) error {
	const query = `INSERT INTO asset_caches (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`
	if _, err := r.db.Writer.ExecContext(ctx, query, name, formatTime(time.Now())); err != nil {
		return fmt.Errorf("create cache %q: %w", name, err)
	}
	return nil
}

// ListCaches returns all generation names in creation order.
func (r *AssetRepo) ListCaches(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM asset_caches ORDER BY rowid`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan cache name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate caches: %w", err)
	}

	return names, nil
}

// DeleteCache removes a generation and its entries in one transaction.
func (r *AssetRepo) DeleteCache(ctx context.Context, name string) (bool, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete cache %q: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_entries WHERE cache_name = ?`, name); err != nil {
		return false, fmt.Errorf("delete entries of cache %q: %w", name, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM asset_caches WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete cache %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for cache %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete cache %q: %w", name, err)
	}

	return n > 0, nil
}

const upsertAssetQuery = `
	INSERT INTO asset_entries (cache_name, url, status, header, body, stored_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(cache_name, url) DO UPDATE SET
		status = excluded.status,
		header = excluded.header,
		body = excluded.body,
		stored_at = excluded.stored_at
`

// PutAll stores every asset atomically. Nothing is written if any insert fails.
func (r *AssetRepo) PutAll(ctx context.Context, assets []model.CachedAsset) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put assets: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, asset := range assets {
		if err := putAsset(ctx, tx, asset); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put assets: %w", err)
	}
	return nil
}

// Put stores or replaces a single asset.
func (r *AssetRepo) Put(ctx context.Context, asset model.CachedAsset) error {
	return putAsset(ctx, r.db.Writer, asset)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putAsset(ctx context.Context, db execer, asset model.CachedAsset) error {
	h := asset.Header
	if h == nil {
		h = http.Header{}
	}
	header, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode header for %s: %w", asset.URL, err)
	}

	storedAt := asset.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	body := asset.Body
	if body == nil {
		body = []byte{}
	}

	_, err = db.ExecContext(ctx, upsertAssetQuery,
		asset.CacheName, asset.URL, asset.Status, string(header), body, formatTime(storedAt),
	)
	if err != nil {
		return fmt.Errorf("put asset %s in %q: %w", asset.URL, asset.CacheName, err)
	}
	return nil
}

// Match returns the response stored for url in the oldest generation holding
// it. Returns (nil, nil) when no generation has the url.
func (r *AssetRepo) Match(ctx context.Context, url string) (*model.CachedAsset, error) {
	const query = `
		SELECT e.cache_name, e.url, e.status, e.header, e.body, e.stored_at
		FROM asset_entries e
		JOIN asset_caches c ON c.name = e.cache_name
		WHERE e.url = ?
		ORDER BY c.rowid
		LIMIT 1
	`

	var (
		asset    model.CachedAsset
		header   string
		storedAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, url).Scan(
		&asset.CacheName, &asset.URL, &asset.Status, &header, &asset.Body, &storedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match asset %s: %w", url, err)
	}

	if err := json.Unmarshal([]byte(header), &asset.Header); err != nil {
		return nil, fmt.Errorf("decode header for %s: %w", url, err)
	}
	if asset.Header == nil {
		asset.Header = http.Header{}
	}

	asset.StoredAt, err = parseTime(storedAt)
	if err != nil {
		return nil, fmt.Errorf("parse stored_at for %s: %w", url, err)
	}

	return &asset, nil
}
