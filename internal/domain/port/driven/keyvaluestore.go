// Package driven declares the ports the application drives: local storage,
// the remote rate API and the release feed.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

var (
	// ErrUnsupportedEnvironment means persistent storage is unavailable. The
	// application keeps running in network-only mode.
	ErrUnsupportedEnvironment = errors.New("persistent storage not supported: app will not work completely offline")

	// ErrOpen wraps any lower-level failure while opening the store.
	ErrOpen = errors.New("open store")

	// ErrWrite wraps storage-layer failures on Set and Delete.
	ErrWrite = errors.New("write store")
)

// KeyValueStore is a single-table store of JSON values keyed by string.
// Each key is independently atomic; there are no multi-key transactions.
type KeyValueStore interface {
	// Get returns the record for key, or (nil, nil) if no record exists.
	Get(ctx context.Context, key string) (*model.Record, error)

	// Set upserts {id: key, value}. value must be JSON-serializable. The
	// returned bool is true iff the key written matches the requested key.
	Set(ctx context.Context, key string, value any) (bool, error)

	// Delete removes the record if present. It returns true on success,
	// whether or not a record existed.
	Delete(ctx context.Context, key string) (bool, error)
}
