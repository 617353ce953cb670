package driven

import (
	"context"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

// AssetCacheStore persists named cache generations of static asset responses.
type AssetCacheStore interface {
	// CreateCache creates the named generation if it does not exist.
	CreateCache(ctx context.Context, name string) error

	// ListCaches returns generation names in creation order.
	ListCaches(ctx context.Context) ([]string, error)

	// DeleteCache removes a generation and all of its entries. It reports
	// whether a generation was removed.
	DeleteCache(ctx context.Context, name string) (bool, error)

	// PutAll stores every asset in a single transaction: either all of them
	// are written or none are.
	PutAll(ctx context.Context, assets []model.CachedAsset) error

	// Put stores or replaces a single asset.
	Put(ctx context.Context, asset model.CachedAsset) error

	// Match returns the first stored response for url across all generations,
	// in creation order, or (nil, nil) if none matches.
	Match(ctx context.Context, url string) (*model.CachedAsset, error)
}
