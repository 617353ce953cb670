package driven

import (
	"context"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

// ReleaseSource looks up published releases of a repository.
type ReleaseSource interface {
	// LatestRelease returns the newest published release for "owner/name",
	// or (nil, nil) if the repository has none.
	LatestRelease(ctx context.Context, repoFullName string) (*model.Release, error)
}
