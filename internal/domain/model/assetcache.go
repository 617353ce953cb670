package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNotWaiting is returned when promoting a worker that is not waiting.
var ErrNotWaiting = errors.New("worker is not waiting")

// WorkerState is the lifecycle state of an asset cache generation's worker.
// The zero value means no generation has been installed yet.
type WorkerState string

const (
	WorkerWaiting WorkerState = "waiting"
	WorkerActive  WorkerState = "active"
)

// Promote performs the single waiting -> active transition.
func (s WorkerState) Promote() (WorkerState, error) {
	if s != WorkerWaiting {
		return s, fmt.Errorf("promote from %q: %w", s, ErrNotWaiting)
	}
	return WorkerActive, nil
}

// GenerationName returns the cache name for a version, e.g.
// "currency-converter-static-v130".
func GenerationName(app string, version int) string {
	return fmt.Sprintf("%s-static-v%d", app, version)
}

// IsStaleGeneration reports whether name belongs to this app (prefix "<app>-")
// but is not the current generation.
func IsStaleGeneration(name, app, current string) bool {
	return strings.HasPrefix(name, app+"-") && name != current
}

// CachedAsset is one stored response inside a cache generation.
type CachedAsset struct {
	CacheName string
	URL       string
	Status    int
	Header    http.Header
	Body      []byte
	StoredAt  time.Time
}

// ActiveGenerationKey is the record key holding the name of the active
// cache generation.
const ActiveGenerationKey = "asset-cache:active"
