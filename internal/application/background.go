package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// BackgroundTasks runs detached write-backs. A task outlives the request that
// started it, never blocks the caller, and reports failures through logs,
// metrics and the Errors channel.
type BackgroundTasks struct {
	wg       sync.WaitGroup
	inflight *xsync.MapOf[string, struct{}]
	errs     chan error
}

// NewBackgroundTasks creates a task runner whose error channel buffers up to
// buffer failures. Failures beyond that are only logged.
func NewBackgroundTasks(buffer int) *BackgroundTasks {
	return &BackgroundTasks{
		inflight: xsync.NewMapOf[string, struct{}](),
		errs:     make(chan error, buffer),
	}
}

// Go starts fn in its own goroutine with a context detached from ctx's
// cancellation. While a task with the same key is running, further tasks
// for that key are dropped and Go returns false.
func (b *BackgroundTasks) Go(ctx context.Context, key string, fn func(context.Context) error) bool {
	if _, loaded := b.inflight.LoadOrStore(key, struct{}{}); loaded {
		writeBackSkipped.Inc()
		slog.Debug("background task already running", "key", key)
		return false
	}

	b.wg.Add(1)
	detached := context.WithoutCancel(ctx)

	go func() {
		defer b.wg.Done()
		defer b.inflight.Delete(key)

		if err := fn(detached); err != nil {
			writeBackFailed.Inc()
			slog.Error("background task failed", "key", key, "error", err)

			select {
			case b.errs <- fmt.Errorf("%s: %w", key, err):
			default:
			}
		}
	}()

	return true
}

// Errors exposes failures of finished tasks.
func (b *BackgroundTasks) Errors() <-chan error {
	return b.errs
}

// Wait blocks until every started task has finished.
func (b *BackgroundTasks) Wait() {
	b.wg.Wait()
}
