package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/currencyconverter/internal/application"
)

func TestBackgroundTasks_DedupesInFlightKeys(t *testing.T) {
	bg := application.NewBackgroundTasks(4)
	release := make(chan struct{})
	var runs atomic.Int32

	task := func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}

	assert.True(t, bg.Go(context.Background(), "rates:USD_EUR", task))
	assert.False(t, bg.Go(context.Background(), "rates:USD_EUR", task))
	assert.True(t, bg.Go(context.Background(), "rates:EUR_GBP", task))

	close(release)
	bg.Wait()
	assert.Equal(t, int32(2), runs.Load())

	// The key is free again once the first task finished.
	assert.True(t, bg.Go(context.Background(), "rates:USD_EUR", func(context.Context) error { return nil }))
	bg.Wait()
}

func TestBackgroundTasks_ReportsErrors(t *testing.T) {
	bg := application.NewBackgroundTasks(1)
	errBoom := errors.New("boom")

	bg.Go(context.Background(), "first", func(context.Context) error { return errBoom })
	bg.Wait()
	bg.Go(context.Background(), "second", func(context.Context) error { return errBoom })
	bg.Wait()

	select {
	case err := <-bg.Errors():
		require.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "first")
	default:
		t.Fatal("expected an error")
	}

	select {
	case err := <-bg.Errors():
		t.Fatalf("overflowing errors must be dropped, got %v", err)
	default:
	}
}

func TestBackgroundTasks_DetachedFromCancellation(t *testing.T) {
	bg := application.NewBackgroundTasks(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ctxErr error
	bg.Go(ctx, "detached", func(ctx context.Context) error {
		ctxErr = ctx.Err()
		return nil
	})
	bg.Wait()

	assert.NoError(t, ctxErr)
}
