package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/currencyconverter/internal/application"
	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

// startUpdateService runs svc until the test ends.
func startUpdateService(t *testing.T, svc *application.UpdateService) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestUpdateService_ReportsNewerRelease(t *testing.T) {
	tests := []struct {
		name      string
		tag       string
		current   string
		wantNewer bool
	}{
		{name: "newer minor", tag: "v1.3.0", current: "v1.2.9", wantNewer: true},
		{name: "same version", tag: "v1.2.0", current: "v1.2.0", wantNewer: false},
		{name: "older", tag: "v1.1.0", current: "v1.2.0", wantNewer: false},
		{name: "missing v prefix", tag: "2.0.0", current: "1.9.0", wantNewer: true},
		{name: "dev build", tag: "v9.0.0", current: "dev", wantNewer: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeReleaseSource{release: &model.Release{Tag: tt.tag, Name: tt.tag}}
			svc := application.NewUpdateService(source, "acme/currencyconverter", tt.current, time.Hour)
			startUpdateService(t, svc)

			require.NoError(t, svc.Refresh(context.Background()))

			release, newer := svc.Latest()
			require.NotNil(t, release)
			assert.Equal(t, tt.tag, release.Tag)
			assert.Equal(t, tt.wantNewer, newer)
		})
	}
}

func TestUpdateService_NoRelease(t *testing.T) {
	source := &fakeReleaseSource{}
	svc := application.NewUpdateService(source, "acme/currencyconverter", "v1.0.0", time.Hour)
	startUpdateService(t, svc)

	require.NoError(t, svc.Refresh(context.Background()))

	release, newer := svc.Latest()
	assert.Nil(t, release)
	assert.False(t, newer)
}

func TestUpdateService_RefreshError(t *testing.T) {
	source := &fakeReleaseSource{err: errors.New("rate limited")}
	svc := application.NewUpdateService(source, "acme/currencyconverter", "v1.0.0", time.Hour)
	startUpdateService(t, svc)

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestUpdateService_PollsOnInterval(t *testing.T) {
	source := &fakeReleaseSource{release: &model.Release{Tag: "v1.0.0"}}
	svc := application.NewUpdateService(source, "acme/currencyconverter", "v1.0.0", 10*time.Millisecond)
	startUpdateService(t, svc)

	assert.Eventually(t, func() bool {
		return source.callCount() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestUpdateService_RefreshHonorsContext(t *testing.T) {
	svc := application.NewUpdateService(&fakeReleaseSource{}, "acme/currencyconverter", "v1.0.0", time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := svc.Refresh(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
