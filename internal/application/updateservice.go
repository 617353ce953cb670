package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// UpdateService polls a GitHub repository for its latest release and reports
// whether it is newer than the running build.
type UpdateService struct {
	source    driven.ReleaseSource
	repo      string
	version   string
	interval  time.Duration
	refreshCh chan chan error

	mu     sync.RWMutex
	latest *model.Release
}

// NewUpdateService creates an UpdateService for repo ("owner/name"). version
// is the running build's version tag.
func NewUpdateService(source driven.ReleaseSource, repo, version string, interval time.Duration) *UpdateService {
	return &UpdateService{
		source:    source,
		repo:      repo,
		version:   version,
		interval:  interval,
		refreshCh: make(chan chan error),
	}
}

// Start checks immediately and then on every interval tick until ctx is
// canceled. Manual refreshes are served in between.
func (s *UpdateService) Start(ctx context.Context) {
	if err := s.check(ctx); err != nil {
		slog.Error("initial update check failed", "repo", s.repo, "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("update service stopped")
			return
		case <-ticker.C:
			if err := s.check(ctx); err != nil {
				slog.Error("update check failed", "repo", s.repo, "error", err)
			}
		case done := <-s.refreshCh:
			done <- s.check(ctx)
		}
	}
}

// Refresh asks the running loop for an immediate check and waits for it.
func (s *UpdateService) Refresh(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.refreshCh <- done:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the most recently seen release and whether it is newer
// than the running version. It returns nil before the first successful check.
func (s *UpdateService) Latest() (*model.Release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, false
	}

	release := *s.latest
	return &release, isNewer(release.Tag, s.version)
}

func (s *UpdateService) check(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "UpdateService.check")
	defer span.End()

	release, err := s.source.LatestRelease(ctx, s.repo)
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("check %s for updates: %w", s.repo, err)
	}
	if release == nil {
		slog.Debug("no releases published", "repo", s.repo)
		return nil
	}

	s.mu.Lock()
	s.latest = release
	s.mu.Unlock()

	if isNewer(release.Tag, s.version) {
		slog.Info("new version available", "current", s.version, "latest", release.Tag)
	}

	return nil
}

// isNewer compares semantic version tags. A running version that is not a
// valid semver (e.g. "dev") never reports an update.
func isNewer(tag, current string) bool {
	tag, current = canonicalVersion(tag), canonicalVersion(current)
	if !semver.IsValid(tag) || !semver.IsValid(current) {
		return false
	}
	return semver.Compare(tag, current) > 0
}

func canonicalVersion(v string) string {
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
