package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// SessionService persists the last-used form state.
type SessionService struct {
	store driven.KeyValueStore
}

// NewSessionService creates a SessionService. A nil store disables
// persistence.
func NewSessionService(store driven.KeyValueStore) *SessionService {
	return &SessionService{store: store}
}

// Save stores state under the session key. Failures are logged and
// otherwise ignored.
func (s *SessionService) Save(ctx context.Context, state model.SessionState) {
	if s.store == nil {
		return
	}

	if _, err := s.store.Set(ctx, model.SessionKey, state); err != nil {
		slog.Warn("failed to save session", "error", err)
		return
	}

	slog.Debug("session saved")
}

// Restore loads the last saved state. Fields missing from the stored record
// keep their defaults. The boolean is false when nothing could be restored.
func (s *SessionService) Restore(ctx context.Context) (*model.SessionState, bool) {
	if s.store == nil {
		return nil, false
	}

	rec, err := s.store.Get(ctx, model.SessionKey)
	if err != nil {
		slog.Warn("failed to restore session", "error", err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}

	state := model.DefaultSessionState()
	if err := rec.Decode(&state); err != nil {
		slog.Warn("discarding unreadable session", "error", err)
		return nil, false
	}

	return &state, true
}
