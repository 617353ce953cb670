// Package httphandler serves the JSON API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/currencyconverter/internal/application"
	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// refreshTimeout bounds a manual update check, which waits on the poll loop
// and a GitHub request.
const refreshTimeout = 15 * time.Second

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	conversions *application.ConversionService
	sessions    *application.SessionService
	assets      *application.AssetCache
	updates     *application.UpdateService
	validate    *validator.Validate
	version     string
	logger      *slog.Logger
}

// NewHandler creates a Handler. assets and updates may be nil when those
// features are disabled.
func NewHandler(
	conversions *application.ConversionService,
	sessions *application.SessionService,
	assets *application.AssetCache,
	updates *application.UpdateService,
	version string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		conversions: conversions,
		sessions:    sessions,
		assets:      assets,
		updates:     updates,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		version:     version,
		logger:      logger,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/countries", h.ListCountries)
	mux.HandleFunc("GET /api/v1/convert", h.Convert)
	mux.HandleFunc("GET /api/v1/session", h.GetSession)
	mux.HandleFunc("PUT /api/v1/session", h.PutSession)
	mux.HandleFunc("GET /api/v1/worker", h.GetWorker)
	mux.HandleFunc("POST /api/v1/worker/messages", h.PostWorkerMessage)
	mux.HandleFunc("GET /api/v1/update", h.GetUpdate)
	mux.HandleFunc("POST /api/v1/update/refresh", h.RefreshUpdate)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /metrics", h.Metrics)
}

// NewServeMux creates an http.Handler with all API routes registered and
// wrapped with request ID, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return Wrap(mux, logger)
}

// ListCountries returns every supported currency sorted by country name.
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.conversions.FetchCountries(r.Context())
	if err != nil {
		h.writeUpstreamError(w, "failed to fetch countries", err)
		return
	}

	writeJSON(w, http.StatusOK, toCountryResponses(countries))
}

// Convert converts ?amount= from ?from= to ?to=.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := ConvertQuery{
		From:   r.URL.Query().Get("from"),
		To:     r.URL.Query().Get("to"),
		Amount: r.URL.Query().Get("amount"),
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid query: from, to and a numeric amount are required")
		return
	}

	amount, err := decimal.NewFromString(q.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}

	conv, err := h.conversions.Convert(r.Context(), amount, q.From, q.To)
	if err != nil {
		h.writeUpstreamError(w, "failed to convert", err)
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, "value not found for "+model.NewPairKey(q.From, q.To).String())
		return
	}

	writeJSON(w, http.StatusOK, toConversionResponse(*conv))
}

// GetSession returns the last saved form state, or the defaults.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessions.Restore(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, toSessionResponse(model.DefaultSessionState(), false))
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(*state, true))
}

// PutSession replaces the saved form state.
func (h *Handler) PutSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session: "+err.Error())
		return
	}
	if req.FromAmount.IsNegative() || req.ToAmount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amounts must not be negative")
		return
	}

	state := req.toModel()
	h.sessions.Save(r.Context(), state)

	writeJSON(w, http.StatusOK, toSessionResponse(state, false))
}

// GetWorker reports the static asset cache generation and its state.
func (h *Handler) GetWorker(w http.ResponseWriter, _ *http.Request) {
	if h.assets == nil {
		writeError(w, http.StatusServiceUnavailable, "asset cache not available")
		return
	}

	writeJSON(w, http.StatusOK, h.workerResponse())
}

// PostWorkerMessage delivers a message such as {"action":"skip-waiting"}
// to the asset cache worker.
func (h *Handler) PostWorkerMessage(w http.ResponseWriter, r *http.Request) {
	if h.assets == nil {
		writeError(w, http.StatusServiceUnavailable, "asset cache not available")
		return
	}

	var req WorkerMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	if err := h.assets.HandleMessage(r.Context(), req.Action); err != nil {
		if errors.Is(err, model.ErrNotWaiting) {
			writeError(w, http.StatusConflict, "no update is waiting")
			return
		}
		h.logger.Error("failed to handle worker message", "action", req.Action, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, h.workerResponse())
}

func (h *Handler) workerResponse() WorkerResponse {
	return WorkerResponse{
		Cache: h.assets.Current(),
		State: string(h.assets.State()),
		URLs:  h.assets.URLs(),
	}
}

// GetUpdate reports whether a newer release has been published.
func (h *Handler) GetUpdate(w http.ResponseWriter, _ *http.Request) {
	if h.updates == nil {
		writeError(w, http.StatusNotFound, "update checks are disabled")
		return
	}

	writeJSON(w, http.StatusOK, h.updateResponse())
}

// RefreshUpdate checks for a new release now instead of waiting for the next
// poll, then returns the same body as GetUpdate.
func (h *Handler) RefreshUpdate(w http.ResponseWriter, r *http.Request) {
	if h.updates == nil {
		writeError(w, http.StatusNotFound, "update checks are disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	if err := h.updates.Refresh(ctx); err != nil {
		h.logger.Error("update refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "update check failed")
		return
	}

	writeJSON(w, http.StatusOK, h.updateResponse())
}

func (h *Handler) updateResponse() UpdateResponse {
	resp := UpdateResponse{Current: h.version}
	if release, newer := h.updates.Latest(); release != nil {
		resp.Available = newer
		resp.Latest = release.Tag
		resp.Name = release.Name
		resp.URL = release.URL
		resp.PublishedAt = formatTime(release.PublishedAt)
	}
	return resp
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	storage := StorageSQLite
	if h.conversions.Offline() {
		storage = StorageNetworkOnly
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Storage: storage,
	})
}

// Metrics exposes counters in the Prometheus text format.
func (h *Handler) Metrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	metrics.WritePrometheus(w, true)
}

// writeUpstreamError maps remote API failures to gateway status codes.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, driven.ErrOffline):
		writeError(w, http.StatusServiceUnavailable, "requires internet connection")
	case errors.Is(err, driven.ErrEmptyResponse):
		writeError(w, http.StatusBadGateway, "got empty response")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
