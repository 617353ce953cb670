// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/currencyconverter/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/currencyconverter/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/currencyconverter/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/currencyconverter/internal/application"
	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

const (
	pageTitle = "Currency Converter"

	// partialHeader marks in-page requests that want the form fragment
	// instead of a redirect.
	partialHeader = "HX-Request"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	form    *application.FormService
	assets  *application.AssetCache
	updates *application.UpdateService
	logger  *slog.Logger
}

// NewHandler creates a Handler. assets and updates may be nil.
func NewHandler(
	form *application.FormService,
	assets *application.AssetCache,
	updates *application.UpdateService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		form:    form,
		assets:  assets,
		updates: updates,
		logger:  logger,
	}
}

// Dashboard renders the converter page with the full HTML layout.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	token := csrfToken(w, r)
	state := h.form.Load(r.Context())

	page := vm.PageViewModel{
		Title:       pageTitle,
		Stylesheets: h.stylesheets(),
		Scripts:     []string{"/static/js/app.js"},
		Converter:   toConverterViewModel(state, token),
	}
	if h.assets != nil {
		page.WorkerWaiting = h.assets.State() == model.WorkerWaiting
	}
	if h.updates != nil {
		page.Update = toUpdateBannerViewModel(h.updates.Latest())
	}

	layout := templates.Layout(page.Title, page.Stylesheets, page.Scripts, pages.Converter(page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Change applies one form edit. In-page requests get the re-rendered form;
// plain form posts are redirected back to the page, which restores the
// saved session.
func (h *Handler) Change(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	field := model.FormField(r.PostFormValue("field"))
	session := sessionFromForm(r)

	session, notice, err := h.form.HandleChange(r.Context(), session, field, r.PostFormValue(string(field)))
	if err != nil {
		if errors.Is(err, application.ErrUnknownField) || errors.Is(err, application.ErrInvalidAmount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to apply form change", "field", field, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !isPartialRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	form := toConverterViewModel(model.FormState{
		Session:   session,
		Countries: h.form.Countries(r.Context()),
		Notice:    notice,
		Offline:   h.form.Offline(),
	}, csrfToken(w, r))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ConverterForm(form).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render converter form", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// SkipWaiting promotes a waiting asset generation, the refresh button of the
// "New version available" alert.
func (h *Handler) SkipWaiting(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}
	if h.assets == nil {
		http.Error(w, "asset cache not available", http.StatusServiceUnavailable)
		return
	}

	if err := h.assets.HandleMessage(r.Context(), "skip-waiting"); err != nil {
		if errors.Is(err, model.ErrNotWaiting) {
			http.Error(w, "no update is waiting", http.StatusConflict)
			return
		}
		h.logger.Error("failed to activate asset cache", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Static serves first-party assets through the asset cache.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/static/" + r.PathValue("path"))
	if !strings.HasPrefix(name, "/static/") {
		http.NotFound(w, r)
		return
	}

	target, err := h.assets.Resolve(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	h.serveAsset(w, r, target)
}

// Vendor serves a configured third-party asset by file name, e.g.
// /vendor/bootstrap.min.css.
func (h *Handler) Vendor(w http.ResponseWriter, r *http.Request) {
	target, ok := h.vendorURL(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	h.serveAsset(w, r, target)
}

func (h *Handler) serveAsset(w http.ResponseWriter, r *http.Request, target string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	resp, err := h.assets.Fetch(r.Context(), req)
	if err != nil {
		h.logger.Warn("asset fetch failed", "url", target, "error", err)
		http.Error(w, "asset unavailable", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for _, key := range []string{"Content-Type", "Cache-Control", "Etag", "Last-Modified"} {
		if v := resp.Header.Get(key); v != "" {
			w.Header().Set(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("failed to write asset", "url", target, "error", err)
	}
}

// vendorURL finds the cross-origin asset whose file name is name.
func (h *Handler) vendorURL(name string) (string, bool) {
	if h.assets == nil || name == "" {
		return "", false
	}

	for _, u := range h.assets.URLs() {
		if isRemote(u) && path.Base(u) == name {
			return u, true
		}
	}
	return "", false
}

// stylesheets lists vendor stylesheets first so first-party CSS wins.
func (h *Handler) stylesheets() []string {
	var sheets []string
	if h.assets != nil {
		for _, u := range h.assets.URLs() {
			if isRemote(u) && strings.HasSuffix(u, ".css") {
				sheets = append(sheets, "/vendor/"+path.Base(u))
			}
		}
	}
	return append(sheets, "/static/css/main.css")
}

// sessionFromForm rebuilds the current session from the posted inputs.
// Unparseable amounts count as zero.
func sessionFromForm(r *http.Request) model.SessionState {
	return model.SessionState{
		FromCountry: r.PostFormValue(string(model.FieldFromCountry)),
		FromAmount:  formAmount(r.PostFormValue(string(model.FieldFromAmount))),
		FromSymbol:  symbolOrDefault(r.PostFormValue("fromSymbol")),
		ToCountry:   r.PostFormValue(string(model.FieldToCountry)),
		ToAmount:    formAmount(r.PostFormValue(string(model.FieldToAmount))),
		ToSymbol:    symbolOrDefault(r.PostFormValue("toSymbol")),
	}
}

func formAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func isRemote(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func isPartialRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(partialHeader), "true")
}
