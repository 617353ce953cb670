package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Pages are served at / and /app/*. Assets go through the asset cache when
// one is configured and straight from the embedded filesystem otherwise.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	if h.assets != nil {
		mux.HandleFunc("GET /static/{path...}", h.Static)
		mux.HandleFunc("GET /vendor/{name}", h.Vendor)
	} else {
		staticFS, _ := fs.Sub(StaticFS, "static")
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
	}

	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("POST /app/change", h.Change)
	mux.HandleFunc("POST /app/worker/skip-waiting", h.SkipWaiting)
}
