package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	currencyapi "github.com/ericfisherdev/currencyconverter/internal/adapter/driven/currencyapi"
	githubadapter "github.com/ericfisherdev/currencyconverter/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/currencyconverter/internal/adapter/driven/sqlite"
	webhandler "github.com/ericfisherdev/currencyconverter/internal/adapter/driving/web"
	"github.com/ericfisherdev/currencyconverter/internal/application"
	"github.com/ericfisherdev/currencyconverter/internal/config"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// app holds the wired services shared by every command.
type app struct {
	db          *sqliteadapter.DB
	store       driven.KeyValueStore
	conversions *application.ConversionService
	sessions    *application.SessionService
	form        *application.FormService
	assets      *application.AssetCache
	updates     *application.UpdateService
}

// newApp opens the store and wires the services. A store that cannot be
// opened is logged and the app continues in network-only mode.
func newApp(ctx context.Context, cfg *config.Config, version string) (*app, error) {
	a := &app{}

	if cfg.StoreEnabled() {
		db, err := sqliteadapter.Open(ctx, cfg.DBPath, sqliteadapter.SchemaVersion)
		switch {
		case err == nil:
			a.db = db
			a.store = sqliteadapter.NewRecordRepo(db)
			slog.Info("database opened", "path", cfg.DBPath)
		case errors.Is(err, driven.ErrUnsupportedEnvironment), errors.Is(err, driven.ErrOpen):
			slog.Warn("local store unavailable, running network-only", "error", err)
		default:
			return nil, err
		}
	} else {
		slog.Warn(driven.ErrUnsupportedEnvironment.Error())
	}

	api := currencyapi.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.APITimeout)

	a.conversions = application.NewConversionService(
		a.store,
		api,
		application.NewBackgroundTasks(16),
		cfg.RatesTTL,
		cfg.CountriesTTL,
	)
	a.sessions = application.NewSessionService(a.store)
	a.form = application.NewFormService(a.conversions, a.sessions)

	if a.db != nil {
		assets, err := application.NewAssetCache(
			sqliteadapter.NewAssetRepo(a.db),
			a.store,
			newAssetClient(webhandler.StaticFS, cfg),
			application.AssetCacheConfig{
				App:     AppName,
				Version: cfg.AssetVersion,
				Origin:  "file:///",
				URLs:    cfg.AssetURLs,
			},
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.assets = assets
	}

	if cfg.UpdatesEnabled() {
		a.updates = application.NewUpdateService(
			githubadapter.NewClient(cfg.GitHubToken),
			cfg.UpdateRepo,
			version,
			cfg.UpdateInterval,
		)
	}

	return a, nil
}

// newAssetClient returns the asset cache's network: file:// URLs are served
// from the embedded static files, everything else goes to the internet.
func newAssetClient(static fs.FS, cfg *config.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransportFS(static))

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.APITimeout,
	}
}

// Close waits for pending write-backs and closes the store.
func (a *app) Close() {
	a.conversions.Wait()

	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
