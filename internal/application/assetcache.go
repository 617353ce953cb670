package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// AssetCacheConfig describes the static asset generation served by an
// AssetCache.
type AssetCacheConfig struct {
	// App is the cache name prefix, e.g. "currency-converter".
	App string
	// Version numbers the current generation.
	Version int
	// Origin is the base URL of first-party assets. Responses from any other
	// scheme or host are treated as cross-origin.
	Origin string
	// URLs lists the assets fetched on install. Relative URLs resolve
	// against Origin.
	URLs []string
}

// AssetCache stores versioned generations of static assets and serves them
// cache-first. A newly installed generation waits until it is promoted
// unless no generation was active before.
type AssetCache struct {
	store   driven.AssetCacheStore
	kv      driven.KeyValueStore
	client  *http.Client
	app     string
	current string
	origin  *url.URL
	urls    []string

	mu    sync.Mutex
	state model.WorkerState
}

// NewAssetCache creates an AssetCache. kv records which generation is
// active and may be nil, in which case every install counts as the first.
func NewAssetCache(
	store driven.AssetCacheStore,
	kv driven.KeyValueStore,
	client *http.Client,
	cfg AssetCacheConfig,
) (*AssetCache, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse asset origin %q: %w", cfg.Origin, err)
	}

	urls := make([]string, 0, len(cfg.URLs))
	for _, raw := range cfg.URLs {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse asset url %q: %w", raw, err)
		}
		urls = append(urls, origin.ResolveReference(u).String())
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &AssetCache{
		store:   store,
		kv:      kv,
		client:  client,
		app:     cfg.App,
		current: model.GenerationName(cfg.App, cfg.Version),
		origin:  origin,
		urls:    urls,
	}, nil
}

// Current returns the name of the current generation.
func (c *AssetCache) Current() string {
	return c.current
}

// URLs returns the absolute asset URLs fetched on install.
func (c *AssetCache) URLs() []string {
	return slices.Clone(c.urls)
}

// Resolve turns a path relative to the asset origin into an absolute URL.
func (c *AssetCache) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse asset reference %q: %w", ref, err)
	}
	return c.origin.ResolveReference(u).String(), nil
}

// State returns the worker state of the current generation.
func (c *AssetCache) State() model.WorkerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Install fetches every configured asset into the current generation. The
// entries are written only if every fetch succeeded.
func (c *AssetCache) Install(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "AssetCache.Install")
	defer span.End()

	start := time.Now()

	// Fetches run unlocked; State must never wait on the network.
	assets := make([]model.CachedAsset, 0, len(c.urls))
	for _, u := range c.urls {
		asset, err := c.fetchForInstall(ctx, u)
		if err != nil {
			recordSpanError(span, err)
			return fmt.Errorf("install %s: %w", c.current, err)
		}
		assets = append(assets, asset)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.store.ListCaches(ctx)
	if err != nil {
		return fmt.Errorf("install %s: %w", c.current, err)
	}
	created := !slices.Contains(existing, c.current)

	if err := c.store.CreateCache(ctx, c.current); err != nil {
		return fmt.Errorf("install %s: %w", c.current, err)
	}

	if err := c.store.PutAll(ctx, assets); err != nil {
		if created {
			if _, delErr := c.store.DeleteCache(ctx, c.current); delErr != nil {
				slog.Warn("failed to remove partial cache", "cache", c.current, "error", delErr)
			}
		}
		recordSpanError(span, err)
		return fmt.Errorf("install %s: %w", c.current, err)
	}

	slog.Info("asset cache installed",
		"cache", c.current,
		"assets", len(assets),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if c.firstInstall(ctx) {
		return c.activateLocked(ctx)
	}

	c.state = model.WorkerWaiting
	slog.Info("asset cache waiting for activation", "cache", c.current)

	return nil
}

func (c *AssetCache) fetchForInstall(ctx context.Context, u string) (model.CachedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.CachedAsset{}, fmt.Errorf("build request for %s: %w", u, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return model.CachedAsset{}, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.CachedAsset{}, fmt.Errorf("fetch %s: unexpected status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.CachedAsset{}, fmt.Errorf("read %s: %w", u, err)
	}

	return model.CachedAsset{
		CacheName: c.current,
		URL:       u,
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      body,
		StoredAt:  time.Now(),
	}, nil
}

// firstInstall reports whether no other generation has been active before.
func (c *AssetCache) firstInstall(ctx context.Context) bool {
	if c.kv == nil {
		return true
	}

	rec, err := c.kv.Get(ctx, model.ActiveGenerationKey)
	if err != nil {
		slog.Warn("failed to read active cache generation", "error", err)
		return true
	}
	if rec == nil {
		return true
	}

	var active string
	if err := rec.Decode(&active); err != nil {
		return true
	}

	return active == "" || active == c.current
}

// Activate removes every other generation of this app and marks the current
// one active. Calling it again is a no-op.
func (c *AssetCache) Activate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activateLocked(ctx)
}

func (c *AssetCache) activateLocked(ctx context.Context) error {
	names, err := c.store.ListCaches(ctx)
	if err != nil {
		return fmt.Errorf("activate %s: %w", c.current, err)
	}

	for _, name := range names {
		if !model.IsStaleGeneration(name, c.app, c.current) {
			continue
		}
		if _, err := c.store.DeleteCache(ctx, name); err != nil {
			return fmt.Errorf("activate %s: delete %s: %w", c.current, name, err)
		}
		slog.Info("deleted stale asset cache", "cache", name)
	}

	if c.kv != nil {
		if _, err := c.kv.Set(ctx, model.ActiveGenerationKey, c.current); err != nil {
			slog.Warn("failed to record active cache generation", "cache", c.current, "error", err)
		}
	}

	c.state = model.WorkerActive

	return nil
}

// HandleMessage processes a message posted to the worker. "skip-waiting"
// promotes a waiting generation and activates it; other actions are ignored.
func (c *AssetCache) HandleMessage(ctx context.Context, action string) error {
	switch action {
	case "skip-waiting", "skipWaiting":
	default:
		slog.Debug("ignoring worker message", "action", action)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.state.Promote()
	if err != nil {
		return err
	}
	c.state = next

	return c.activateLocked(ctx)
}

// Fetch answers req from the cache when any live generation holds it, and
// from the network otherwise. Same-origin 200 responses fetched from the
// network are stored in the current generation.
func (c *AssetCache) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	key := req.URL.String()

	if req.Method == http.MethodGet {
		asset, err := c.store.Match(ctx, key)
		if err != nil {
			slog.Warn("asset cache lookup failed", "url", key, "error", err)
		}
		if asset != nil {
			assetHits.Inc()
			return cachedResponse(req, asset), nil
		}
	}

	resp, err := c.client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	assetNetwork.Inc()

	if req.Method != http.MethodGet || resp.StatusCode != http.StatusOK || !c.sameOrigin(req, resp) {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	c.put(ctx, model.CachedAsset{
		CacheName: c.current,
		URL:       key,
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      slices.Clone(body),
		StoredAt:  time.Now(),
	})

	return resp, nil
}

func (c *AssetCache) put(ctx context.Context, asset model.CachedAsset) {
	if err := c.store.CreateCache(ctx, asset.CacheName); err != nil {
		slog.Warn("failed to create asset cache", "cache", asset.CacheName, "error", err)
		return
	}
	if err := c.store.Put(ctx, asset); err != nil {
		slog.Warn("failed to store asset", "url", asset.URL, "error", err)
		return
	}
	assetStored.Inc()
}

// sameOrigin reports whether the final response URL shares scheme and host
// with the asset origin.
func (c *AssetCache) sameOrigin(req *http.Request, resp *http.Response) bool {
	u := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL
	}
	return u.Scheme == c.origin.Scheme && u.Host == c.origin.Host
}

func cachedResponse(req *http.Request, asset *model.CachedAsset) *http.Response {
	header := asset.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", asset.Status, http.StatusText(asset.Status)),
		StatusCode:    asset.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(asset.Body)),
		ContentLength: int64(len(asset.Body)),
		Request:       req,
	}
}
