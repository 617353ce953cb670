package application_test

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/currencyconverter/internal/application"
	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

const testApp = "currency-converter"

func assetClient(fsys fs.FS) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransportFS(fsys))
	return &http.Client{Transport: transport}
}

func staticFS() fstest.MapFS {
	return fstest.MapFS{
		"static/css/main.css": {Data: []byte("body { margin: 0; }")},
		"static/js/app.js":    {Data: []byte("console.log('app');")},
		"static/img/logo.svg": {Data: []byte("<svg></svg>")},
	}
}

func newCDN(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bootstrap.min.css", "/extra.css":
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte(".btn{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type assetFixture struct {
	fsys  fstest.MapFS
	cdn   *httptest.Server
	store *fakeAssetStore
	kv    *fakeStore
}

func newAssetFixture(t *testing.T) *assetFixture {
	t.Helper()
	return &assetFixture{
		fsys:  staticFS(),
		cdn:   newCDN(t),
		store: newFakeAssetStore(),
		kv:    newFakeStore(),
	}
}

func (f *assetFixture) cache(t *testing.T, version int, urls ...string) *application.AssetCache {
	t.Helper()

	if urls == nil {
		urls = []string{"/static/css/main.css", "/static/js/app.js", f.cdn.URL + "/bootstrap.min.css"}
	}

	c, err := application.NewAssetCache(f.store, f.kv, assetClient(f.fsys), application.AssetCacheConfig{
		App:     testApp,
		Version: version,
		Origin:  "file:///",
		URLs:    urls,
	})
	require.NoError(t, err)
	return c
}

func fetchBody(t *testing.T, c *application.AssetCache, rawURL string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, rawURL, nil)
	require.NoError(t, err)

	resp, err := c.Fetch(context.Background(), req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAssetCache_FirstInstallActivates(t *testing.T) {
	f := newAssetFixture(t)
	c := f.cache(t, 1)
	ctx := context.Background()

	assert.Equal(t, model.WorkerState(""), c.State())
	require.NoError(t, c.Install(ctx))

	assert.Equal(t, model.WorkerActive, c.State())
	caches, err := f.store.ListCaches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"currency-converter-static-v1"}, caches)
	assert.Equal(t, 3, f.store.entryCount("currency-converter-static-v1"))

	rec, err := f.kv.Get(ctx, model.ActiveGenerationKey)
	require.NoError(t, err)
	require.NotNil(t, rec)
	var active string
	require.NoError(t, rec.Decode(&active))
	assert.Equal(t, "currency-converter-static-v1", active)
}

func TestAssetCache_InstallIsAllOrNothing(t *testing.T) {
	f := newAssetFixture(t)
	c := f.cache(t, 1, "/static/css/main.css", "/static/missing.js")
	ctx := context.Background()

	err := c.Install(ctx)
	require.Error(t, err)

	caches, err := f.store.ListCaches(ctx)
	require.NoError(t, err)
	assert.Empty(t, caches)
	assert.Equal(t, model.WorkerState(""), c.State())
}

func TestAssetCache_StateDoesNotWaitForInstallFetches(t *testing.T) {
	f := newAssetFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		_, _ = w.Write([]byte(".slow{}"))
	}))
	t.Cleanup(slow.Close)
	unblock := sync.OnceFunc(func() { close(release) })
	t.Cleanup(unblock)

	c := f.cache(t, 1, "/static/css/main.css", slow.URL+"/slow.css")

	installed := make(chan error, 1)
	go func() { installed <- c.Install(context.Background()) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("install never reached the asset server")
	}

	stateCh := make(chan model.WorkerState, 1)
	go func() { stateCh <- c.State() }()

	select {
	case state := <-stateCh:
		assert.Equal(t, model.WorkerState(""), state)
	case <-time.After(time.Second):
		t.Fatal("State blocked while install was fetching assets")
	}

	unblock()
	require.NoError(t, <-installed)
	assert.Equal(t, model.WorkerActive, c.State())
}

func TestAssetCache_UpdateWaitsUntilSkipWaiting(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache(t, 1).Install(ctx))

	next := f.cache(t, 2)
	require.NoError(t, next.Install(ctx))
	assert.Equal(t, model.WorkerWaiting, next.State())

	caches, err := f.store.ListCaches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"currency-converter-static-v1", "currency-converter-static-v2"}, caches)

	require.NoError(t, next.HandleMessage(ctx, "skipWaiting"))
	assert.Equal(t, model.WorkerActive, next.State())

	caches, err = f.store.ListCaches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"currency-converter-static-v2"}, caches)
}

func TestAssetCache_HandleMessage(t *testing.T) {
	f := newAssetFixture(t)
	c := f.cache(t, 1)
	ctx := context.Background()

	assert.NoError(t, c.HandleMessage(ctx, "reload"), "unknown actions are ignored")

	err := c.HandleMessage(ctx, "skip-waiting")
	assert.ErrorIs(t, err, model.ErrNotWaiting)

	require.NoError(t, c.Install(ctx))
	err = c.HandleMessage(ctx, "skip-waiting")
	assert.ErrorIs(t, err, model.ErrNotWaiting, "an active worker cannot be promoted again")
}

func TestAssetCache_ActivateIsIdempotent(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()

	for _, name := range []string{"currency-converter-static-v1", "other-app-static-v1", "currency-converter-static-v2"} {
		require.NoError(t, f.store.CreateCache(ctx, name))
	}

	c := f.cache(t, 2)
	require.NoError(t, c.Activate(ctx))
	first, err := f.store.ListCaches(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Activate(ctx))
	second, err := f.store.ListCaches(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"other-app-static-v1", "currency-converter-static-v2"}, first)
	assert.Equal(t, first, second)
}

func TestAssetCache_FetchIsCacheFirst(t *testing.T) {
	f := newAssetFixture(t)
	c := f.cache(t, 1)
	require.NoError(t, c.Install(context.Background()))

	f.fsys["static/css/main.css"] = &fstest.MapFile{Data: []byte("body { margin: 1em; }")}

	status, body := fetchBody(t, c, "file:///static/css/main.css")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "body { margin: 0; }", body)

	status, body = fetchBody(t, c, f.cdn.URL+"/bootstrap.min.css")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, ".btn{}", body)
}

func TestAssetCache_FetchStoresSameOriginResponses(t *testing.T) {
	f := newAssetFixture(t)
	c := f.cache(t, 1)
	require.NoError(t, c.Install(context.Background()))

	status, body := fetchBody(t, c, "file:///static/img/logo.svg")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<svg></svg>", body)

	asset, err := f.store.Match(context.Background(), "file:///static/img/logo.svg")
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "currency-converter-static-v1", asset.CacheName)

	delete(f.fsys, "static/img/logo.svg")
	status, body = fetchBody(t, c, "file:///static/img/logo.svg")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<svg></svg>", body)
}

func TestAssetCache_FetchDoesNotStoreOthers(t *testing.T) {
	f := newAssetFixture(t)
	c := f.cache(t, 1)
	ctx := context.Background()

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{name: "cross origin", url: f.cdn.URL + "/extra.css", wantStatus: http.StatusOK},
		{name: "not found", url: "file:///static/nope.css", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := fetchBody(t, c, tt.url)
			assert.Equal(t, tt.wantStatus, status)

			asset, err := f.store.Match(ctx, tt.url)
			require.NoError(t, err)
			assert.Nil(t, asset)
		})
	}
}

func TestAssetCache_Resolve(t *testing.T) {
	f := newAssetFixture(t)
	c := f.cache(t, 7)

	got, err := c.Resolve("/static/js/app.js")
	require.NoError(t, err)
	assert.Equal(t, "file:///static/js/app.js", got)
	assert.Equal(t, "currency-converter-static-v7", c.Current())
	assert.Len(t, c.URLs(), 3)
}
