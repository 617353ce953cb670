package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// --- Fake key/value store ---

type fakeStore struct {
	mu      sync.Mutex
	records map[string]model.Record
	getErr  error
	setErr  error
	sets    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]model.Record)}
}

func (f *fakeStore) Get(_ context.Context, key string) (*model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return false, f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, errors.Join(driven.ErrWrite, err)
	}
	f.records[key] = model.Record{ID: key, Value: raw, UpdatedAt: time.Now()}
	f.sets = append(f.sets, key)
	return true, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, key)
	return true, nil
}

// put seeds a record with an explicit timestamp.
func (f *fakeStore) put(key string, value any, updatedAt time.Time) {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[key] = model.Record{ID: key, Value: raw, UpdatedAt: updatedAt}
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[key]
	return ok
}

func (f *fakeStore) setKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sets)
}

// --- Fake rate API ---

const countriesURL = "https://rates.example/api/v5/countries"

type fakeRateAPI struct {
	mu             sync.Mutex
	countries      map[string]model.CountryPayload
	rates          map[model.PairKey]float64
	err            error
	countryCalls   int
	rateCalls      int
	requestedPairs []model.PairKey
}

func (f *fakeRateAPI) CountriesURL() string {
	return countriesURL
}

func (f *fakeRateAPI) FetchCountries(_ context.Context) (map[string]model.CountryPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.countryCalls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.countries) == 0 {
		return nil, driven.ErrEmptyResponse
	}
	return f.countries, nil
}

func (f *fakeRateAPI) FetchRates(_ context.Context, pairs ...model.PairKey) (map[model.PairKey]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rateCalls++
	f.requestedPairs = append(f.requestedPairs, pairs...)
	if f.err != nil {
		return nil, f.err
	}

	out := make(map[model.PairKey]float64)
	for _, p := range pairs {
		if r, ok := f.rates[p]; ok {
			out[p] = r
		}
	}
	return out, nil
}

func (f *fakeRateAPI) calls() (countries, rates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countryCalls, f.rateCalls
}

// --- Fake asset cache store ---

type fakeAssetStore struct {
	mu      sync.Mutex
	caches  []string
	entries map[string]map[string]model.CachedAsset
	putErr  error
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{entries: make(map[string]map[string]model.CachedAsset)}
}

func (f *fakeAssetStore) CreateCache(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !slices.Contains(f.caches, name) {
		f.caches = append(f.caches, name)
		f.entries[name] = make(map[string]model.CachedAsset)
	}
	return nil
}

func (f *fakeAssetStore) ListCaches(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.caches), nil
}

func (f *fakeAssetStore) DeleteCache(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := slices.Index(f.caches, name)
	if i < 0 {
		return false, nil
	}
	f.caches = slices.Delete(f.caches, i, i+1)
	delete(f.entries, name)
	return true, nil
}

func (f *fakeAssetStore) PutAll(_ context.Context, assets []model.CachedAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return f.putErr
	}
	for _, a := range assets {
		if _, ok := f.entries[a.CacheName]; !ok {
			return errors.New("no such cache: " + a.CacheName)
		}
	}
	for _, a := range assets {
		f.entries[a.CacheName][a.URL] = a
	}
	return nil
}

func (f *fakeAssetStore) Put(ctx context.Context, asset model.CachedAsset) error {
	return f.PutAll(ctx, []model.CachedAsset{asset})
}

func (f *fakeAssetStore) Match(_ context.Context, url string) (*model.CachedAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, name := range f.caches {
		if a, ok := f.entries[name][url]; ok {
			a.Header = a.Header.Clone()
			if a.Header == nil {
				a.Header = http.Header{}
			}
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAssetStore) entryCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries[name])
}

// --- Fake release source ---

type fakeReleaseSource struct {
	mu      sync.Mutex
	release *model.Release
	err     error
	calls   int
}

func (f *fakeReleaseSource) LatestRelease(_ context.Context, _ string) (*model.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.release, nil
}

func (f *fakeReleaseSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
