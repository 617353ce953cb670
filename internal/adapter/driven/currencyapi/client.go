// Package currencyapi implements the RateAPI port against the
// currencyconverterapi.com v5 REST endpoints.
package currencyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

const (
	countriesPath = "/api/v5/countries"
	convertPath   = "/api/v5/convert"

	// maxBodyBytes bounds how much of a response is read. The countries list
	// is the largest payload at roughly 40 KB.
	maxBodyBytes = 4 << 20
)

// Compile-time interface satisfaction check.
var _ driven.RateAPI = (*Client)(nil)

// Client implements the driven.RateAPI port over plain HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates a currency API client with an in-memory httpcache
// transport so repeated requests honour the API's cache headers.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()

	return &Client{
		http:    &http.Client{Transport: cacheTransport, Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, apiKey string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

// CountriesURL returns the absolute countries endpoint without credentials.
func (c *Client) CountriesURL() string {
	return c.baseURL + countriesPath
}

type countriesResponse struct {
	Results map[string]model.CountryPayload `json:"results"`
}

// FetchCountries retrieves the full country/currency list.
func (c *Client) FetchCountries(ctx context.Context) (map[string]model.CountryPayload, error) {
	var payload *countriesResponse
	if err := c.getJSON(ctx, c.CountriesURL()+c.keyQuery("?"), &payload); err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}

	if payload == nil || len(payload.Results) == 0 {
		return nil, fmt.Errorf("fetch countries: %w", driven.ErrEmptyResponse)
	}

	return payload.Results, nil
}

// FetchRates retrieves the requested pairs in compact form, e.g.
// GET /api/v5/convert?q=USD_EUR,EUR_USD&compact=ultra.
func (c *Client) FetchRates(ctx context.Context, pairs ...model.PairKey) (map[model.PairKey]float64, error) {
	if len(pairs) == 0 {
		return map[model.PairKey]float64{}, nil
	}

	q := make([]string, 0, len(pairs))
	for _, p := range pairs {
		q = append(q, p.String())
	}
	// Pair keys are already escaped; url.Values would escape the comma separator.
	endpoint := c.baseURL + convertPath + "?q=" + strings.Join(q, ",") + "&compact=ultra" + c.keyQuery("&")

	var payload map[string]*float64
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch rates %s: %w", strings.Join(q, ","), err)
	}

	rates := make(map[model.PairKey]float64, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		rates[model.PairKey(k)] = *v
	}

	slog.Debug("rates fetched", "pairs", q, "found", len(rates))
	return rates, nil
}

func (c *Client) keyQuery(sep string) string {
	if c.apiKey == "" {
		return ""
	}
	return sep + "apiKey=" + url.QueryEscape(c.apiKey)
}

// getJSON performs a GET and decodes the body into v. Transport failures and
// non-2xx statuses are reported as driven.ErrOffline.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", driven.ErrOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: unexpected status %d", driven.ErrOffline, resp.StatusCode)
	}

	if resp.Header.Get(httpcache.XFromCache) != "" {
		slog.Debug("currency api response served from http cache", "url", req.URL.Path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %w", driven.ErrOffline, err)
	}

	return nil
}
