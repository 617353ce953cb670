package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	httphandler "github.com/ericfisherdev/currencyconverter/internal/adapter/driving/http"
	"github.com/ericfisherdev/currencyconverter/internal/config"
)

func main() {
	os.Exit(run(os.Stderr))
}

func run(stderr io.Writer) int {
	addr := normalizeAddr(os.Getenv(config.EnvPrefix + "LISTEN_ADDR"))

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	health, err := check(ctx, client, fmt.Sprintf("http://%s/api/v1/health", addr))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "healthcheck:", err)
		return 1
	}

	if health.Storage == httphandler.StorageNetworkOnly {
		_, _ = fmt.Fprintln(stderr, "healthcheck: local store unavailable, conversions need the network")
	}

	return 0
}

// check fetches the health endpoint and verifies the reported status and
// storage mode.
func check(ctx context.Context, client *http.Client, endpoint string) (*httphandler.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var health httphandler.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}

	if health.Status != "ok" {
		return nil, fmt.Errorf("service reports status %q", health.Status)
	}

	switch health.Storage {
	case httphandler.StorageSQLite, httphandler.StorageNetworkOnly:
	default:
		return nil, fmt.Errorf("service reports unknown storage %q", health.Storage)
	}

	return &health, nil
}

// normalizeAddr ensures the healthcheck connects to loopback rather than the
// bind-all address. Docker containers bind 0.0.0.0 but the healthcheck runs
// inside the same container, so loopback is reachable.
func normalizeAddr(raw string) string {
	if raw == "" {
		raw = config.DefaultListenAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return config.DefaultListenAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
