package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRatesServer serves a fixed countries list and USD/EUR rates.
func newRatesServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v5/countries", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{
			"FR":{"currencyId":"EUR","name":"France","currencySymbol":"€"},
			"US":{"currencyId":"USD","name":"United States of America","currencySymbol":"$"},
			"JP":{"currencyId":"JPY","name":"Japan","currencySymbol":"¥"}
		}}`))
	})
	mux.HandleFunc("GET /api/v5/convert", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Query().Get("q"), "USD_EUR") {
			_, _ = w.Write([]byte(`{"USD_EUR":0.85,"EUR_USD":1.1765}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// run executes the command line against a fresh root command.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCommand("v1.0.0")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db-path", dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("CURRENCYCONVERTER_API_BASE_URL", apiURL)
	t.Setenv("CURRENCYCONVERTER_API_KEY", "")
	t.Setenv("CURRENCYCONVERTER_PERSISTENCE", "true")
	t.Setenv("CURRENCYCONVERTER_UPDATE_REPO", "")
}

func TestConvertCommand(t *testing.T) {
	server := newRatesServer(t)
	setupEnv(t, server.URL)
	dbPath := filepath.Join(t.TempDir(), "cc.db")

	out, err := run(t, dbPath, "convert", "10", "usd", "eur")
	require.NoError(t, err)

	assert.Contains(t, out, "10 USD = 8.50 EUR")
	assert.Contains(t, out, "At 0.85 EUR per USD")
}

func TestConvertCommand_OfflineUsesStoredRate(t *testing.T) {
	server := newRatesServer(t)
	setupEnv(t, server.URL)
	dbPath := filepath.Join(t.TempDir(), "cc.db")

	_, err := run(t, dbPath, "convert", "10", "USD", "EUR")
	require.NoError(t, err)

	server.Close()

	out, err := run(t, dbPath, "convert", "2", "EUR", "USD")
	require.NoError(t, err)
	assert.Contains(t, out, "2 EUR = 2.35 USD")
}

func TestConvertCommand_MissingRate(t *testing.T) {
	server := newRatesServer(t)
	setupEnv(t, server.URL)

	_, err := run(t, filepath.Join(t.TempDir(), "cc.db"), "convert", "5", "USD", "XYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USD_XYZ")
}

func TestConvertCommand_InvalidArgs(t *testing.T) {
	server := newRatesServer(t)
	setupEnv(t, server.URL)

	tests := []struct {
		name string
		args []string
	}{
		{name: "too few arguments", args: []string{"convert", "10", "USD"}},
		{name: "not a number", args: []string{"convert", "ten", "USD", "EUR"}},
		{name: "negative", args: []string{"convert", "--", "-1", "USD", "EUR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db-path", filepath.Join(t.TempDir(), "cc.db")}, tt.args...)
			assert.Equal(t, 2, Execute(context.Background(), "v1.0.0", args))
		})
	}
}

func TestCountriesCommand(t *testing.T) {
	server := newRatesServer(t)
	setupEnv(t, server.URL)
	dbPath := filepath.Join(t.TempDir(), "cc.db")

	out, err := run(t, dbPath, "countries")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "CODE"))
	assert.True(t, strings.HasPrefix(lines[1], "EUR"), "countries sorted by name")
	assert.True(t, strings.HasPrefix(lines[2], "JPY"))
	assert.True(t, strings.HasPrefix(lines[3], "USD"))

	out, err = run(t, dbPath, "countries", "--filter", "japan")
	require.NoError(t, err)
	assert.Contains(t, out, "JPY")
	assert.NotContains(t, out, "EUR")
}

func TestSessionCommands(t *testing.T) {
	server := newRatesServer(t)
	setupEnv(t, server.URL)
	dbPath := filepath.Join(t.TempDir(), "cc.db")

	out, err := run(t, dbPath, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "no saved session")

	out, err = run(t, dbPath, "session", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Select countries")

	out, err = run(t, dbPath, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "from: # 0")
	assert.Contains(t, out, "to:   # 0")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	setupEnv(t, "not a url")

	_, err := run(t, filepath.Join(t.TempDir(), "cc.db"), "countries")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CURRENCYCONVERTER_")
}
