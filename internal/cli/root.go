// Package cli implements the currencyconverter command line.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/currencyconverter/internal/config"
)

// AppName prefixes cache generations and names the service in traces.
const AppName = "currency-converter"

type rootOptions struct {
	version    string
	cfg        *config.Config
	listenAddr string
	dbPath     string
	logLevel   string
}

// NewRootCommand builds the command tree. version is reported by --version,
// the health endpoint and the update checker.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	root := &cobra.Command{
		Use:           "currencyconverter",
		Short:         "Convert currencies with offline-capable rate caching",
		Long:          "currencyconverter serves a small web UI and JSON API for converting between currencies. Rates and country lists are cached in a local SQLite store so conversions keep working offline. Configuration is read from CURRENCYCONVERTER_* environment variables and an optional .env file.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.listenAddr, "listen-addr", "", "address the HTTP server listens on (overrides CURRENCYCONVERTER_LISTEN_ADDR)")
	flags.StringVar(&opts.dbPath, "db-path", "", "SQLite database file (overrides CURRENCYCONVERTER_DB_PATH)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides CURRENCYCONVERTER_LOG_LEVEL)")

	root.AddCommand(
		newServeCommand(opts),
		newConvertCommand(opts),
		newCountriesCommand(opts),
		newSessionCommand(opts),
	)

	return root
}

// load reads .env files and the environment, then applies flag overrides.
func (o *rootOptions) load(cmd *cobra.Command) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("listen-addr") {
		cfg.ListenAddr = o.listenAddr
	}
	if flags.Changed("db-path") {
		cfg.DBPath = o.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	o.cfg = cfg
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, version string, args []string) int {
	root := NewRootCommand(version)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			root.PrintErrln("Error:", err)
			root.PrintErrln(root.UsageString())
			return 2
		}
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

// usageError marks invalid arguments.
type usageError struct{ error }
