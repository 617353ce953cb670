package application

import "github.com/VictoriaMetrics/metrics"

// Counters exported on /metrics. Names follow the Prometheus text format
// accepted by github.com/VictoriaMetrics/metrics.
var (
	ratesHits        = metrics.GetOrCreateCounter(`currencyconverter_store_lookups_total{kind="rates",result="hit"}`)
	ratesMisses      = metrics.GetOrCreateCounter(`currencyconverter_store_lookups_total{kind="rates",result="miss"}`)
	ratesStale       = metrics.GetOrCreateCounter(`currencyconverter_store_lookups_total{kind="rates",result="stale"}`)
	countriesHits    = metrics.GetOrCreateCounter(`currencyconverter_store_lookups_total{kind="countries",result="hit"}`)
	countriesMisses  = metrics.GetOrCreateCounter(`currencyconverter_store_lookups_total{kind="countries",result="miss"}`)
	countriesStale   = metrics.GetOrCreateCounter(`currencyconverter_store_lookups_total{kind="countries",result="stale"}`)
	storeErrors      = metrics.GetOrCreateCounter(`currencyconverter_store_errors_total`)
	networkErrors    = metrics.GetOrCreateCounter(`currencyconverter_network_errors_total`)
	writeBackFailed  = metrics.GetOrCreateCounter(`currencyconverter_writeback_failures_total`)
	writeBackSkipped = metrics.GetOrCreateCounter(`currencyconverter_writeback_skipped_total`)
	assetHits        = metrics.GetOrCreateCounter(`currencyconverter_asset_fetches_total{result="cache"}`)
	assetNetwork     = metrics.GetOrCreateCounter(`currencyconverter_asset_fetches_total{result="network"}`)
	assetStored      = metrics.GetOrCreateCounter(`currencyconverter_asset_fetches_total{result="stored"}`)
)
