package application

import "go.opentelemetry.io/otel"

// tracer is resolved lazily through the global provider, so spans are no-ops
// until telemetry.Setup installs an exporter.
var tracer = otel.Tracer("github.com/ericfisherdev/currencyconverter/internal/application")
