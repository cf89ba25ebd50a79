// Package server wires the gate, collaborators and observability endpoints
// into a single HTTP handler.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pagefort/pagefort/pkg/branding"
	"github.com/pagefort/pagefort/pkg/gate"
	"github.com/pagefort/pagefort/pkg/i18n"
)

// Config holds the server's collaborators.
type Config struct {
	Gate     *gate.Gate
	Branding branding.Resolver
	Messages *i18n.Catalog
	Metrics  *Metrics
	Logger   *slog.Logger
}

// New builds the root handler. Middleware order: request ID, then the gate,
// then the instrumented mux, so every non-excluded response carries policy
// headers regardless of route.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", metrics.Instrument("healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})))

	mux.Handle("/metrics", metrics.Handler())

	if cfg.Branding != nil {
		mux.Handle("/api/branding", metrics.Instrument("branding", brandingHandler(cfg.Branding, logger)))
	}
	if cfg.Messages != nil {
		mux.Handle("/api/messages", metrics.Instrument("messages", messagesHandler(cfg.Messages)))
	}

	mux.Handle("/", metrics.Instrument("root", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<!doctype html><title>pagefort</title>"))
	})))

	var handler http.Handler = otelhttp.NewHandler(mux, "pagefort.server")
	if cfg.Gate != nil {
		handler = cfg.Gate.Wrap(handler)
	}
	return RequestIDMiddleware(handler)
}

func brandingHandler(resolver branding.Resolver, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := resolver.Resolve(r.Context())
		if err != nil {
			logger.Warn("branding resolution failed, serving default", "error", err)
			payload = branding.DefaultPayload()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Warn("branding encode failed", "error", err)
		}
	})
}

func messagesHandler(catalog *i18n.Catalog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(catalog.Flatten())
	})
}
