// Package gate implements the per-request security-header middleware. Every
// non-excluded request receives a baseline header floor plus an
// environment-specific Content-Security-Policy; any construction failure
// degrades to a minimal fallback policy instead of leaving the response
// unprotected. The gate never blocks or redirects a request.
package gate

import (
	"log/slog"
	"net/http"

	"github.com/pagefort/pagefort/pkg/policy"
	"github.com/pagefort/pagefort/pkg/telemetry"
)

// Result identifies which policy path a request took through the gate.
type Result string

const (
	// ResultFull means the environment-specific policy was attached.
	ResultFull Result = "full"
	// ResultFallback means construction failed and the minimal policy was
	// attached instead.
	ResultFallback Result = "fallback"
	// ResultExcluded means the path matched the exclusion set and no policy
	// headers were attached.
	ResultExcluded Result = "excluded"
)

// Config carries the immutable inputs the gate is constructed with. It is
// resolved once at process start; the gate never reads ambient state.
type Config struct {
	Mode             policy.Mode
	APIOrigin        string
	TrustedOrigins   []string
	ExcludedPrefixes []string
	ExcludedPaths    []string
}

// Option customizes gate construction.
type Option func(*Gate)

// WithNonceSource substitutes the nonce source. Tests use this to force
// deterministic or failing nonces.
func WithNonceSource(src policy.NonceSource) Option {
	return func(g *Gate) { g.nonces = src }
}

// WithResultHook registers a callback invoked with the Result of every
// request the gate sees. Useful for tests and metrics.
func WithResultHook(hook func(Result)) Option {
	return func(g *Gate) { g.onResult = hook }
}

// Gate attaches security headers to every non-excluded response. It holds
// no mutable state across requests; concurrent invocations are independent.
type Gate struct {
	builder    *policy.Builder
	exclusions *PathExclusions
	logger     *slog.Logger
	nonces     policy.NonceSource
	onResult   func(Result)
}

// New constructs the gate from resolved configuration. A production API
// origin resolving to a loopback address is logged as a warning once here;
// it signals misconfiguration but does not change behavior.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gate{
		exclusions: NewPathExclusions(cfg.ExcludedPrefixes, cfg.ExcludedPaths),
		logger:     logger,
		nonces:     policy.CryptoNonceSource{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.builder = policy.NewBuilder(cfg.Mode, cfg.APIOrigin, cfg.TrustedOrigins, g.nonces)

	if cfg.Mode == policy.ModeProduction && policy.IsLoopbackOrigin(cfg.APIOrigin) {
		logger.Warn("API origin resolves to a loopback address in production",
			"api_origin", cfg.APIOrigin,
		)
	}
	return g
}

// Wrap returns a handler that applies the gate before delegating to next.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := g.Apply(w.Header(), r.URL.Path)
		telemetry.RecordGateDecision(r.Context(), telemetry.GateDecision{
			Mode:    string(g.builder.Mode()),
			Outcome: string(result),
		})
		if g.onResult != nil {
			g.onResult(result)
		}
		next.ServeHTTP(w, r)
	})
}

// Apply computes and attaches the header set for one request path. It never
// returns an error: construction failures are absorbed into the fallback
// policy so the enclosing pipeline cannot be blocked by the gate.
func (g *Gate) Apply(h http.Header, path string) Result {
	if g.exclusions.Match(path) {
		return ResultExcluded
	}

	// Baseline floor first, so the response stays protected even if the
	// directive build below fails.
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

	csp, _, err := g.builder.Build()
	if err != nil {
		// Log the fact of failure only, and only outside production, so
		// deployment details never leak into production logs.
		if g.builder.Mode() != policy.ModeProduction {
			g.logger.Warn("policy construction failed, applying fallback", "path", path)
		}
		h.Set("Content-Security-Policy", policy.Fallback())
		return ResultFallback
	}

	h.Set("Content-Security-Policy", csp)
	if g.builder.Mode() == policy.ModeProduction {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
	return ResultFull
}
