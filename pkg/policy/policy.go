// Package policy builds Content-Security-Policy directive sets for the
// request gate. Construction is pure and deterministic: for a fixed mode,
// configuration and nonce the serialized policy is byte-identical across
// calls.
package policy

import (
	"fmt"
	"strings"
)

// Mode is the deployment mode the policy is built for. It is resolved once
// at process start and never changes for the life of a request.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ParseMode normalizes a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", string(ModeDevelopment), "dev":
		return ModeDevelopment, nil
	case string(ModeProduction), "prod":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("invalid mode %q, supported modes: development, production", s)
	}
}

// directive is one named rule paired with its allowed source list.
type directive struct {
	name    string
	sources []string
}

// DirectiveSet is an ordered mapping from directive name to source list.
// Directives serialize in insertion order so the output is deterministic.
type DirectiveSet struct {
	directives []directive
}

// Add appends a directive. Source entries are whitespace-collapsed and
// empty entries dropped; a directive with no sources (e.g.
// upgrade-insecure-requests) is valid.
func (ds *DirectiveSet) Add(name string, sources ...string) {
	cleaned := make([]string, 0, len(sources))
	for _, src := range sources {
		src = strings.Join(strings.Fields(src), " ")
		if src != "" {
			cleaned = append(cleaned, src)
		}
	}
	ds.directives = append(ds.directives, directive{name: name, sources: cleaned})
}

// Serialize renders the directive set as a single header value with
// directives separated by "; ".
func (ds *DirectiveSet) Serialize() string {
	parts := make([]string, 0, len(ds.directives))
	for _, d := range ds.directives {
		if len(d.sources) == 0 {
			parts = append(parts, d.name)
			continue
		}
		parts = append(parts, d.name+" "+strings.Join(d.sources, " "))
	}
	return strings.Join(parts, "; ")
}

// Builder assembles the environment-specific directive set. All inputs are
// fixed at construction; only the nonce varies per request.
type Builder struct {
	mode           Mode
	apiOrigin      string
	trustedOrigins []string
	nonces         NonceSource
}

// NewBuilder creates a policy builder for the given mode and origin
// configuration. The trusted origin list should already be parsed and
// deduplicated (see ParseTrustedOrigins). A nil nonce source defaults to
// the crypto/rand-backed one.
func NewBuilder(mode Mode, apiOrigin string, trustedOrigins []string, nonces NonceSource) *Builder {
	if nonces == nil {
		nonces = CryptoNonceSource{}
	}
	return &Builder{
		mode:           mode,
		apiOrigin:      apiOrigin,
		trustedOrigins: trustedOrigins,
		nonces:         nonces,
	}
}

// Mode reports the mode the builder was constructed with.
func (b *Builder) Mode() Mode { return b.mode }

// Build assembles and serializes the directive set for one request. In
// production it draws a fresh nonce from the nonce source; the returned
// nonce is empty in development mode.
func (b *Builder) Build() (csp string, nonce string, err error) {
	if b.mode == ModeProduction {
		nonce, err = b.nonces.Nonce()
		if err != nil {
			return "", "", fmt.Errorf("generate nonce: %w", err)
		}
		return b.buildProduction(nonce), nonce, nil
	}
	return b.buildDevelopment(), "", nil
}

func (b *Builder) buildProduction(nonce string) string {
	connect := MergeConnectSources(b.apiOrigin, b.trustedOrigins)

	var ds DirectiveSet
	ds.Add("default-src", "'self'")
	ds.Add("script-src", "'self'", fmt.Sprintf("'nonce-%s'", nonce), "'strict-dynamic'")
	ds.Add("style-src", "'self'", "'unsafe-inline'", "https://fonts.googleapis.com")
	ds.Add("img-src", "'self'", "data:", "blob:", "https:")
	ds.Add("font-src", "'self'", "https://fonts.gstatic.com")
	ds.Add("connect-src", connect...)
	ds.Add("object-src", "'none'")
	ds.Add("base-uri", "'self'")
	ds.Add("form-action", "'self'")
	ds.Add("upgrade-insecure-requests")
	return ds.Serialize()
}

func (b *Builder) buildDevelopment() string {
	// Loopback wildcards keep local dev servers (HMR, API stubs) reachable.
	connect := MergeConnectSources(b.apiOrigin, b.trustedOrigins)
	devConnect := append([]string{"'self'", "http://localhost:*", "http://127.0.0.1:*"}, connect[1:]...)

	var ds DirectiveSet
	ds.Add("default-src", "'self'")
	ds.Add("script-src", "'self'", "'unsafe-inline'", "'unsafe-eval'")
	ds.Add("style-src", "'self'", "'unsafe-inline'", "https://fonts.googleapis.com")
	ds.Add("img-src", "'self'", "data:", "blob:", "https:")
	ds.Add("font-src", "'self'", "https://fonts.gstatic.com")
	ds.Add("connect-src", devConnect...)
	ds.Add("object-src", "'none'")
	ds.Add("base-uri", "'self'")
	ds.Add("form-action", "'self'")
	return ds.Serialize()
}

// Fallback returns the hard-coded minimal policy attached when normal
// construction fails: every category restricted to 'self', inline styles
// permitted. It is strictly more conservative than either full policy.
func Fallback() string {
	var ds DirectiveSet
	ds.Add("default-src", "'self'")
	ds.Add("script-src", "'self'")
	ds.Add("style-src", "'self'", "'unsafe-inline'")
	ds.Add("img-src", "'self'")
	ds.Add("font-src", "'self'")
	ds.Add("connect-src", "'self'")
	ds.Add("object-src", "'none'")
	ds.Add("base-uri", "'self'")
	ds.Add("form-action", "'self'")
	return ds.Serialize()
}
