// Package branding resolves the application branding payload served to UI
// consumers. When the backing source is unavailable the resolver degrades
// to a documented default payload instead of failing.
package branding

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Payload is the branding document consumers receive.
type Payload struct {
	Title   string `yaml:"title" json:"title"`
	IconURL string `yaml:"icon_url" json:"iconUrl"`
}

// DefaultPayload is returned whenever the configured source cannot be read
// or parsed.
func DefaultPayload() Payload {
	return Payload{
		Title:   "Pagefort",
		IconURL: "/static/icon.svg",
	}
}

// Resolver resolves the current branding payload.
type Resolver interface {
	Resolve(ctx context.Context) (Payload, error)
}

// StaticResolver always returns the same payload. Used when no branding
// file is configured.
type StaticResolver struct {
	payload Payload
}

// NewStaticResolver creates a resolver pinned to the given payload.
func NewStaticResolver(payload Payload) *StaticResolver {
	return &StaticResolver{payload: payload}
}

// Resolve returns the pinned payload.
func (r *StaticResolver) Resolve(context.Context) (Payload, error) {
	return r.payload, nil
}

// FileResolver serves a branding payload loaded from a YAML file, cached in
// memory. Reload is triggered externally (see Watcher) or by calling
// Reload directly.
type FileResolver struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	payload Payload
}

// NewFileResolver loads the initial payload from path. A missing or
// malformed file is not an error: the resolver starts with the default
// payload and logs the degradation.
func NewFileResolver(path string, logger *slog.Logger) *FileResolver {
	if logger == nil {
		logger = slog.Default()
	}

	r := &FileResolver{
		path:    path,
		logger:  logger,
		payload: DefaultPayload(),
	}
	if err := r.Reload(); err != nil {
		logger.Warn("branding source unavailable, using default payload",
			"path", path, "error", err,
		)
	}
	return r
}

// Resolve returns the cached payload.
func (r *FileResolver) Resolve(context.Context) (Payload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.payload, nil
}

// Reload re-reads the backing file. On failure the previously cached
// payload stays in place and the error is returned for logging.
func (r *FileResolver) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	payload := DefaultPayload()
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return err
	}

	r.mu.Lock()
	r.payload = payload
	r.mu.Unlock()
	return nil
}
