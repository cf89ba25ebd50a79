// Package i18n resolves nested message key paths to localized strings.
package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeyError describes a lookup that failed to resolve to a string.
type KeyError struct {
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("message key %q: %s", e.Key, e.Reason)
}

// Catalog is an immutable set of localized messages loaded at startup.
// Lookups resolve dot-separated paths through nested maps.
type Catalog struct {
	messages map[string]any
}

// LoadCatalog reads a YAML message file of nested maps.
func LoadCatalog(path string) (*Catalog, error) {
	//nolint:gosec // Message file path is controlled by admin/operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from raw YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	messages := make(map[string]any)
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	return &Catalog{messages: messages}, nil
}

// Lookup resolves a dot-separated key path ("nav.settings.title") to its
// localized string. Every key a consumer uses is expected to exist in the
// loaded set; a missing or non-string node returns a KeyError.
func (c *Catalog) Lookup(key string) (string, error) {
	node := any(c.messages)
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", &KeyError{Key: key, Reason: "path descends through a non-map node"}
		}
		node, ok = m[part]
		if !ok {
			return "", &KeyError{Key: key, Reason: fmt.Sprintf("segment %q not found", part)}
		}
	}

	s, ok := node.(string)
	if !ok {
		return "", &KeyError{Key: key, Reason: "path terminates on a non-string node"}
	}
	return s, nil
}

// Flatten returns every key path and its message, sorted by key. Used to
// serve the full message set to UI consumers.
func (c *Catalog) Flatten() map[string]string {
	flat := make(map[string]string)
	flatten("", c.messages, flat)
	return flat
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		}
	}
}

// Keys returns all resolvable key paths in sorted order.
func (c *Catalog) Keys() []string {
	flat := c.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
