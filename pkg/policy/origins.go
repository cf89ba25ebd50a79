package policy

import (
	"net"
	"net/url"
	"strings"
)

// ParseTrustedOrigins splits a comma-separated configuration value into an
// ordered list of origins. Entries are trimmed, empties dropped and
// duplicates removed preserving first-seen order.
func ParseTrustedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var origins []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		origins = append(origins, entry)
	}
	return origins
}

// MergeConnectSources builds the connect-src allow-list as the ordered
// union of 'self', the configured API origin and the trusted origins.
// Duplicates and empty entries are removed, first-seen order preserved.
func MergeConnectSources(apiOrigin string, trustedOrigins []string) []string {
	seen := map[string]struct{}{"'self'": {}}
	merged := []string{"'self'"}

	appendOrigin := func(origin string) {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return
		}
		if _, dup := seen[origin]; dup {
			return
		}
		seen[origin] = struct{}{}
		merged = append(merged, origin)
	}

	appendOrigin(apiOrigin)
	for _, origin := range trustedOrigins {
		appendOrigin(origin)
	}
	return merged
}

// IsLoopbackOrigin reports whether the configured origin points at a
// loopback address. In production this is a misconfiguration signal worth
// logging, not an error.
func IsLoopbackOrigin(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return false
	}

	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
