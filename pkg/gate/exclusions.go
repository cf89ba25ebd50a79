package gate

import "strings"

// PathExclusions decides which request paths bypass the gate entirely.
// Matching is case-sensitive: a path is excluded when it falls under any
// configured prefix or equals any configured literal path.
type PathExclusions struct {
	prefixes []string
	literals map[string]struct{}
}

// NewPathExclusions builds a matcher from configured prefixes and literal
// paths. Empty entries are ignored.
func NewPathExclusions(prefixes, literals []string) *PathExclusions {
	pe := &PathExclusions{literals: make(map[string]struct{}, len(literals))}
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p != "" {
			pe.prefixes = append(pe.prefixes, p)
		}
	}
	for _, l := range literals {
		l = strings.TrimSpace(l)
		if l != "" {
			pe.literals[l] = struct{}{}
		}
	}
	return pe
}

// Match reports whether the path bypasses the gate.
func (pe *PathExclusions) Match(path string) bool {
	if _, ok := pe.literals[path]; ok {
		return true
	}
	for _, prefix := range pe.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
