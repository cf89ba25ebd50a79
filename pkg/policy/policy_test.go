package policy

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input       string
		expected    Mode
		expectError bool
	}{
		{"development", ModeDevelopment, false},
		{"dev", ModeDevelopment, false},
		{"", ModeDevelopment, false},
		{"production", ModeProduction, false},
		{"prod", ModeProduction, false},
		{"PRODUCTION", ModeProduction, false},
		{"  production  ", ModeProduction, false},
		{"staging", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, mode)
			}
		})
	}
}

func TestDirectiveSetSerialize(t *testing.T) {
	var ds DirectiveSet
	ds.Add("default-src", "'self'")
	ds.Add("script-src", "'self'", "  'strict-dynamic'  ")
	ds.Add("upgrade-insecure-requests")

	got := ds.Serialize()
	want := "default-src 'self'; script-src 'self' 'strict-dynamic'; upgrade-insecure-requests"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDirectiveSetDropsEmptySources(t *testing.T) {
	var ds DirectiveSet
	ds.Add("connect-src", "'self'", "", "   ", "https://a.com")

	got := ds.Serialize()
	want := "connect-src 'self' https://a.com"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuildProduction(t *testing.T) {
	b := NewBuilder(ModeProduction, "https://api.example.com",
		[]string{"https://a.com", "https://b.com"}, FixedNonceSource("abc123"))

	csp, nonce, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nonce != "abc123" {
		t.Errorf("expected fixed nonce, got %q", nonce)
	}

	for _, want := range []string{
		"default-src 'self'",
		"script-src 'self' 'nonce-abc123' 'strict-dynamic'",
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com",
		"img-src 'self' data: blob: https:",
		"font-src 'self' https://fonts.gstatic.com",
		"connect-src 'self' https://api.example.com https://a.com https://b.com",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"upgrade-insecure-requests",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("production policy missing %q in %q", want, csp)
		}
	}

	for _, forbidden := range []string{"'unsafe-eval'", "script-src 'self' 'unsafe-inline'"} {
		if strings.Contains(csp, forbidden) {
			t.Errorf("production policy must not contain %q", forbidden)
		}
	}
}

func TestBuildDevelopment(t *testing.T) {
	b := NewBuilder(ModeDevelopment, "https://api.example.com", nil, nil)

	csp, nonce, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nonce != "" {
		t.Errorf("development build should not draw a nonce, got %q", nonce)
	}

	for _, want := range []string{
		"script-src 'self' 'unsafe-inline' 'unsafe-eval'",
		"connect-src 'self' http://localhost:* http://127.0.0.1:* https://api.example.com",
		"object-src 'none'",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("development policy missing %q in %q", want, csp)
		}
	}

	if strings.Contains(csp, "upgrade-insecure-requests") {
		t.Error("development policy must not force upgrade-insecure-requests")
	}
	if strings.Contains(csp, "nonce-") {
		t.Error("development policy must not carry a nonce")
	}
}

func TestBuildDeterministicWithFixedNonce(t *testing.T) {
	b := NewBuilder(ModeProduction, "https://api.example.com",
		[]string{"https://a.com"}, FixedNonceSource("fixed"))

	first, _, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("expected byte-identical policies, got %q vs %q", first, second)
	}
}

func TestBuildNonceFailure(t *testing.T) {
	b := NewBuilder(ModeProduction, "https://api.example.com", nil, failingNonceSource{})

	if _, _, err := b.Build(); err == nil {
		t.Fatal("expected error from failing nonce source")
	}
}

func TestFallback(t *testing.T) {
	csp := Fallback()

	for _, want := range []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"connect-src 'self'",
		"object-src 'none'",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("fallback policy missing %q in %q", want, csp)
		}
	}

	for _, forbidden := range []string{"https:", "nonce-", "'unsafe-eval'", "'strict-dynamic'"} {
		if strings.Contains(csp, forbidden) {
			t.Errorf("fallback policy must not contain %q", forbidden)
		}
	}
}

// **Property-based tests**

func TestSerializationIdempotenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		origin := rapid.StringMatching(`^https://[a-z]{3,8}\.com$`).Draw(t, "origin")
		trusted := rapid.SliceOfN(rapid.StringMatching(`^https://[a-z]{3,8}\.org$`), 0, 5).Draw(t, "trusted")
		nonce := rapid.StringMatching(`^[A-Za-z0-9+/]{22}==$`).Draw(t, "nonce")

		b := NewBuilder(ModeProduction, origin, ParseTrustedOrigins(strings.Join(trusted, ",")), FixedNonceSource(nonce))

		first, _, err := b.Build()
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		second, _, err := b.Build()
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if first != second {
			t.Errorf("policy not deterministic for fixed inputs")
		}
	})
}

func TestConnectSourcesNeverDuplicateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		origin := rapid.StringMatching(`^https://[a-z]{3,8}\.com$`).Draw(t, "origin")
		trusted := rapid.SliceOfN(rapid.SampledFrom([]string{
			"https://a.com", "https://b.com", "https://c.com", origin, "",
		}), 0, 10).Draw(t, "trusted")

		merged := MergeConnectSources(origin, trusted)

		seen := make(map[string]struct{}, len(merged))
		for _, src := range merged {
			if src == "" {
				t.Errorf("merged allow-list contains empty entry")
			}
			if _, dup := seen[src]; dup {
				t.Errorf("merged allow-list contains duplicate %q", src)
			}
			seen[src] = struct{}{}
		}

		if merged[0] != "'self'" {
			t.Errorf("allow-list must start with 'self', got %q", merged[0])
		}
	})
}
