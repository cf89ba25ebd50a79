package policy

import (
	"reflect"
	"testing"
)

func TestParseTrustedOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single", "https://a.com", []string{"https://a.com"}},
		{"trims entries", " https://a.com , https://b.com ", []string{"https://a.com", "https://b.com"}},
		{"drops empties", "https://a.com,,https://b.com,", []string{"https://a.com", "https://b.com"}},
		{"dedups first-seen", "https://a.com, https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTrustedOrigins(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestMergeConnectSources(t *testing.T) {
	got := MergeConnectSources("https://api.example.com",
		ParseTrustedOrigins("https://a.com, https://a.com, https://b.com"))

	want := []string{"'self'", "https://api.example.com", "https://a.com", "https://b.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMergeConnectSourcesSkipsDuplicateAPIOrigin(t *testing.T) {
	got := MergeConnectSources("https://a.com", []string{"https://a.com", "https://b.com"})

	want := []string{"'self'", "https://a.com", "https://b.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMergeConnectSourcesEmptyOrigin(t *testing.T) {
	got := MergeConnectSources("", nil)

	want := []string{"'self'"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIsLoopbackOrigin(t *testing.T) {
	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost:8080", true},
		{"http://LOCALHOST:8080", true},
		{"http://127.0.0.1:3000", true},
		{"http://127.8.4.2", true},
		{"http://[::1]:8080", true},
		{"https://api.example.com", false},
		{"https://10.0.0.1", false},
		{"", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := IsLoopbackOrigin(tt.origin); got != tt.expected {
				t.Errorf("IsLoopbackOrigin(%q) = %v, expected %v", tt.origin, got, tt.expected)
			}
		})
	}
}
