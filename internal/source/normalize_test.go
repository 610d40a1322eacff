package source

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		desc     string
		raw      string
		expected string
	}{
		{"https with www", "https://www.reuters.com/latest-market-update-report", "reuters.com"},
		{"http with path", "http://bunkerville.com/secret-file-exposed", "bunkerville.com"},
		{"no scheme", "www.bbc.co.uk/news", "bbc.co.uk"},
		{"port", "https://example.com:8443/a", "example.com"},
		{"uppercase", "HTTPS://WWW.NYTimes.com", "nytimes.com"},
		{"trailing dot", "https://apnews.com./article", "apnews.com"},
		{"subdomain kept", "https://uk.reuters.com/x", "uk.reuters.com"},
		{"www only as prefix", "https://wwwexample.com", "wwwexample.com"},
		{"surrounding space", "  https://who.int  ", "who.int"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := NormalizeDomain(tt.raw)
			if err != nil {
				t.Fatalf("NormalizeDomain(%q) failed: %v", tt.raw, err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeDomain(%q) = %q, expected %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestNormalizeDomain_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "http://", "https:///path-only", "http://bad host.com"} {
		if _, err := NormalizeDomain(raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Expected ErrInvalidURL for %q, got %v", raw, err)
		}
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		domain   string
		expected []string
	}{
		{"reuters.com", []string{"reuters.com", "com"}},
		{"uk.reuters.com", []string{"uk.reuters.com", "reuters.com", "com"}},
		{"news.bbc.co.uk", []string{"news.bbc.co.uk", "bbc.co.uk", "co.uk"}},
		{"www2.cdc.gov", []string{"www2.cdc.gov", "cdc.gov", "gov"}},
		{"127.0.0.1", []string{"127.0.0.1"}},
	}

	for _, tt := range tests {
		got := candidates(tt.domain)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("candidates(%q) = %v, expected %v", tt.domain, got, tt.expected)
		}
	}
}

func TestRegistrableDomain(t *testing.T) {
	if got := RegistrableDomain("a.b.example.co.uk"); got != "example.co.uk" {
		t.Errorf("Expected example.co.uk, got %s", got)
	}
	if got := RegistrableDomain("com"); got != "com" {
		t.Errorf("Expected a bare suffix to be returned unchanged, got %s", got)
	}
}
