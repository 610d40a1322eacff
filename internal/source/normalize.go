package source

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidURL is returned when a source URL has no usable host
var ErrInvalidURL = errors.New("invalid URL format")

// NormalizeDomain reduces a URL to its bare lowercase domain:
// scheme, port, trailing dot and a leading "www." are removed.
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidURL, raw)
	}
	if strings.ContainsAny(host, " \t/\\@") {
		return "", fmt.Errorf("%w: bad host %q", ErrInvalidURL, host)
	}

	return host, nil
}

// candidates lists the table keys tried for a domain, most specific first:
// the domain itself, each parent down to the registrable domain, then the
// public suffix (so "gov" or "ac.uk" entries act as institutional defaults).
func candidates(domain string) []string {
	out := []string{domain}
	if net.ParseIP(domain) != nil {
		return out
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		// domain is itself a public suffix
		return out
	}

	d := domain
	for d != registrable {
		i := strings.IndexByte(d, '.')
		if i < 0 {
			break
		}
		d = d[i+1:]
		out = append(out, d)
	}

	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix != "" && suffix != domain && suffix != registrable {
		out = append(out, suffix)
	}
	return out
}

// RegistrableDomain returns the eTLD+1 of domain, or domain itself when it has none
func RegistrableDomain(domain string) string {
	if r, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		return r
	}
	return domain
}
