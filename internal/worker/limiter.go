package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/credence/internal/source"
)

// invalidBucket collects claims whose source URL has no usable host
const invalidBucket = "invalid"

// Limiter paces work per publisher. Subdomains share the bucket of their
// registrable domain, so news.example.com and example.com are one publisher.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until the publisher of rawURL may be contacted again
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	return l.getLimiter(publisherKey(rawURL)).Wait(ctx)
}

// Allow reports whether the publisher of rawURL may be contacted now
func (l *Limiter) Allow(rawURL string) bool {
	return l.getLimiter(publisherKey(rawURL)).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// SetDomainRate overrides the rate for one publisher
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[publisherKey(domain)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// publisherKey maps a URL or bare domain to its rate-limit bucket
func publisherKey(rawURL string) string {
	domain, err := source.NormalizeDomain(rawURL)
	if err != nil {
		return invalidBucket
	}
	return source.RegistrableDomain(domain)
}
