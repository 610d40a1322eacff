package source

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

const (
	// invalidURLScore is returned for URLs without a usable host
	invalidURLScore = 0.1

	// threatFloor caps the score of any URL a threat list flags
	threatFloor = 0.1
)

// Provider produces the source_credibility signal
type Provider struct {
	table   *Table
	threat  ThreatChecker
	timeout time.Duration
}

// NewProvider creates a provider. A nil table uses DefaultTable and a nil
// checker disables threat lookups. timeout bounds each threat lookup.
func NewProvider(table *Table, threat ThreatChecker, timeout time.Duration) *Provider {
	if table == nil {
		table = DefaultTable()
	}
	return &Provider{
		table:   table,
		threat:  threat,
		timeout: timeout,
	}
}

// Signal returns the signal this producer emits
func (p *Provider) Signal() model.SignalName {
	return model.SignalSourceCredibility
}

// Evaluate scores the claim's source URL
func (p *Provider) Evaluate(ctx context.Context, claim model.Claim) model.SignalScore {
	return p.Score(ctx, claim.SourceURL)
}

// Score looks the URL's domain up in the reputation table, then lowers the
// result to the threat floor if the threat list flags the URL.
func (p *Provider) Score(ctx context.Context, rawURL string) model.SignalScore {
	domain, err := NormalizeDomain(rawURL)
	if err != nil {
		return model.DegradedSignal(invalidURLScore, fmt.Sprintf("Error: Invalid URL format (%v).", err))
	}

	score := model.NeutralScore
	var reason string
	if entry, key, ok := p.table.Lookup(domain); ok {
		score = entry.Score
		reason = entry.Reason
		if reason == "" {
			reason = fmt.Sprintf("Domain '%s' is listed in the reputation table.", domain)
		}
		if key != domain {
			reason += fmt.Sprintf(" (matched %s)", key)
		}
	} else {
		reason = fmt.Sprintf("Domain '%s' not found in reputation table. Using neutral score.", domain)
	}

	if p.threat == nil {
		return model.NewSignalScore(score, reason)
	}

	cats, err := p.checkThreat(ctx, rawURL)
	switch {
	case err != nil:
		return model.DegradedSignal(score, reason+" Threat-list lookup unavailable; score is based on the reputation table only.")
	case len(cats) > 0:
		score = math.Min(score, threatFloor)
		reason = fmt.Sprintf("DANGER! URL is flagged by the threat list (%s). %s", strings.Join(cats, ", "), reason)
	}

	return model.NewSignalScore(score, reason)
}

func (p *Provider) checkThreat(ctx context.Context, rawURL string) ([]string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	target := strings.TrimSpace(rawURL)
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}
	return p.threat.CheckThreat(ctx, target)
}
