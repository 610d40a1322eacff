package authenticity

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Regime is the confidence class of an authenticity assessment
type Regime int

const (
	Inconclusive Regime = iota
	Manipulated
	Authentic
)

func (r Regime) String() string {
	switch r {
	case Manipulated:
		return "manipulated"
	case Authentic:
		return "authentic"
	default:
		return "inconclusive"
	}
}

// ParseRegime converts a regime name
func ParseRegime(s string) (Regime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manipulated", "fake", "deepfake":
		return Manipulated, nil
	case "authentic", "genuine", "original":
		return Authentic, nil
	case "inconclusive", "unknown", "":
		return Inconclusive, nil
	default:
		return Inconclusive, fmt.Errorf("unknown authenticity regime %q", s)
	}
}

// Assessment is the outcome of one strategy
type Assessment struct {
	Regime    Regime
	Rationale string
}

// Strategy decides the authenticity regime of a media item
type Strategy interface {
	Assess(ctx context.Context, mediaKey string) Assessment
}

var (
	manipulationMarkers = []string{"manipulated", "deepfake", "shocking", "synthetic", "faceswap", "doctored"}
	authenticityMarkers = []string{"clean", "official", "rbi", "verified", "original"}
)

// KeywordStrategy classifies media by marker words anywhere in its file
// name. Manipulation markers take precedence.
type KeywordStrategy struct{}

// Assess implements Strategy
func (KeywordStrategy) Assess(_ context.Context, mediaKey string) Assessment {
	name := baseName(mediaKey)

	if m := firstMarker(name, manipulationMarkers); m != "" {
		return Assessment{
			Regime:    Manipulated,
			Rationale: fmt.Sprintf("HIGH RISK: strong signs of digital manipulation or deepfake artifacts (marker %q).", m),
		}
	}
	if m := firstMarker(name, authenticityMarkers); m != "" {
		return Assessment{
			Regime:    Authentic,
			Rationale: fmt.Sprintf("LOW RISK: media appears authentic with no manipulation artifacts (marker %q).", m),
		}
	}
	return Assessment{
		Regime:    Inconclusive,
		Rationale: "INCONCLUSIVE: no strong evidence of manipulation or authenticity.",
	}
}

func firstMarker(name string, markers []string) string {
	for _, m := range markers {
		if strings.Contains(name, m) {
			return m
		}
	}
	return ""
}

// ListStrategy answers from a fixed media key -> regime table
type ListStrategy struct {
	entries map[string]listEntry
}

type listEntry struct {
	Regime string `yaml:"regime"`
	Reason string `yaml:"reason"`
}

// UnmarshalYAML accepts either {regime, reason} or a bare regime name
func (e *listEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.Regime)
	}
	type plain listEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = listEntry(p)
	return nil
}

// NewListStrategy builds a list from media key -> regime name
func NewListStrategy(regimes map[string]Regime) *ListStrategy {
	l := &ListStrategy{entries: make(map[string]listEntry, len(regimes))}
	for k, r := range regimes {
		l.entries[baseName(k)] = listEntry{Regime: r.String()}
	}
	return l
}

// LoadListStrategy reads a YAML or JSON file of media key -> regime or {regime, reason}
func LoadListStrategy(file string) (*ListStrategy, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read authenticity list: %w", err)
	}

	var raw map[string]listEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse authenticity list: %w", err)
	}

	l := &ListStrategy{entries: make(map[string]listEntry, len(raw))}
	for k, e := range raw {
		if _, err := ParseRegime(e.Regime); err != nil {
			return nil, fmt.Errorf("authenticity list entry %q: %w", k, err)
		}
		l.entries[baseName(k)] = e
	}
	return l, nil
}

// Assess implements Strategy. Unlisted media is inconclusive.
func (l *ListStrategy) Assess(_ context.Context, mediaKey string) Assessment {
	e, ok := l.entries[baseName(mediaKey)]
	if !ok {
		return Assessment{Regime: Inconclusive, Rationale: "INCONCLUSIVE: media is not in the authenticity list."}
	}

	regime, _ := ParseRegime(e.Regime)
	reason := e.Reason
	if reason == "" {
		reason = fmt.Sprintf("media is listed as %s", regime)
	}
	switch regime {
	case Manipulated:
		return Assessment{Regime: regime, Rationale: "HIGH RISK: " + reason + "."}
	case Authentic:
		return Assessment{Regime: regime, Rationale: "LOW RISK: " + reason + "."}
	default:
		return Assessment{Regime: regime, Rationale: "INCONCLUSIVE: " + reason + "."}
	}
}

// ChainStrategy asks each strategy in turn; the first conclusive answer wins
type ChainStrategy []Strategy

// Assess implements Strategy
func (c ChainStrategy) Assess(ctx context.Context, mediaKey string) Assessment {
	last := Assessment{Regime: Inconclusive, Rationale: "INCONCLUSIVE: no authenticity evidence available."}
	for _, s := range c {
		a := s.Assess(ctx, mediaKey)
		if a.Regime != Inconclusive {
			return a
		}
		last = a
	}
	return last
}

func baseName(key string) string {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return strings.ToLower(path.Base(key))
}
