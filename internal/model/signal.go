package model

import (
	"fmt"
	"math"
)

// NeutralScore is the fallback credibility value used whenever a signal cannot be computed
const NeutralScore = 0.5

// SignalName identifies one of the fixed credibility signals
type SignalName string

const (
	SignalSourceCredibility    SignalName = "source_credibility"    // Reputation of the publishing domain
	SignalTextTone             SignalName = "text_tone"             // Inverse of text sensationalism
	SignalImageContext         SignalName = "image_context"         // Media used in its original context
	SignalDeepfakeAuthenticity SignalName = "deepfake_authenticity" // Media free of manipulation
)

var allSignals = []SignalName{
	SignalSourceCredibility,
	SignalTextTone,
	SignalImageContext,
	SignalDeepfakeAuthenticity,
}

// AllSignals returns every recognized signal name in report order
func AllSignals() []SignalName {
	out := make([]SignalName, len(allSignals))
	copy(out, allSignals)
	return out
}

// Valid reports whether n is one of the recognized signal names
func (n SignalName) Valid() bool {
	for _, s := range allSignals {
		if s == n {
			return true
		}
	}
	return false
}

// ParseSignalName converts a string into a SignalName, rejecting unknown names
func ParseSignalName(s string) (SignalName, error) {
	n := SignalName(s)
	if !n.Valid() {
		return "", fmt.Errorf("unknown signal name %q", s)
	}
	return n, nil
}

// SignalScore is the normalized output of a signal producer.
// Value is in credibility polarity: 1.0 is maximally credible, 0.0 is not.
type SignalScore struct {
	Value     float64 `json:"value"`
	Rationale string  `json:"rationale"`
	Degraded  bool    `json:"degraded,omitempty"` // Computed under a fallback policy
}

// NewSignalScore builds a score with Value clamped into [0, 1]
func NewSignalScore(value float64, rationale string) SignalScore {
	return SignalScore{Value: Clamp(value), Rationale: rationale}
}

// DegradedSignal builds a score produced under a fallback policy
func DegradedSignal(value float64, rationale string) SignalScore {
	return SignalScore{Value: Clamp(value), Rationale: rationale, Degraded: true}
}

// Clamp restricts v to [0, 1]. NaN maps to NeutralScore.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return math.Max(0, math.Min(1, v))
}
