package authenticity

import (
	"context"

	"github.com/ppiankov/credence/internal/model"
)

// Regime scores. Callers can tell the three regimes apart from the value alone.
const (
	ManipulatedScore  = 0.2
	AuthenticScore    = 0.95
	InconclusiveScore = 0.7
)

// Detector produces the deepfake_authenticity signal
type Detector struct {
	strategy Strategy
}

// NewDetector creates a detector. A nil strategy uses KeywordStrategy.
func NewDetector(strategy Strategy) *Detector {
	if strategy == nil {
		strategy = KeywordStrategy{}
	}
	return &Detector{strategy: strategy}
}

// Signal returns the signal this producer emits
func (d *Detector) Signal() model.SignalName {
	return model.SignalDeepfakeAuthenticity
}

// Evaluate assesses the claim's media
func (d *Detector) Evaluate(ctx context.Context, claim model.Claim) model.SignalScore {
	if !claim.HasMedia() {
		return model.DegradedSignal(InconclusiveScore, "INCONCLUSIVE: no media supplied; authenticity could not be assessed.")
	}

	a := d.strategy.Assess(ctx, claim.MediaKey)
	return model.NewSignalScore(RegimeScore(a.Regime), a.Rationale)
}

// RegimeScore maps a regime to its fixed score
func RegimeScore(r Regime) float64 {
	switch r {
	case Manipulated:
		return ManipulatedScore
	case Authentic:
		return AuthenticScore
	default:
		return InconclusiveScore
	}
}
