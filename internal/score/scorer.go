package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/credence/internal/model"
)

// ErrInvalidConfig is returned when weights or thresholds are malformed
var ErrInvalidConfig = model.ErrInvalidConfig

// Weights maps each signal to its fusion weight
type Weights map[model.SignalName]float64

// Thresholds are the inclusive lower bounds of the upper three verdict bins
type Thresholds struct {
	High   float64
	Medium float64
	Low    float64
}

// DefaultThresholds returns the standard 0.80/0.60/0.40 boundaries
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.80, Medium: 0.60, Low: 0.40}
}

// DefaultWeights returns the standard four-signal weight table
func DefaultWeights() Weights {
	w, _ := WeightsFromConfig(model.DefaultWeights())
	return w
}

// WeightsFromConfig converts string-keyed weights into a Weights table
func WeightsFromConfig(raw map[string]float64) (Weights, error) {
	w := make(Weights, len(raw))
	for k, v := range raw {
		name, err := model.ParseSignalName(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		w[name] = v
	}
	return w, nil
}

// Engine fuses signal scores into a single credibility score and verdict.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights    Weights
	thresholds Thresholds
}

// NewEngine validates the weight table and thresholds and returns an engine
func NewEngine(weights Weights, thresholds Thresholds) (*Engine, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: weight table is empty", ErrInvalidConfig)
	}

	copied := make(Weights, len(weights))
	positive := false
	for name, w := range weights {
		if !name.Valid() {
			return nil, fmt.Errorf("%w: unknown signal %q in weight table", ErrInvalidConfig, name)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight for %s must be a non-negative number, got %v", ErrInvalidConfig, name, w)
		}
		if w > 0 {
			positive = true
		}
		copied[name] = w
	}
	if !positive {
		return nil, fmt.Errorf("%w: at least one weight must be positive", ErrInvalidConfig)
	}

	t := thresholds
	if !(0 <= t.Low && t.Low < t.Medium && t.Medium < t.High && t.High <= 1) {
		return nil, fmt.Errorf("%w: thresholds must satisfy 0 <= low < medium < high <= 1 (got %v/%v/%v)",
			ErrInvalidConfig, t.Low, t.Medium, t.High)
	}

	return &Engine{weights: copied, thresholds: thresholds}, nil
}

// NewEngineFromConfig builds an engine from the fusion section of the config
func NewEngineFromConfig(cfg model.FusionConfig) (*Engine, error) {
	weights, err := WeightsFromConfig(cfg.Weights)
	if err != nil {
		return nil, err
	}
	return NewEngine(weights, Thresholds{
		High:   cfg.Thresholds.High,
		Medium: cfg.Thresholds.Medium,
		Low:    cfg.Thresholds.Low,
	})
}

// Weight returns the configured weight for a signal (0 when absent)
func (e *Engine) Weight(name model.SignalName) float64 {
	return e.weights[name]
}

// Fuse computes sum(weight*score)/sum(weight) over the recognized signals present.
// Names without a configured weight and NaN values are ignored. With no
// recognized signal the neutral score is returned. The result never leaves
// the range of its inputs, so equal inputs fuse to exactly that value.
func (e *Engine) Fuse(scores map[model.SignalName]float64) model.FusionResult {
	sumScore, sumWeight := 0.0, 0.0
	lo, hi := 1.0, 0.0
	for name, v := range scores {
		w, ok := e.weights[name]
		if !ok || math.IsNaN(v) {
			continue
		}
		v = model.Clamp(v)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		sumScore += w * v
		sumWeight += w
	}

	fused := model.NeutralScore
	if sumWeight > 0 {
		fused = math.Max(lo, math.Min(hi, sumScore/sumWeight))
	}

	return model.FusionResult{
		Score:   fused,
		Verdict: e.Verdict(fused),
	}
}

// Verdict maps a score onto its bin; each bin includes its lower bound
func (e *Engine) Verdict(score float64) model.Verdict {
	switch {
	case score >= e.thresholds.High:
		return model.VerdictHighlyCredible
	case score >= e.thresholds.Medium:
		return model.VerdictMediumCredibility
	case score >= e.thresholds.Low:
		return model.VerdictLowCredibility
	default:
		return model.VerdictMisinformation
	}
}

// Contributions explains a fusion: one entry per weighted signal present, in report order
func (e *Engine) Contributions(scores map[model.SignalName]float64) []model.Contribution {
	sumWeight := 0.0
	for name, v := range scores {
		if w, ok := e.weights[name]; ok && !math.IsNaN(v) {
			sumWeight += w
		}
	}
	if sumWeight == 0 {
		return nil
	}

	var out []model.Contribution
	for _, name := range model.AllSignals() {
		v, ok := scores[name]
		w, weighted := e.weights[name]
		if !ok || !weighted || math.IsNaN(v) {
			continue
		}
		share := w / sumWeight
		out = append(out, model.Contribution{
			Signal:       name,
			Value:        model.Clamp(v),
			Weight:       w,
			Share:        share,
			Contribution: share * model.Clamp(v),
		})
	}
	return out
}
