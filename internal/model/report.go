package model

// Verdict is the discrete credibility label derived from a fused score
type Verdict string

const (
	VerdictHighlyCredible    Verdict = "Highly Credible"
	VerdictMediumCredibility Verdict = "Medium Credibility (Watchful)"
	VerdictLowCredibility    Verdict = "Low Credibility (Suspect)"
	VerdictMisinformation    Verdict = "High Probability of Misinformation"
)

// Rank orders verdicts from least (0) to most (3) credible
func (v Verdict) Rank() int {
	switch v {
	case VerdictHighlyCredible:
		return 3
	case VerdictMediumCredibility:
		return 2
	case VerdictLowCredibility:
		return 1
	default:
		return 0
	}
}

// FusionResult is the combined score and its verdict
type FusionResult struct {
	Score   float64 `json:"score"`
	Verdict Verdict `json:"label"`
}

// Contribution documents how much one signal moved the fused score
type Contribution struct {
	Signal       SignalName `json:"signal"`
	Value        float64    `json:"value"`
	Weight       float64    `json:"weight"`       // Configured weight
	Share        float64    `json:"share"`        // Weight / sum of weights present
	Contribution float64    `json:"contribution"` // Share * Value
}

// Findings holds the human-readable rationale of each signal
type Findings struct {
	SourceCheck       string `json:"source_check"`
	ToneCheck         string `json:"tone_check"`
	ImageContextCheck string `json:"image_context_check"`
	DeepfakeCheck     string `json:"deepfake_check"`
}

// Report is the complete output of one analysis
type Report struct {
	ClaimText string `json:"claim_text"`
	SourceURL string `json:"source_url"`
	MediaKey  string `json:"media_key,omitempty"`

	Verdict FusionResult `json:"verdict"`

	RawScores map[SignalName]float64     `json:"raw_scores"` // Value per signal, keyed by name
	Signals   map[SignalName]SignalScore `json:"signals"`    // Full per-signal results
	Findings  Findings                   `json:"findings"`

	Contributions []Contribution `json:"contributions,omitempty"` // Fusion breakdown (transparency only)
}

// Claim returns the claim the report was computed for
func (r Report) Claim() Claim {
	return Claim{Text: r.ClaimText, SourceURL: r.SourceURL, MediaKey: r.MediaKey}
}

// DegradedSignals lists signals that were computed under a fallback policy, in report order
func (r Report) DegradedSignals() []SignalName {
	var out []SignalName
	for _, name := range allSignals {
		if s, ok := r.Signals[name]; ok && s.Degraded {
			out = append(out, name)
		}
	}
	return out
}

// FindingsFrom maps per-signal rationales onto the Findings layout
func FindingsFrom(signals map[SignalName]SignalScore) Findings {
	return Findings{
		SourceCheck:       signals[SignalSourceCredibility].Rationale,
		ToneCheck:         signals[SignalTextTone].Rationale,
		ImageContextCheck: signals[SignalImageContext].Rationale,
		DeepfakeCheck:     signals[SignalDeepfakeAuthenticity].Rationale,
	}
}
