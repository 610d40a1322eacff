package tone

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ppiankov/credence/internal/lexicon"
	"github.com/ppiankov/credence/internal/model"
)

// Component weights of the sensationalism measure. They sum to 1.
const (
	keywordWeight     = 0.40
	emotionWeight     = 0.25
	capsWeight        = 0.20
	exclamationWeight = 0.15

	// saturation is the number of occurrences at which a component reaches its maximum
	saturation = 3.0

	// minCapsLetters is the minimum word length counted as shouting
	minCapsLetters = 3
)

// Indicators are the raw counts the sensationalism measure is computed from
type Indicators struct {
	AlarmistKeywords int `json:"alarmist_keywords"`
	EmotiveWords     int `json:"emotive_words"`
	CapsWords        int `json:"caps_words"`
	Exclamations     int `json:"exclamations"`
}

// Total returns the number of sensational indicators detected
func (i Indicators) Total() int {
	return i.AlarmistKeywords + i.EmotiveWords + i.CapsWords + i.Exclamations
}

// Analysis is the result of measuring one text
type Analysis struct {
	Sensationalism float64    `json:"sensationalism"` // 1.0 = highly sensational
	Indicators     Indicators `json:"indicators"`
}

// Analyzer produces the text_tone signal
type Analyzer struct{}

// NewAnalyzer creates a new tone analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Signal returns the signal this producer emits
func (a *Analyzer) Signal() model.SignalName {
	return model.SignalTextTone
}

// Evaluate scores the claim text
func (a *Analyzer) Evaluate(_ context.Context, claim model.Claim) model.SignalScore {
	return a.Score(claim.Text)
}

// Score returns credibility = 1 - sensationalism for text
func (a *Analyzer) Score(text string) model.SignalScore {
	if strings.TrimSpace(text) == "" {
		return model.DegradedSignal(model.NeutralScore, "No text supplied; tone could not be assessed. Using neutral score.")
	}

	analysis := a.Measure(text)
	return model.NewSignalScore(1-analysis.Sensationalism, rationale(analysis))
}

// Measure computes the sensationalism of text. Every component is a
// non-decreasing function of a count, so adding sensational material never
// lowers the result.
func (a *Analyzer) Measure(text string) Analysis {
	var ind Indicators

	for _, tok := range lexicon.Tokens(text) {
		if lexicon.IsAlarmist(tok) {
			ind.AlarmistKeywords++
		}
		if lexicon.IsEmotive(tok) {
			ind.EmotiveWords++
		}
	}
	for _, w := range lexicon.RawWords(text) {
		if isShouted(w) {
			ind.CapsWords++
		}
	}
	ind.Exclamations = strings.Count(text, "!")

	s := keywordWeight*saturate(ind.AlarmistKeywords) +
		emotionWeight*saturate(ind.EmotiveWords) +
		capsWeight*saturate(ind.CapsWords) +
		exclamationWeight*saturate(ind.Exclamations)

	return Analysis{
		Sensationalism: model.Clamp(s),
		Indicators:     ind,
	}
}

func saturate(count int) float64 {
	return math.Min(float64(count)/saturation, 1)
}

// isShouted reports whether a word is written entirely in capitals
func isShouted(word string) bool {
	letters := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= minCapsLetters
}

func rationale(a Analysis) string {
	var band string
	switch s := a.Sensationalism; {
	case s > 0.8:
		band = "Tone is EXTREMELY POLARIZED. This often suggests sensationalism or strong bias."
	case s > 0.5:
		band = "Tone is strongly opinionated (polarized). Caution advised regarding emotional appeals."
	case s > 0.2:
		band = "Tone shows mild polarity, but remains largely objective."
	default:
		band = "Tone is NEUTRAL and OBJECTIVE. No significant sensationalism detected."
	}

	if a.Indicators.Total() == 0 {
		return band
	}
	i := a.Indicators
	return fmt.Sprintf("%s (sensationalism %.2f: %d alarmist keywords, %d emotive words, %d all-caps words, %d exclamations)",
		band, a.Sensationalism, i.AlarmistKeywords, i.EmotiveWords, i.CapsWords, i.Exclamations)
}
