package mediacontext

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/lexicon"
	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/media"
	"github.com/ppiankov/credence/internal/model"
)

const (
	// reusePenalty multiplies the score when the media has been seen before
	reusePenalty = 0.4

	scoreSupported   = 0.85 // caption supports every sensational term
	scoreOneMismatch = 0.5
	scoreMismatch    = 0.2 // two or more unsupported terms
)

// MediaSource loads media content for a key
type MediaSource interface {
	Resolve(ctx context.Context, key string) (*media.Media, error)
}

// Verifier produces the image_context signal
type Verifier struct {
	describer llm.Describer
	source    MediaSource
	reuse     *ReuseIndex
	timeout   time.Duration
}

// NewVerifier creates a verifier. A nil describer behaves as offline, a nil
// source sends caption requests with the key only, and a nil index uses
// name heuristics alone.
func NewVerifier(describer llm.Describer, source MediaSource, reuse *ReuseIndex, timeout time.Duration) *Verifier {
	if describer == nil {
		describer = llm.OfflineDescriber{}
	}
	if reuse == nil {
		reuse = NewReuseIndex(nil)
	}
	return &Verifier{
		describer: describer,
		source:    source,
		reuse:     reuse,
		timeout:   timeout,
	}
}

// Signal returns the signal this producer emits
func (v *Verifier) Signal() model.SignalName {
	return model.SignalImageContext
}

// Evaluate scores the claim's media against its text
func (v *Verifier) Evaluate(ctx context.Context, claim model.Claim) model.SignalScore {
	if !claim.HasMedia() {
		return model.DegradedSignal(model.NeutralScore, "No media supplied; image context could not be assessed. Using neutral score.")
	}

	key := strings.TrimSpace(claim.MediaKey)
	score, rationale, degraded := v.captionScore(ctx, key, claim.Text)

	if reused, why := v.reuse.Check(key); reused {
		score *= reusePenalty
		rationale = fmt.Sprintf("SUSPECT: %s; likely out of context. %s", why, rationale)
	}

	if degraded {
		return model.DegradedSignal(score, rationale)
	}
	return model.NewSignalScore(score, rationale)
}

// captionScore compares the media description with sensational claim terms.
// Any failure yields the neutral score, flagged as degraded.
func (v *Verifier) captionScore(ctx context.Context, key, text string) (float64, string, bool) {
	req := llm.DescribeRequest{MediaKey: key}

	// Some describers work from the key alone, so a load failure only matters if captioning fails too
	var loadErr error
	if v.source != nil {
		if m, err := v.source.Resolve(ctx, key); err == nil {
			req.Data = m.Data
			req.ContentType = m.ContentType
		} else {
			loadErr = err
		}
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	resp, err := v.describer.Describe(ctx, req)
	if err != nil {
		switch {
		case errors.Is(loadErr, media.ErrNotFound):
			return model.NeutralScore, fmt.Sprintf("Media file '%s' not found; context could not be verified. Using neutral score.", key), true
		case loadErr != nil:
			return model.NeutralScore, fmt.Sprintf("Media '%s' could not be loaded (%v); context could not be verified. Using neutral score.", key, loadErr), true
		case errors.Is(err, llm.ErrUnavailable):
			return model.NeutralScore, "Caption service unavailable; context could not be verified. Using neutral score.", true
		default:
			return model.NeutralScore, fmt.Sprintf("Caption service failed (%v); context could not be verified. Using neutral score.", err), true
		}
	}

	unsupported := Unsupported(text, resp.Caption)
	score := mismatchScore(len(unsupported))

	if len(unsupported) == 0 {
		return score, fmt.Sprintf("Media description %q is consistent with the claim.", resp.Caption), false
	}
	return score, fmt.Sprintf("Media description %q does not support the claim's sensational terms: %s.",
		resp.Caption, strings.Join(unsupported, ", ")), false
}

// Unsupported returns the sensational terms of text that the caption does not mention
func Unsupported(text, caption string) []string {
	described := make(map[string]bool)
	for _, tok := range lexicon.Tokens(caption) {
		described[tok] = true
	}

	var out []string
	for _, term := range lexicon.ContextualTerms(text) {
		if !described[term] {
			out = append(out, term)
		}
	}
	return out
}

func mismatchScore(unsupported int) float64 {
	switch {
	case unsupported >= 2:
		return scoreMismatch
	case unsupported == 1:
		return scoreOneMismatch
	default:
		return scoreSupported
	}
}
