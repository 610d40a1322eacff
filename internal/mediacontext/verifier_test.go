package mediacontext

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/media"
	"github.com/ppiankov/credence/internal/model"
)

const sensationalText = "SHOCKING NEW VIDEO shows government cover-up of alien contact! MUST WATCH!"

type fixedDescriber struct {
	caption string
	err     error
	delay   time.Duration
	gotData int
}

func (f *fixedDescriber) Name() string { return "fixed" }

func (f *fixedDescriber) Describe(ctx context.Context, req llm.DescribeRequest) (*llm.DescribeResponse, error) {
	f.gotData = len(req.Data)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.DescribeResponse{Caption: f.caption}, nil
}

func claim(text, key string) model.Claim {
	return model.Claim{Text: text, SourceURL: "https://example.com", MediaKey: key}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestVerifier_NoMedia(t *testing.T) {
	v := NewVerifier(&fixedDescriber{caption: "x"}, nil, nil, 0)

	for _, key := range []string{"", "none", "NONE", "  "} {
		s := v.Evaluate(context.Background(), claim(sensationalText, key))
		if s.Value != model.NeutralScore || !s.Degraded {
			t.Errorf("Expected degraded neutral score for media key %q, got %+v", key, s)
		}
	}
}

func TestVerifier_CaptionMismatch(t *testing.T) {
	tests := []struct {
		desc     string
		text     string
		caption  string
		expected float64
	}{
		{"no sensational terms", "Crowds gathered at the square.", "A crowd in a square.", scoreSupported},
		{"terms supported", "The secret is out", "A sign reading secret.", scoreSupported},
		{"one unsupported", "A shocking scene at the square.", "A crowd in a square.", scoreOneMismatch},
		{"many unsupported", sensationalText, "A building on fire at night.", scoreMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			v := NewVerifier(&fixedDescriber{caption: tt.caption}, nil, nil, 0)
			s := v.Evaluate(context.Background(), claim(tt.text, "press_photo.jpg"))
			if !near(s.Value, tt.expected) {
				t.Errorf("Expected %v, got %v (%s)", tt.expected, s.Value, s.Rationale)
			}
			if s.Degraded {
				t.Error("Successful caption comparison should not be degraded")
			}
		})
	}
}

func TestVerifier_ReusePenalty(t *testing.T) {
	v := NewVerifier(&fixedDescriber{caption: "A crowd in a square."}, nil, nil, 0)

	fresh := v.Evaluate(context.Background(), claim("Crowds gathered.", "press_photo.jpg"))
	reused := v.Evaluate(context.Background(), claim("Crowds gathered.", "old_press_photo.jpg"))

	if !near(reused.Value, fresh.Value*reusePenalty) {
		t.Errorf("Expected reuse to multiply by %v: fresh=%v reused=%v", reusePenalty, fresh.Value, reused.Value)
	}
	if !strings.HasPrefix(reused.Rationale, "SUSPECT") {
		t.Errorf("Expected suspect rationale, got %q", reused.Rationale)
	}
}

func TestVerifier_ScenarioWithoutDescriber(t *testing.T) {
	v := NewVerifier(nil, nil, nil, 0)

	s := v.Evaluate(context.Background(), claim(sensationalText, "old_news_fire_photo.jpg"))
	if !near(s.Value, model.NeutralScore*reusePenalty) {
		t.Errorf("Expected %v, got %v", model.NeutralScore*reusePenalty, s.Value)
	}
	if !s.Degraded {
		t.Error("Expected degraded signal without a caption service")
	}
	if !strings.Contains(s.Rationale, "unavailable") {
		t.Errorf("Expected rationale to mention the unavailable service, got %q", s.Rationale)
	}

	s = v.Evaluate(context.Background(), claim("Quarterly report.", "official_video_clean_shot.mp4"))
	if s.Value != model.NeutralScore {
		t.Errorf("Expected neutral score, got %v", s.Value)
	}
}

func TestVerifier_Monotonic(t *testing.T) {
	v := NewVerifier(&fixedDescriber{caption: "A street at night."}, nil, nil, 0)

	texts := []string{
		"Police closed the street.",
		"Police closed the street in a shocking move.",
		"Police closed the street in a shocking cover-up.",
		"Police closed the street in a shocking secret cover-up. MUST see the truth.",
	}

	for _, key := range []string{"street.jpg", "stock_street.jpg"} {
		prev := 2.0
		for _, text := range texts {
			s := v.Evaluate(context.Background(), claim(text, key))
			if s.Value > prev {
				t.Errorf("Score increased for %q with %s: %v > %v", text, key, s.Value, prev)
			}
			prev = s.Value
		}
	}
}

func TestVerifier_Deterministic(t *testing.T) {
	v := NewVerifier(&fixedDescriber{caption: "A building on fire."}, nil, nil, 0)
	c := claim(sensationalText, "old_news_fire_photo.jpg")

	first := v.Evaluate(context.Background(), c)
	for i := 0; i < 20; i++ {
		if got := v.Evaluate(context.Background(), c); got != first {
			t.Fatalf("Evaluation %d differed: %+v vs %+v", i, got, first)
		}
	}
}

func TestVerifier_DescriberFailureDegrades(t *testing.T) {
	tests := []struct {
		desc string
		d    llm.Describer
	}{
		{"unavailable", &fixedDescriber{err: llm.ErrUnavailable}},
		{"error", &fixedDescriber{err: errors.New("HTTP 500")}},
		{"timeout", &fixedDescriber{caption: "late", delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			v := NewVerifier(tt.d, nil, nil, 20*time.Millisecond)
			s := v.Evaluate(context.Background(), claim(sensationalText, "photo.jpg"))
			if s.Value != model.NeutralScore || !s.Degraded {
				t.Errorf("Expected degraded neutral score, got %+v", s)
			}
		})
	}
}

func TestVerifier_WithResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "photo.png"), []byte("\x89PNG\r\n\x1a\nrest"), 0644); err != nil {
		t.Fatal(err)
	}
	resolver := media.NewResolver(media.Options{Dir: dir})

	d := &fixedDescriber{caption: "A quiet street."}
	v := NewVerifier(d, resolver, nil, 0)

	s := v.Evaluate(context.Background(), claim("A quiet street.", "photo.png"))
	if s.Degraded || !near(s.Value, scoreSupported) {
		t.Errorf("Expected supported caption, got %+v", s)
	}
	if d.gotData == 0 {
		t.Error("Expected media content to be passed to the describer")
	}

	failing := NewVerifier(&fixedDescriber{err: llm.ErrUnavailable}, resolver, nil, 0)
	s = failing.Evaluate(context.Background(), claim("A quiet street.", "missing.png"))
	if !s.Degraded || !strings.Contains(s.Rationale, "not found") {
		t.Errorf("Expected not-found rationale, got %+v", s)
	}

	// Key-only describers still answer when the file is missing
	static := llm.NewStaticDescriber(map[string]string{"missing.png": "A quiet street."})
	s = NewVerifier(static, resolver, nil, 0).Evaluate(context.Background(), claim("A quiet street.", "missing.png"))
	if s.Degraded {
		t.Errorf("Expected static caption to be used, got %+v", s)
	}
}

func TestUnsupported(t *testing.T) {
	got := Unsupported(sensationalText, "A video of a government press conference about a cover-up inquiry.")
	expected := []string{"shocking", "must"}
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
