package authenticity

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/credence/internal/model"
)

func evaluate(d *Detector, key string) model.SignalScore {
	return d.Evaluate(context.Background(), model.Claim{Text: "t", SourceURL: "https://example.com", MediaKey: key})
}

func TestDetector_Regimes(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		key      string
		expected float64
		prefix   string
	}{
		{"deepfake_speech.mp4", ManipulatedScore, "HIGH RISK"},
		{"shocking_alien_footage.jpg", ManipulatedScore, "HIGH RISK"},
		{"Doctored-Photo.PNG", ManipulatedScore, "HIGH RISK"},
		{"official_video_clean_shot.mp4", AuthenticScore, "LOW RISK"},
		{"rbi_press_release.jpg", AuthenticScore, "LOW RISK"},
		{"old_news_fire_photo.jpg", InconclusiveScore, "INCONCLUSIVE"},
		{"IMG_2041.jpg", InconclusiveScore, "INCONCLUSIVE"},
		// Markers match inside longer names
		{"shockingclip.mp4", ManipulatedScore, "HIGH RISK"},
		{"deepfake2.jpg", ManipulatedScore, "HIGH RISK"},
		// Manipulation evidence wins
		{"official_deepfake.mp4", ManipulatedScore, "HIGH RISK"},
	}

	for _, tt := range tests {
		s := evaluate(d, tt.key)
		if s.Value != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.key, tt.expected, s.Value)
		}
		if !strings.HasPrefix(s.Rationale, tt.prefix) {
			t.Errorf("%s: expected rationale starting %q, got %q", tt.key, tt.prefix, s.Rationale)
		}
	}
}

func TestDetector_RegimesDistinguishable(t *testing.T) {
	if !(ManipulatedScore < 0.3) {
		t.Errorf("Manipulated score %v must be below 0.3", ManipulatedScore)
	}
	if !(AuthenticScore > 0.9) {
		t.Errorf("Authentic score %v must be above 0.9", AuthenticScore)
	}
	if InconclusiveScore <= ManipulatedScore || InconclusiveScore >= AuthenticScore {
		t.Errorf("Inconclusive score %v must sit between the other regimes", InconclusiveScore)
	}
}

func TestDetector_NoMedia(t *testing.T) {
	d := NewDetector(nil)
	for _, key := range []string{"", "none"} {
		s := evaluate(d, key)
		if s.Value != InconclusiveScore || !s.Degraded {
			t.Errorf("Expected degraded inconclusive score for %q, got %+v", key, s)
		}
	}
}

func TestChainStrategy(t *testing.T) {
	list := NewListStrategy(map[string]Regime{
		"press_photo.jpg":    Manipulated,
		"official_leak.jpg":  Manipulated,
		"unlisted_clean.jpg": Inconclusive,
	})
	d := NewDetector(ChainStrategy{list, KeywordStrategy{}})

	if s := evaluate(d, "uploads/press_photo.jpg"); s.Value != ManipulatedScore {
		t.Errorf("Expected list answer to win, got %v", s.Value)
	}
	if s := evaluate(d, "official_leak.jpg"); s.Value != ManipulatedScore {
		t.Errorf("Expected list to override keyword evidence, got %v", s.Value)
	}
	if s := evaluate(d, "unlisted_clean.jpg"); s.Value != AuthenticScore {
		t.Errorf("Expected keyword fallback after inconclusive list entry, got %v", s.Value)
	}
	if s := evaluate(d, "random.jpg"); s.Value != InconclusiveScore {
		t.Errorf("Expected inconclusive, got %v", s.Value)
	}

	empty := NewDetector(ChainStrategy{})
	if s := evaluate(empty, "x.jpg"); s.Value != InconclusiveScore {
		t.Errorf("Expected inconclusive for empty chain, got %v", s.Value)
	}
}

func TestLoadListStrategy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authenticity.yaml")
	content := `
riot_photo.jpg: manipulated
briefing.mp4:
  regime: authentic
  reason: verified against the broadcaster's archive
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := LoadListStrategy(path)
	if err != nil {
		t.Fatalf("LoadListStrategy failed: %v", err)
	}

	a := list.Assess(context.Background(), "riot_photo.jpg")
	if a.Regime != Manipulated {
		t.Errorf("Expected manipulated, got %v", a.Regime)
	}
	a = list.Assess(context.Background(), "briefing.mp4")
	if a.Regime != Authentic || !strings.Contains(a.Rationale, "broadcaster") {
		t.Errorf("Unexpected assessment: %+v", a)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("x.jpg: suspicious\n"), 0644)
	if _, err := LoadListStrategy(bad); err == nil {
		t.Error("Expected error for unknown regime")
	}
}

func TestParseRegime(t *testing.T) {
	for _, s := range []string{"manipulated", "Authentic", " inconclusive "} {
		r, err := ParseRegime(s)
		if err != nil {
			t.Errorf("ParseRegime(%q) failed: %v", s, err)
		}
		if r.String() != strings.ToLower(strings.TrimSpace(s)) {
			t.Errorf("Round trip of %q gave %q", s, r.String())
		}
	}
}
