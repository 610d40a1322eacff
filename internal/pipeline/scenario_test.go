package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/credence/internal/model"
)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Context.MediaDir = t.TempDir()
	return cfg
}

func buildAnalyzer(t *testing.T, cfg *model.Config) *Analyzer {
	t.Helper()
	a, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return a
}

var (
	scenarioA = model.Claim{
		Text:      "SHOCKING NEW VIDEO shows government cover-up of alien contact! MUST WATCH!",
		SourceURL: "http://bunkerville.com/secret-file-exposed",
		MediaKey:  "old_news_fire_photo.jpg",
	}
	scenarioB = model.Claim{
		Text:      "The Federal Reserve released its quarterly economic report, noting a 3% growth in regional consumer spending.",
		SourceURL: "https://www.reuters.com/latest-market-update-report",
		MediaKey:  "official_video_clean_shot.mp4",
	}
)

func TestScenario_Misinformation(t *testing.T) {
	a := buildAnalyzer(t, testConfig(t))

	report, err := a.RunAnalysis(context.Background(), scenarioA)
	if err != nil {
		t.Fatalf("RunAnalysis failed: %v", err)
	}

	if v := report.RawScores[model.SignalSourceCredibility]; v > 0.3 {
		t.Errorf("expected low source credibility, got %v", v)
	}
	if v := report.RawScores[model.SignalTextTone]; v > 0.4 {
		t.Errorf("expected low tone credibility, got %v", v)
	}
	if v := report.RawScores[model.SignalImageContext]; v > 0.25 {
		t.Errorf("expected reuse penalty on image context, got %v", v)
	}
	if report.Verdict.Score >= 0.40 {
		t.Errorf("expected fused score < 0.40, got %v", report.Verdict.Score)
	}
	if report.Verdict.Verdict != model.VerdictMisinformation {
		t.Errorf("expected %q, got %q", model.VerdictMisinformation, report.Verdict.Verdict)
	}
}

func TestScenario_Credible(t *testing.T) {
	a := buildAnalyzer(t, testConfig(t))

	report, err := a.RunAnalysis(context.Background(), scenarioB)
	if err != nil {
		t.Fatalf("RunAnalysis failed: %v", err)
	}

	if v := report.RawScores[model.SignalSourceCredibility]; v < 0.9 {
		t.Errorf("expected high source credibility, got %v", v)
	}
	if v := report.RawScores[model.SignalTextTone]; v < 0.8 {
		t.Errorf("expected high tone credibility, got %v", v)
	}
	if v := report.RawScores[model.SignalDeepfakeAuthenticity]; v != 0.95 {
		t.Errorf("expected authentic media score 0.95, got %v", v)
	}
	if report.Verdict.Score < 0.80 {
		t.Errorf("expected fused score >= 0.80, got %v", report.Verdict.Score)
	}
	if report.Verdict.Verdict != model.VerdictHighlyCredible {
		t.Errorf("expected %q, got %q", model.VerdictHighlyCredible, report.Verdict.Verdict)
	}
}

func TestScenario_Idempotent(t *testing.T) {
	a := buildAnalyzer(t, testConfig(t))

	for _, claim := range []model.Claim{scenarioA, scenarioB} {
		first, err := a.RunAnalysis(context.Background(), claim)
		if err != nil {
			t.Fatal(err)
		}
		second, err := a.RunAnalysis(context.Background(), claim)
		if err != nil {
			t.Fatal(err)
		}

		if first.Verdict != second.Verdict {
			t.Errorf("verdict changed between runs: %+v vs %+v", first.Verdict, second.Verdict)
		}
		for name, v := range first.RawScores {
			if second.RawScores[name] != v {
				t.Errorf("%s changed between runs: %v vs %v", name, v, second.RawScores[name])
			}
		}
	}
}

func TestScenario_StaticCaptionsAndReferenceFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cfg := testConfig(t)
	cfg.Source.ReputationFile = write("sources.yaml", "dailyfacts.example: {score: 0.9, reason: Local paper of record.}\n")
	cfg.Source.Threat.Provider = "static"
	cfg.Source.Threat.BlocklistFile = write("blocklist.txt", "scam.example MALWARE\n")
	cfg.Context.Describer.Provider = "static"
	cfg.Context.Describer.CaptionsFile = write("captions.yaml", "harbor.jpg: A quiet harbor with moored fishing boats.\n")
	cfg.Authenticity.ListFile = write("authenticity.yaml", "harbor.jpg: manipulated\n")

	a := buildAnalyzer(t, cfg)

	report, err := a.RunAnalysis(context.Background(), model.Claim{
		Text:      "Harbor reopens after repairs",
		SourceURL: "https://news.dailyfacts.example/harbor",
		MediaKey:  "harbor.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}

	if v := report.RawScores[model.SignalSourceCredibility]; v != 0.9 {
		t.Errorf("expected reputation file score 0.9, got %v", v)
	}
	if s := report.Signals[model.SignalImageContext]; s.Degraded || s.Value != 0.85 {
		t.Errorf("expected supported caption score 0.85, got %+v", s)
	}
	if v := report.RawScores[model.SignalDeepfakeAuthenticity]; v != 0.2 {
		t.Errorf("expected listed manipulation score 0.2, got %v", v)
	}

	flagged, err := a.RunAnalysis(context.Background(), model.Claim{Text: "Free prize", SourceURL: "https://scam.example/win"})
	if err != nil {
		t.Fatal(err)
	}
	if v := flagged.RawScores[model.SignalSourceCredibility]; v > 0.1 {
		t.Errorf("expected blocklisted domain to score <= 0.1, got %v", v)
	}
}

func TestBuild_ConfigErrors(t *testing.T) {
	tests := []struct {
		desc   string
		mutate func(*model.Config)
	}{
		{"all zero weights", func(c *model.Config) { c.Fusion.Weights = map[string]float64{"text_tone": 0} }},
		{"unknown weight", func(c *model.Config) { c.Fusion.Weights = map[string]float64{"virality": 1} }},
		{"unknown threat provider", func(c *model.Config) { c.Source.Threat.Provider = "virustotal" }},
		{"safebrowsing without key", func(c *model.Config) { c.Source.Threat.Provider = "safebrowsing" }},
		{"static threat without file", func(c *model.Config) { c.Source.Threat.Provider = "static" }},
		{"unknown caption provider", func(c *model.Config) { c.Context.Describer.Provider = "gemini" }},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := Build(cfg, nil)
			if !errors.Is(err, model.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBuild_MissingReferenceFilesFallBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.ReputationFile = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.Context.ReuseFile = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.Authenticity.ListFile = filepath.Join(t.TempDir(), "missing.yaml")

	a := buildAnalyzer(t, cfg)
	report, err := a.RunAnalysis(context.Background(), scenarioB)
	if err != nil {
		t.Fatal(err)
	}
	if report.Verdict.Verdict != model.VerdictHighlyCredible {
		t.Errorf("expected built-in defaults to still rate scenario B credible, got %q", report.Verdict.Verdict)
	}
}
