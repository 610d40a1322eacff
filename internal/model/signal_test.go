package model

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3.2, 1},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
		{math.NaN(), NeutralScore},
	}

	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.expected {
			t.Errorf("Clamp(%v) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}

func TestNewSignalScore_Clamps(t *testing.T) {
	s := NewSignalScore(1.7, "too high")
	if s.Value != 1 {
		t.Errorf("Expected value clamped to 1, got %v", s.Value)
	}
	if s.Degraded {
		t.Error("Expected NewSignalScore not to be degraded")
	}

	d := DegradedSignal(-1, "service down")
	if d.Value != 0 || !d.Degraded {
		t.Errorf("Expected degraded score 0, got %+v", d)
	}
}

func TestParseSignalName(t *testing.T) {
	for _, name := range AllSignals() {
		got, err := ParseSignalName(string(name))
		if err != nil {
			t.Errorf("ParseSignalName(%q) failed: %v", name, err)
		}
		if got != name {
			t.Errorf("Expected %q, got %q", name, got)
		}
	}

	if _, err := ParseSignalName("virality"); err == nil {
		t.Error("Expected error for unknown signal name")
	}
}

func TestAllSignals_ReturnsCopy(t *testing.T) {
	names := AllSignals()
	if len(names) != 4 {
		t.Fatalf("Expected 4 signals, got %d", len(names))
	}
	names[0] = "mutated"
	if AllSignals()[0] != SignalSourceCredibility {
		t.Error("AllSignals must not expose internal state")
	}
}

func TestClaim_HasMedia(t *testing.T) {
	tests := []struct {
		key      string
		expected bool
	}{
		{"", false},
		{"   ", false},
		{"none", false},
		{"NONE", false},
		{"photo.jpg", true},
	}

	for _, tt := range tests {
		c := Claim{Text: "x", SourceURL: "https://example.com", MediaKey: tt.key}
		if got := c.HasMedia(); got != tt.expected {
			t.Errorf("HasMedia(%q) = %v, expected %v", tt.key, got, tt.expected)
		}
	}
}

func TestReport_DegradedSignals(t *testing.T) {
	r := Report{
		Signals: map[SignalName]SignalScore{
			SignalSourceCredibility:    NewSignalScore(0.9, "ok"),
			SignalTextTone:             DegradedSignal(0.5, "empty"),
			SignalImageContext:         DegradedSignal(0.5, "no describer"),
			SignalDeepfakeAuthenticity: NewSignalScore(0.7, "inconclusive"),
		},
	}

	got := r.DegradedSignals()
	if len(got) != 2 || got[0] != SignalTextTone || got[1] != SignalImageContext {
		t.Errorf("Unexpected degraded signals: %v", got)
	}
}

func TestVerdict_Rank(t *testing.T) {
	ordered := []Verdict{VerdictMisinformation, VerdictLowCredibility, VerdictMediumCredibility, VerdictHighlyCredible}
	for i, v := range ordered {
		if v.Rank() != i {
			t.Errorf("Expected rank %d for %q, got %d", i, v, v.Rank())
		}
	}
}
