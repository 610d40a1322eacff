package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
)

type stubAnalyzer struct {
	err    error
	claims []model.Claim
}

func (s *stubAnalyzer) RunAnalysis(_ context.Context, claim model.Claim) (model.Report, error) {
	s.claims = append(s.claims, claim)
	if s.err != nil {
		return model.Report{}, s.err
	}
	if strings.TrimSpace(claim.Text) == "" {
		return model.Report{}, fmt.Errorf("%w: claim text is empty", pipeline.ErrInvalidInput)
	}
	return model.Report{
		ClaimText: claim.Text,
		SourceURL: claim.SourceURL,
		Verdict:   model.FusionResult{Score: 0.85, Verdict: model.VerdictHighlyCredible},
		RawScores: map[model.SignalName]float64{model.SignalTextTone: 1},
	}, nil
}

type stubEnricher struct{ err error }

func (e stubEnricher) EnrichClaim(_ context.Context, claim model.Claim) (model.Claim, error) {
	if e.err != nil {
		return claim, e.err
	}
	claim.Text = "Headline from page"
	return claim, nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingRecorder) ObserveRequest(route string, code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[fmt.Sprintf("%s %d", route, code)]++
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := New(&stubAnalyzer{}, Options{Logger: quietLogger()})

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated request ID")
	}
}

func TestAnalyze_Success(t *testing.T) {
	analyzer := &stubAnalyzer{}
	srv := New(analyzer, Options{Logger: quietLogger()})

	rec := doRequest(t, srv, http.MethodPost, "/v1/analyze",
		`{"text": "Rainfall above average", "source_url": "https://reuters.com/x", "media_key": "none"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var report model.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Verdict.Verdict != model.VerdictHighlyCredible {
		t.Errorf("unexpected verdict %q", report.Verdict.Verdict)
	}
	if len(analyzer.claims) != 1 || analyzer.claims[0].MediaKey != "none" {
		t.Errorf("claim not passed through: %+v", analyzer.claims)
	}
}

func TestAnalyze_RequestIDPropagated(t *testing.T) {
	srv := New(&stubAnalyzer{}, Options{Logger: quietLogger()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected caller request ID, got %q", got)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		desc     string
		analyzer *stubAnalyzer
		opts     Options
		body     string
		expected int
	}{
		{"malformed json", &stubAnalyzer{}, Options{}, `{"text":`, http.StatusBadRequest},
		{"unknown field", &stubAnalyzer{}, Options{}, `{"text": "a", "source_url": "b", "extra": 1}`, http.StatusBadRequest},
		{"invalid input", &stubAnalyzer{}, Options{}, `{"text": "", "source_url": "https://a.com"}`, http.StatusBadRequest},
		{"analyzer failure", &stubAnalyzer{err: errors.New("boom")}, Options{}, `{"text": "a", "source_url": "b"}`, http.StatusInternalServerError},
		{"fetch disabled", &stubAnalyzer{}, Options{}, `{"source_url": "https://a.com", "fetch": true}`, http.StatusBadRequest},
		{"fetch failed", &stubAnalyzer{}, Options{Enricher: stubEnricher{err: errors.New("unexpected status: 503")}}, `{"source_url": "https://a.com", "fetch": true}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			tt.opts.Logger = quietLogger()
			srv := New(tt.analyzer, tt.opts)

			rec := doRequest(t, srv, http.MethodPost, "/v1/analyze", tt.body)
			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestAnalyze_Fetch(t *testing.T) {
	analyzer := &stubAnalyzer{}
	srv := New(analyzer, Options{Enricher: stubEnricher{}, Logger: quietLogger()})

	rec := doRequest(t, srv, http.MethodPost, "/v1/analyze", `{"source_url": "https://a.com/story", "fetch": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if analyzer.claims[0].Text != "Headline from page" {
		t.Errorf("expected enriched claim, got %+v", analyzer.claims[0])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := New(&stubAnalyzer{}, Options{Logger: quietLogger()})

	rec := doRequest(t, srv, http.MethodGet, "/v1/analyze", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestMetricsRouteAndRecorder(t *testing.T) {
	recorder := &countingRecorder{}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "credence_analyses_total 0\n")
	})
	srv := New(&stubAnalyzer{}, Options{Recorder: recorder, MetricsHandler: metrics, Logger: quietLogger()})

	rec := doRequest(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "credence_analyses_total") {
		t.Fatalf("unexpected metrics response %d %q", rec.Code, rec.Body.String())
	}

	doRequest(t, srv, http.MethodPost, "/v1/analyze", `{"text": "a", "source_url": "b"}`)
	doRequest(t, srv, http.MethodGet, "/nope", "")

	for _, key := range []string{"GET /metrics 200", "POST /v1/analyze 200", "unmatched 404"} {
		if recorder.counts[key] != 1 {
			t.Errorf("expected one %q request, got %v", key, recorder.counts)
		}
	}
}

func TestNoMetricsRouteWithoutHandler(t *testing.T) {
	srv := New(&stubAnalyzer{}, Options{Logger: quietLogger()})

	rec := doRequest(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
