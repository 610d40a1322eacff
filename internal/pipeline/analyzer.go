package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/score"
)

// ErrInvalidInput is returned when a claim lacks text or a source URL
var ErrInvalidInput = errors.New("invalid input")

// Producer computes one signal for a claim. Evaluate never fails: faults are
// reported as degraded scores.
type Producer interface {
	Signal() model.SignalName
	Evaluate(ctx context.Context, claim model.Claim) model.SignalScore
}

// Observer is notified after each analysis
type Observer interface {
	ObserveSignal(name model.SignalName, s model.SignalScore, elapsed time.Duration)
	ObserveReport(r model.Report, elapsed time.Duration)
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger used for degraded-signal warnings
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithObserver registers an analysis observer, such as a metrics recorder
func WithObserver(o Observer) Option {
	return func(a *Analyzer) {
		if o != nil {
			a.observers = append(a.observers, o)
		}
	}
}

// Analyzer runs analyses. It holds no per-request state and is safe for
// concurrent use.
type Analyzer struct {
	engine    *score.Engine
	producers []Producer // report order
	observers []Observer
	logger    *slog.Logger
}

// NewAnalyzer creates an orchestrator. producers must contain exactly one
// producer for every signal name.
func NewAnalyzer(engine *score.Engine, producers []Producer, opts ...Option) (*Analyzer, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: fusion engine is nil", score.ErrInvalidConfig)
	}

	byName := make(map[model.SignalName]Producer, len(producers))
	for _, p := range producers {
		if p == nil {
			return nil, fmt.Errorf("%w: nil producer", score.ErrInvalidConfig)
		}
		name := p.Signal()
		if !name.Valid() {
			return nil, fmt.Errorf("%w: producer for unknown signal %q", score.ErrInvalidConfig, name)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate producer for %s", score.ErrInvalidConfig, name)
		}
		byName[name] = p
	}

	a := &Analyzer{
		engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, name := range model.AllSignals() {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: no producer for %s", score.ErrInvalidConfig, name)
		}
		a.producers = append(a.producers, p)
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

type signalOutcome struct {
	name    model.SignalName
	score   model.SignalScore
	elapsed time.Duration
}

// RunAnalysis produces the credibility report for claim. It fails only when
// the claim text or source URL is empty; every other fault degrades a signal.
func (a *Analyzer) RunAnalysis(ctx context.Context, claim model.Claim) (model.Report, error) {
	if strings.TrimSpace(claim.Text) == "" {
		return model.Report{}, fmt.Errorf("%w: claim text is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(claim.SourceURL) == "" {
		return model.Report{}, fmt.Errorf("%w: source URL is empty", ErrInvalidInput)
	}

	start := time.Now()
	outcomes := make([]signalOutcome, len(a.producers))

	var wg sync.WaitGroup
	for i, p := range a.producers {
		wg.Add(1)
		go func(i int, p Producer) {
			defer wg.Done()
			t0 := time.Now()
			s := a.evaluate(ctx, p, claim)
			outcomes[i] = signalOutcome{name: p.Signal(), score: s, elapsed: time.Since(t0)}
		}(i, p)
	}
	wg.Wait()

	raw := make(map[model.SignalName]float64, len(outcomes))
	signals := make(map[model.SignalName]model.SignalScore, len(outcomes))
	for _, o := range outcomes {
		raw[o.name] = o.score.Value
		signals[o.name] = o.score

		if o.score.Degraded {
			a.logger.Warn("signal degraded",
				"signal", string(o.name),
				"value", o.score.Value,
				"rationale", o.score.Rationale,
			)
		}
	}

	report := model.Report{
		ClaimText:     claim.Text,
		SourceURL:     claim.SourceURL,
		MediaKey:      claim.MediaKey,
		Verdict:       a.engine.Fuse(raw),
		RawScores:     raw,
		Signals:       signals,
		Findings:      model.FindingsFrom(signals),
		Contributions: a.engine.Contributions(raw),
	}

	elapsed := time.Since(start)
	a.logger.Debug("analysis complete",
		"source_url", claim.SourceURL,
		"score", report.Verdict.Score,
		"verdict", string(report.Verdict.Verdict),
		"elapsed", elapsed,
	)
	for _, obs := range a.observers {
		for _, o := range outcomes {
			obs.ObserveSignal(o.name, o.score, o.elapsed)
		}
		obs.ObserveReport(report, elapsed)
	}

	return report, nil
}

// evaluate runs one producer, turning a panic into a degraded neutral score
func (a *Analyzer) evaluate(ctx context.Context, p Producer, claim model.Claim) (s model.SignalScore) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("signal producer panicked", "signal", string(p.Signal()), "panic", fmt.Sprint(r))
			s = model.DegradedSignal(model.NeutralScore,
				fmt.Sprintf("Internal error while computing %s; using neutral score.", p.Signal()))
		}
	}()

	s = p.Evaluate(ctx, claim)
	s.Value = model.Clamp(s.Value)
	return s
}
