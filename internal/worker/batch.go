package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// maxLineBytes bounds one JSON Lines record
const maxLineBytes = 1 << 20

// Analyzer runs the full credibility analysis for one claim
type Analyzer interface {
	RunAnalysis(ctx context.Context, claim model.Claim) (model.Report, error)
}

// ClaimJob analyzes one claim from a batch
type ClaimJob struct {
	Index    int
	Claim    model.Claim
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute waits for the claim's publisher bucket and runs the analysis
func (j *ClaimJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Claim.SourceURL); err != nil {
			return &ClaimResult{Index: j.Index, Claim: j.Claim, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	report, err := j.Analyzer.RunAnalysis(ctx, j.Claim)
	if err != nil {
		return &ClaimResult{Index: j.Index, Claim: j.Claim, Error: err}
	}
	return &ClaimResult{Index: j.Index, Claim: j.Claim, Report: &report}
}

// ClaimResult is the outcome of one batch entry
type ClaimResult struct {
	Index  int
	Claim  model.Claim
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many claims concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	onResult    func(*ClaimResult)
}

// NewBatchProcessor creates a batch processor. limiter may be nil. onResult,
// when set, is called from the collecting goroutine as each claim finishes.
func NewBatchProcessor(analyzer Analyzer, concurrency int, limiter *Limiter, onResult func(*ClaimResult)) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
		onResult:    onResult,
	}
}

// ProcessClaims analyzes claims and returns results in input order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.Claim) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, claim := range claims {
			job := &ClaimJob{
				Index:    i,
				Claim:    claim,
				Analyzer: b.analyzer,
				Limiter:  b.limiter,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	results := make([]*ClaimResult, 0, len(claims))
	for r := range pool.Results() {
		cr := r.(*ClaimResult)
		if b.onResult != nil {
			b.onResult(cr)
		}
		results = append(results, cr)
	}

	// Claims never started because the context ended are reported too
	if len(results) < len(claims) {
		done := make(map[int]bool, len(results))
		for _, r := range results {
			done[r.Index] = true
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		for i, claim := range claims {
			if !done[i] {
				results = append(results, &ClaimResult{Index: i, Claim: claim, Error: err})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads claims from a JSON Lines file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads one JSON claim object per line. Blank lines and
// lines starting with # are skipped, and exact duplicates are dropped.
func ReadClaimsFromFile(filePath string) ([]model.Claim, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []model.Claim
	seen := make(map[model.Claim]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())

		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var claim model.Claim
		if err := json.Unmarshal(line, &claim); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		claim.Text = strings.TrimSpace(claim.Text)
		claim.SourceURL = strings.TrimSpace(claim.SourceURL)
		claim.MediaKey = strings.TrimSpace(claim.MediaKey)

		if !seen[claim] {
			seen[claim] = true
			claims = append(claims, claim)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
