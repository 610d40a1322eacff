package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/logging"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
	"github.com/ppiankov/credence/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	claimTimeout time.Duration
	batchRPS     float64
	batchBurst   int
	// ua, no-cache, no-footer, caption-provider and media-dir share the analyze variables
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many claims from a JSON Lines file in parallel",
	Long: `Batch analyzes claims concurrently:
- Read claims from a JSON Lines file, one {"text", "source_url", "media_key"} object per line
- Analyze claims in parallel with a configurable worker count
- Pace claims from the same publisher with a per-domain rate limit
- Write a JSON and a Markdown report for each claim

Example:
  credence batch claims.jsonl
  credence batch claims.jsonl --concurrency 8 --output-dir ./reports
  credence batch claims.jsonl --rps 1 --burst 2 --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./credence-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().DurationVar(&claimTimeout, "claim-timeout", 2*time.Minute, "timeout for each claim")
	batchCmd.Flags().Float64Var(&batchRPS, "rps", 0, "claims per second per publisher (default: rate_limiting.requests_per_second)")
	batchCmd.Flags().IntVar(&batchBurst, "burst", 0, "burst per publisher (default: rate_limiting.burst_size)")

	// Shared with analyze
	batchCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (overrides http.user_agent)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh lookups)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().StringVar(&captionProvider, "caption-provider", "", "caption provider (none, openai, anthropic, ollama, static)")
	batchCmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory holding local media files")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if cmd.Flags().Changed("rps") {
		cfg.RateLimiting.RequestsPerSecond = batchRPS
	}
	if cmd.Flags().Changed("burst") {
		cfg.RateLimiting.BurstSize = batchBurst
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Credence Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Rate limit:   %.2f/s per publisher (burst %d)\n", cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	analyzer, err := pipeline.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	reported := make(map[int]bool)
	writeFailed := make(map[int]bool)

	onResult := func(result *worker.ClaimResult) {
		reported[result.Index] = true
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ #%d %s: %v\n", result.Index+1, result.Claim.SourceURL, result.Error)
			return
		}

		slug := reportSlug(result.Index, result.Claim)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			writeFailed[result.Index] = true
			fmt.Fprintf(os.Stderr, "✗ #%d %s: failed to write JSON: %v\n", result.Index+1, result.Claim.SourceURL, err)
			return
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			writeFailed[result.Index] = true
			fmt.Fprintf(os.Stderr, "✗ #%d %s: failed to write Markdown: %v\n", result.Index+1, result.Claim.SourceURL, err)
			return
		}

		fmt.Fprintf(os.Stderr, "✓ #%d %s (%.2f, %s)\n", result.Index+1, result.Claim.SourceURL,
			result.Report.Verdict.Score, result.Report.Verdict.Verdict)
	}

	processor := worker.NewBatchProcessor(
		timeoutAnalyzer{next: analyzer, timeout: claimTimeout},
		cfg.Concurrency.Workers,
		worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		onResult,
	)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing claims with %d workers...\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error == nil && !writeFailed[result.Index] {
			successCount++
			continue
		}
		failureCount++
		// Claims cut off by the batch timeout never reach onResult
		if !reported[result.Index] {
			fmt.Fprintf(os.Stderr, "✗ #%d %s: %v\n", result.Index+1, result.Claim.SourceURL, result.Error)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d claims failed", failureCount)
	}
	return nil
}

// timeoutAnalyzer bounds each claim analysis
type timeoutAnalyzer struct {
	next    worker.Analyzer
	timeout time.Duration
}

func (a timeoutAnalyzer) RunAnalysis(ctx context.Context, claim model.Claim) (model.Report, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.next.RunAnalysis(ctx, claim)
}

// reportSlug names the report files of the claim at index
func reportSlug(index int, claim model.Claim) string {
	host := claim.SourceURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	name := sanitizeFilename(host)
	if name == "" {
		name = "claim"
	}
	return fmt.Sprintf("%04d-%s", index+1, name)
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
