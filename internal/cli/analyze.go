package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/credence/internal/logging"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	claimURL        string
	claimText       string
	claimMedia      string
	fetchSource     bool
	outJSON         string
	outMD           string
	outFormat       string
	timeout         time.Duration
	userAgent       string
	noCache         bool
	noFooter        bool
	captionProvider string
	mediaDir        string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the credibility of a single claim",
	Long: `Analyze scores one claim on four signals and fuses them into a verdict:
- Source credibility of the publishing domain
- Tone of the claim text
- Context of the attached media
- Authenticity of the attached media

Example:
  credence analyze --url https://www.reuters.com/markets --text "The central bank held rates steady."
  credence analyze --url https://bunkerville.com/x --text "SHOCKING video!" --media shocking_event.jpg
  credence analyze --url https://example.com/story --fetch --json report.json --md report.md`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Claim flags
	analyzeCmd.Flags().StringVar(&claimURL, "url", "", "URL where the claim was published (required)")
	analyzeCmd.Flags().StringVar(&claimText, "text", "", "claim text (headline or excerpt)")
	analyzeCmd.Flags().StringVar(&claimMedia, "media", "", "media key of the attached image or video")
	analyzeCmd.Flags().BoolVar(&fetchSource, "fetch", false, "fetch the source page to fill missing text and media")
	_ = analyzeCmd.MarkFlagRequired("url")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().StringVar(&outFormat, "format", "summary", "stdout format (summary, json, markdown)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Service flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (overrides http.user_agent)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh lookups)")
	analyzeCmd.Flags().StringVar(&captionProvider, "caption-provider", "", "caption provider (none, openai, anthropic, ollama, static)")
	analyzeCmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory holding local media files")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outFormat); err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	analyzer, err := pipeline.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}

	claim := model.Claim{Text: claimText, SourceURL: claimURL, MediaKey: claimMedia}

	if fetchSource {
		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Fetching source page %s...\n", claim.SourceURL)
		}
		claim, err = pipeline.NewFetcherFromConfig(cfg).EnrichClaim(ctx, claim)
		if err != nil {
			return fmt.Errorf("fetch source page: %w", err)
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", claim.SourceURL)
		fmt.Fprintf(os.Stderr, "Media:     %s\n", orNone(claim.MediaKey))
		fmt.Fprintf(os.Stderr, "Timeout:   %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	report, err := analyzer.RunAnalysis(ctx, claim)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Fused score: %.2f (%s)\n", report.Verdict.Score, report.Verdict.Verdict)
		if degraded := report.DegradedSignals(); len(degraded) > 0 {
			fmt.Fprintf(os.Stderr, "✓ Degraded signals: %v\n", degraded)
		}
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if err := writeReports(renderer, &report, outJSON, outMD); err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), renderer, &report, outFormat)
}

// applyFlags overrides configuration with the flags the user actually set
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("caption-provider") {
		cfg.Context.Describer.Provider = captionProvider
		applyProviderEnv(cfg, os.Getenv)
	}
	if flags.Changed("media-dir") {
		cfg.Context.MediaDir = mediaDir
	}
}

func checkFormat(format string) error {
	switch format {
	case "summary", "json", "markdown":
		return nil
	default:
		return fmt.Errorf("unknown format %q (supported: summary, json, markdown)", format)
	}
}

func writeReports(renderer *pipeline.Renderer, report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", jsonPath)
		}
	}
	if mdPath != "" {
		if err := renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", mdPath)
		}
	}
	return nil
}

func printReport(w io.Writer, renderer *pipeline.Renderer, report *model.Report, format string) error {
	switch format {
	case "json":
		data, err := renderer.JSON(report)
		if err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "markdown":
		_, err := io.WriteString(w, renderer.Markdown(report))
		return err
	default:
		renderer.RenderSummary(w, report)
		return nil
	}
}

func orNone(s string) string {
	if s == "" {
		return model.NoMedia
	}
	return s
}
