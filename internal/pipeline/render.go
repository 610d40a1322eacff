package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// JSON encodes the report
func (r *Renderer) JSON(report *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderJSON writes the report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := r.JSON(report)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# Credibility Report\n\n")
	fmt.Fprintf(&b, "**Claim:** %s\n\n", report.ClaimText)
	fmt.Fprintf(&b, "**Source:** %s\n\n", report.SourceURL)
	if c := report.Claim(); c.HasMedia() {
		fmt.Fprintf(&b, "**Media:** %s\n\n", report.MediaKey)
	}

	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(&b, "**%s** (score %.2f)\n\n", report.Verdict.Verdict, report.Verdict.Score)

	b.WriteString("## Signals\n\n")
	b.WriteString("| Signal | Score | Weight | Share | Contribution |\n")
	b.WriteString("|---|---|---|---|---|\n")
	contributed := make(map[model.SignalName]model.Contribution, len(report.Contributions))
	for _, c := range report.Contributions {
		contributed[c.Signal] = c
	}
	for _, name := range model.AllSignals() {
		s, ok := report.Signals[name]
		if !ok {
			continue
		}
		value := fmt.Sprintf("%.2f", s.Value)
		if s.Degraded {
			value += " (degraded)"
		}
		if c, ok := contributed[name]; ok {
			fmt.Fprintf(&b, "| %s | %s | %.2f | %.0f%% | %.3f |\n", name, value, c.Weight, c.Share*100, c.Contribution)
		} else {
			fmt.Fprintf(&b, "| %s | %s | 0 | - | - |\n", name, value)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Findings\n\n")
	f := report.Findings
	for _, row := range [][2]string{
		{"Source", f.SourceCheck},
		{"Tone", f.ToneCheck},
		{"Media context", f.ImageContextCheck},
		{"Authenticity", f.DeepfakeCheck},
	} {
		fmt.Fprintf(&b, "- **%s:** %s\n", row[0], singleLine(row[1]))
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Generated by credence. Scores are heuristic signals combined by weighted average; they are not a fact-check._\n")
	}

	return b.String()
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\nVerdict: %s (%.2f)\n", report.Verdict.Verdict, report.Verdict.Score)
	for _, name := range model.AllSignals() {
		s, ok := report.Signals[name]
		if !ok {
			continue
		}
		mark := ""
		if s.Degraded {
			mark = "  [degraded]"
		}
		fmt.Fprintf(w, "  %-22s %.2f%s\n", name, s.Value, mark)
	}
}

func singleLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
