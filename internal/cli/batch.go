package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/permitcheck/internal/pipeline"
	"github.com/ppiankov/permitcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	noCache      bool
	// noFooter is defined in check.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check many proposals from a JSON or YAML file in parallel",
	Long: `Batch checks every request in a file concurrently:
- Read a JSON array or YAML list of check requests
- Check them in parallel with a configurable worker count
- Serve repeated requests from the result cache
- Write one JSON and Markdown report per request, plus summary.json

Example:
  permitcheck batch requests.json
  permitcheck batch requests.yaml --concurrency 8 --output-dir ./reports
  permitcheck batch requests.json --areas camden-conservation-areas.geojson`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./permitcheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 5*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	cfg.LLM.Provider = "" // batch reports are deterministic only
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  PermitCheck Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Cache:        %v\n", cfg.Cache.Enabled)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers,
		worker.WithCache(buildCache(cfg, p.Catalog().Version())))

	fmt.Fprintf(os.Stderr, "⚙️  Reading requests from file...\n")
	start := time.Now()
	outcomes, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Checked %d requests\n\n", len(outcomes))

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	for _, o := range outcomes {
		if o.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", o.ID, o.Error)
			continue
		}

		slug := sanitizeFilename(o.ID)
		if err := renderer.RenderJSON(o.Result, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", o.ID, err)
			continue
		}
		if err := renderer.RenderMarkdown(o.Result, filepath.Join(outputDir, slug+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", o.ID, err)
			continue
		}

		cached := ""
		if o.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %s [%s]%s\n", o.ID, o.Result.Determination.Label(), o.Result.Confidence.Level, cached)
	}

	summary := worker.Summarize(outcomes)
	summary.Elapsed = time.Since(start)
	if err := writeBatchSummary(filepath.Join(outputDir, "summary.json"), summary, outcomes); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write summary: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d requests\n", summary.Total)
	for _, d := range summary.Determinations() {
		fmt.Fprintf(os.Stderr, "  %-40s %d\n", d.Label()+":", summary.ByKind[d])
	}
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", summary.Failed)
	fmt.Fprintf(os.Stderr, "  Cached:    %d\n", summary.Cached)
	fmt.Fprintf(os.Stderr, "  Elapsed:   %v\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

func writeBatchSummary(path string, summary worker.Summary, outcomes []*worker.CheckOutcome) error {
	type entry struct {
		ID            string `json:"id"`
		Determination string `json:"determination,omitempty"`
		Confidence    string `json:"confidence,omitempty"`
		Error         string `json:"error,omitempty"`
	}

	entries := make([]entry, len(outcomes))
	for i, o := range outcomes {
		entries[i].ID = o.ID
		if o.Error != nil {
			entries[i].Error = o.Error.Error()
			continue
		}
		entries[i].Determination = string(o.Result.Determination)
		entries[i].Confidence = string(o.Result.Confidence.Level)
	}

	data, err := json.MarshalIndent(struct {
		Summary worker.Summary `json:"summary"`
		Entries []entry        `json:"entries"`
	}{summary, entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
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

// sanitizeFilename makes a request id safe to use as a file name
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "request"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
