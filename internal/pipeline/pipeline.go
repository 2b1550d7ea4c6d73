package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/permitcheck/internal/advise"
	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/classify"
	"github.com/ppiankov/permitcheck/internal/determine"
	"github.com/ppiankov/permitcheck/internal/evaluate"
	"github.com/ppiankov/permitcheck/internal/limits"
	"github.com/ppiankov/permitcheck/internal/llm"
	"github.com/ppiankov/permitcheck/internal/model"
	"github.com/ppiankov/permitcheck/internal/overlay"
)

// Pipeline runs a compliance check end to end. Check holds no locks and does
// no I/O; a single Pipeline is shared by every goroutine.
type Pipeline struct {
	cat        *catalog.Catalog
	resolver   *overlay.Resolver
	classifier *classify.Classifier
	evaluator  *evaluate.Evaluator
	advisor    *advise.Advisor
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
}

// Option configures a pipeline
type Option func(*Pipeline)

// WithSummarizer attaches an LLM summarizer used by CheckWithNarrative
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) {
		p.summarizer = s
	}
}

// WithFooter controls the footer in Markdown reports
func WithFooter(include bool) Option {
	return func(p *Pipeline) {
		p.renderer = NewRenderer(include)
	}
}

// New creates a pipeline over the catalog
func New(cat *catalog.Catalog, opts ...Option) *Pipeline {
	p := &Pipeline{
		cat:        cat,
		resolver:   overlay.NewResolver(cat),
		classifier: classify.NewClassifier(cat),
		evaluator:  evaluate.NewEvaluator(cat),
		advisor:    advise.NewAdvisor(cat),
		renderer:   NewRenderer(true),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog the pipeline was built with
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.cat
}

// Check decides whether the proposal is permitted development, needs prior
// approval or needs planning permission. Incomplete input gives a low
// confidence result with input issues, never an error.
func (p *Pipeline) Check(prop model.PropertyContext, req model.ProposalRequest) *model.ComplianceResult {
	// Register spellings ("Grade II", "2*") are normalised; an unparseable
	// grade is kept as given and still counts as listed
	if !prop.ListedGrade.Known() {
		if g, err := model.ParseListedGrade(string(prop.ListedGrade)); err == nil {
			prop.ListedGrade = g
		}
	}
	issues := inputIssues(prop, req)

	// 1. Resolve the heritage overlay
	ov, _ := p.resolver.Resolve(prop)

	result := &model.ComplianceResult{
		Heritage:       model.StatusOf(ov),
		Classes:        []model.ClassifiedClass{},
		Conditions:     []model.ConditionResult{},
		Limits:         []model.CalculatedLimit{},
		Overlay:        ov,
		InputIssues:    issues,
		CatalogVersion: p.cat.Version(),
	}
	if ov != nil {
		result.Restrictions = ov.Restrictions
	}

	var (
		classes    classify.Result
		conditions []model.ConditionResult
		calculated []model.CalculatedLimit
	)

	// A listed building skips classification, evaluation and limits entirely
	if ov == nil || ov.Kind != model.OverlayListed {
		// 2. Classify
		classes = p.classifier.Classify(req)

		// 3. Evaluate conditions
		conditions = p.evaluator.Evaluate(prop, req, classes.Classes)

		// 4. Recompute numeric limits
		calculated = limits.Calculate(prop, req)
	}

	// 5. Compose the determination
	outcome := determine.Compose(determine.Input{
		Overlay:    ov,
		Classes:    classes.IDs(),
		Conditions: conditions,
		Limits:     calculated,
	})

	// 6. Advice and confidence
	advice := p.advisor.Advise(advise.Input{
		Property:    prop,
		Request:     req,
		Overlay:     ov,
		Classes:     classes.IDs(),
		Unmatched:   classes.Unmatched,
		Conditions:  conditions,
		InputIssues: issues,
		Outcome:     outcome,
	})

	result.Determination = outcome.Determination
	result.DecidedBy = outcome.DecidedBy
	result.Determinable = outcome.Determinable
	result.Recommendations = advice.Recommendations
	result.Warnings = advice.Warnings
	result.Confidence = advice.Confidence

	for _, cl := range classes.Classes {
		entry := model.ClassifiedClass{Class: cl.Class, Reason: cl.Reason, Applicable: true}
		if rc, ok := p.cat.ClassByID(cl.Class); ok {
			entry.Name = rc.Name
			entry.Applicable = !rc.ExcludesType(prop.Type)
		}
		result.Classes = append(result.Classes, entry)
	}
	if conditions != nil {
		result.Conditions = conditions
	}
	if calculated != nil {
		result.Limits = calculated
	}

	return result
}

// CheckWithNarrative runs Check and then, when a summarizer is configured, adds a
// plain-English narrative. The narrative is generated after the determination and
// never changes it.
func (p *Pipeline) CheckWithNarrative(ctx context.Context, prop model.PropertyContext, req model.ProposalRequest) *model.ComplianceResult {
	result := p.Check(prop, req)

	if p.summarizer != nil && p.summarizer.IsEnabled() {
		narrative, err := p.summarizer.GenerateSummary(ctx, result)
		if err != nil {
			// Don't fail the check, just warn
			fmt.Fprintf(os.Stderr, "Warning: LLM summary generation failed: %v\n", err)
		} else if narrative != nil {
			result.Narrative = narrative
		}
	}

	return result
}

// RenderReport renders the result to the specified outputs and prints a summary to stderr
func (p *Pipeline) RenderReport(result *model.ComplianceResult, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && jsonPath != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose && mdPath != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// The narrative goes to its own file, never into the deterministic report
	if result.Narrative != nil && result.Narrative.Enabled && mdPath != "" && mdPath != "-" {
		narrativePath := strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".narrative.md"
		if err := p.renderer.RenderNarrativeMarkdown(llm.RenderSeparateMarkdown(result.Narrative), narrativePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to write narrative: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Narrative: %s\n", narrativePath)
		}
	}

	p.renderer.RenderSummary(os.Stderr, result)
	return nil
}

// inputIssues lists what is missing or malformed in the request
func inputIssues(prop model.PropertyContext, req model.ProposalRequest) []string {
	var issues []string

	switch {
	case prop.Type == "":
		issues = append(issues, "property_type: not supplied")
	case !prop.Type.Valid():
		issues = append(issues, fmt.Sprintf("property_type: unknown value %q", prop.Type))
	}

	if !prop.ListedGrade.Known() {
		issues = append(issues, fmt.Sprintf("listed_grade: unknown value %q, treated as listed", prop.ListedGrade))
	}

	if strings.TrimSpace(req.Description) == "" && req.Type == "" && !req.HasChangeOfUse() {
		issues = append(issues, "description: no proposal category, type or change of use supplied")
	}

	if req.GardenAreaUsed != nil && req.GardenAreaTotal != nil && *req.GardenAreaUsed > *req.GardenAreaTotal {
		issues = append(issues, "garden_area_used_m2: exceeds garden_area_total_m2")
	}

	return issues
}
