package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/permitcheck/internal/model"
)

// Renderer writes compliance results as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// EncodeJSON is the canonical JSON encoding. The same result always encodes to the same bytes.
func EncodeJSON(result *model.ComplianceResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderJSON writes the result as JSON to path ("-" for stdout)
func (r *Renderer) RenderJSON(result *model.ComplianceResult, path string) error {
	data, err := EncodeJSON(result)
	if err != nil {
		return err
	}
	return writeOutput(path, data)
}

// RenderMarkdown writes the result as a Markdown report to path ("-" for stdout)
func (r *Renderer) RenderMarkdown(result *model.ComplianceResult, path string) error {
	return writeOutput(path, []byte(r.Markdown(result)))
}

// RenderNarrativeMarkdown writes an already rendered narrative section to path
func (r *Renderer) RenderNarrativeMarkdown(md string, path string) error {
	return writeOutput(path, []byte(md))
}

// Markdown renders the deterministic report
func (r *Renderer) Markdown(result *model.ComplianceResult) string {
	var b strings.Builder

	b.WriteString("# Planning Compliance Check\n\n")
	fmt.Fprintf(&b, "**Determination:** %s (`%s`)\n\n", result.Determination.Label(), result.Determination)
	fmt.Fprintf(&b, "**Decided by:** %s `%s`. %s\n\n", result.DecidedBy.Kind, result.DecidedBy.Ref, result.DecidedBy.Reason)
	fmt.Fprintf(&b, "**Heritage status:** %s\n\n", result.Heritage)
	fmt.Fprintf(&b, "**Confidence:** %s (%s)\n\n", result.Confidence.Level, strings.Join(result.Confidence.Factors, ", "))
	if !result.Determinable {
		b.WriteString("> The proposal could not be matched to a permitted development class. Treat this outcome as provisional.\n\n")
	}

	if o := result.Overlay; o != nil {
		b.WriteString("## Heritage Overlay\n\n")
		fmt.Fprintf(&b, "- **%s** (%s)\n", o.Name, o.Kind)
		for _, res := range result.Restrictions {
			fmt.Fprintf(&b, "- %s\n", res)
		}
		if o.Profile != nil {
			if o.Profile.Description != "" {
				fmt.Fprintf(&b, "\n%s\n", o.Profile.Description)
			}
			if o.Profile.AppraisalURL != "" {
				fmt.Fprintf(&b, "\nCharacter appraisal: %s\n", o.Profile.AppraisalURL)
			}
		}
		b.WriteString("\n")
	}

	if len(result.Classes) > 0 {
		b.WriteString("## Rule Classes\n\n")
		b.WriteString("| Class | Name | Matched by | Applicable |\n")
		b.WriteString("|-------|------|------------|------------|\n")
		for _, c := range result.Classes {
			fmt.Fprintf(&b, "| %s | %s | %s | %t |\n", c.Class, c.Name, c.Reason, c.Applicable)
		}
		b.WriteString("\n")
	}

	if len(result.Conditions) > 0 {
		b.WriteString("## Conditions\n\n")
		b.WriteString("| Class | Condition | Result | Detail |\n")
		b.WriteString("|-------|-----------|--------|--------|\n")
		for _, c := range result.Conditions {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.Class, c.Condition, c.Band, c.Reason)
		}
		b.WriteString("\n")
	}

	if len(result.Limits) > 0 {
		b.WriteString("## Calculated Limits\n\n")
		b.WriteString("| Limit | Proposed | Threshold | Compliant |\n")
		b.WriteString("|-------|----------|-----------|-----------|\n")
		for _, l := range result.Limits {
			fmt.Fprintf(&b, "| %s | %g%s | %g%s | %t |\n", l.Description, l.Proposed, l.Unit, l.Threshold, l.Unit, l.Compliant)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Recommendations", result.Recommendations)
	writeList(&b, "Warnings", result.Warnings)
	writeList(&b, "Input Issues", result.InputIssues)

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "_Rule catalog %s. This check is indicative only and is not a Lawful Development Certificate._\n", result.CatalogVersion)
	}

	return b.String()
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, result *model.ComplianceResult) {
	_, _ = fmt.Fprintf(w, "\n%s\n", strings.Repeat("═", 59))
	_, _ = fmt.Fprintf(w, "  %s\n", result.Determination.Label())
	_, _ = fmt.Fprintf(w, "%s\n\n", strings.Repeat("═", 59))
	_, _ = fmt.Fprintf(w, "  Decided by:  %s (%s)\n", result.DecidedBy.Ref, result.DecidedBy.Kind)
	_, _ = fmt.Fprintf(w, "  Heritage:    %s\n", result.Heritage)
	_, _ = fmt.Fprintf(w, "  Confidence:  %s\n", result.Confidence.Level)
	_, _ = fmt.Fprintf(w, "  Reason:      %s\n", result.DecidedBy.Reason)
	for _, warning := range result.Warnings {
		_, _ = fmt.Fprintf(w, "  ⚠ %s\n", warning)
	}
	_, _ = fmt.Fprintln(w)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, s := range items {
		fmt.Fprintf(b, "- %s\n", s)
	}
	b.WriteString("\n")
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
