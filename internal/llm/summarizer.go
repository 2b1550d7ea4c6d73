package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/permitcheck/internal/model"
)

// Summarizer generates an optional narrative for a finished compliance result
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer; an empty provider gives a disabled summarizer
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary narrates the result. Provider failures are reported as narrative
// warnings rather than errors; the determination is never touched.
func (s *Summarizer) GenerateSummary(ctx context.Context, result *model.ComplianceResult) (*model.Narrative, error) {
	if !s.IsEnabled() || result == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.Narrative{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{fmt.Sprintf("LLM provider %s is not available", s.provider.Name())},
		}, nil
	}

	allowed := AllowedURLs(result)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Result:      result,
		AllowedURLs: allowed,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return &model.Narrative{
			Enabled:  true,
			Provider: s.provider.Name(),
			Model:    s.config.Model,
			Guarded:  s.config.StrictGuard,
			Warnings: []string{fmt.Sprintf("Narrative generation failed: %v", err)},
		}, nil
	}

	warnings := []string{fmt.Sprintf("Tokens used: %d", resp.TokensUsed)}
	if s.config.StrictGuard {
		warnings = append(warnings, fmt.Sprintf("Verified %d citations against %d allowed links", len(resp.CitedURLs), len(allowed)))
	}

	return &model.Narrative{
		Enabled:  true,
		Provider: s.provider.Name(),
		Model:    resp.Model,
		Guarded:  s.config.StrictGuard,
		Text:     resp.Summary,
		Warnings: warnings,
	}, nil
}

// RenderSeparateMarkdown renders the narrative as its own markdown section,
// kept apart from the deterministic report
func RenderSeparateMarkdown(n *model.Narrative) string {
	if n == nil || !n.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Narrative Summary\n\n")
	b.WriteString("> **GENERATED CONTENT**: written by a language model after the check finished.\n")
	b.WriteString("> The determination above was determined independently by fixed rules and is not affected by this text.\n\n")

	fmt.Fprintf(&b, "- **Provider**: %s\n", n.Provider)
	if n.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", n.Model)
	}
	fmt.Fprintf(&b, "- **Guarded**: %t\n\n", n.Guarded)

	if n.Text == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(n.Text)
		b.WriteString("\n")
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
