package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/permitcheck/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize narrates a finished compliance result
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM narration
type SummarizeRequest struct {
	// Result is the determination to explain. The narrative never alters it.
	Result *model.ComplianceResult

	// AllowedURLs is the strict allowlist of links the narrative may cite
	AllowedURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's narrative output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string // URLs found in the summary, for verification
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictGuard rejects narratives that cite unlisted links or state another outcome
	StrictGuard bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		StrictGuard: true,
		MaxTokens:   600,
	}
}

// BuildPrompt constructs the default narration prompt for a compliance result
func BuildPrompt(result *model.ComplianceResult, allowedURLs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are explaining the outcome of a UK householder planning check to a homeowner. The outcome has already been decided by a rule engine. You do not decide anything.

CRITICAL RULES:
1. The outcome is %s. State it using exactly this token: %s
2. Never name any other outcome token (%s).
3. You MUST ONLY cite URLs from this allowed list:
%s
4. Do not add planning rules, limits or exceptions that are not listed below.
5. If information is missing, say so plainly.

Check Result:
- Outcome: %s (%s)
- Decided by: %s (%s)
- Reason: %s
- Heritage status: %s
- Confidence: %s
`,
		result.Determination.Label(), result.Determination,
		strings.Join(otherOutcomes(result.Determination), ", "),
		joinURLs(allowedURLs),
		result.Determination, result.Determination.Label(),
		result.DecidedBy.Kind, result.DecidedBy.Ref,
		result.DecidedBy.Reason,
		result.Heritage,
		result.Confidence.Level,
	)

	if len(result.Classes) > 0 {
		b.WriteString("\nRule classes:\n")
		for _, c := range result.Classes {
			fmt.Fprintf(&b, "- Class %s %s (%s)\n", c.Class, c.Name, c.Reason)
		}
	}

	if len(result.Conditions) > 0 {
		b.WriteString("\nConditions:\n")
		for _, c := range result.Conditions {
			fmt.Fprintf(&b, "- [%s] Class %s %s: %s\n", c.Band, c.Class, c.Condition, c.Reason)
		}
	}

	if len(result.Limits) > 0 {
		b.WriteString("\nLimits:\n")
		for _, l := range result.Limits {
			status := "within"
			if !l.Compliant {
				status = "exceeds"
			}
			fmt.Fprintf(&b, "- %s: proposed %g%s %s %g%s\n", l.Description, l.Proposed, l.Unit, status, l.Threshold, l.Unit)
		}
	}

	b.WriteString("\nWrite 3-4 plain sentences: the outcome, the main reason, and the next step.")
	return b.String()
}

// AllowedURLs collects the links the narrative may cite from a result
func AllowedURLs(result *model.ComplianceResult) []string {
	var urls []string
	if result.Overlay != nil && result.Overlay.Profile != nil && result.Overlay.Profile.AppraisalURL != "" {
		urls = append(urls, result.Overlay.Profile.AppraisalURL)
	}
	return urls
}

var outcomeTokens = []model.Determination{
	model.PermittedDevelopment,
	model.RequiresPriorApproval,
	model.RequiresPlanningPermission,
}

func otherOutcomes(d model.Determination) []string {
	var out []string
	for _, t := range outcomeTokens {
		if t != d {
			out = append(out, string(t))
		}
	}
	return out
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No links available; cite nothing)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}
