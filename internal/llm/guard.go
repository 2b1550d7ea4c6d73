package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/permitcheck/internal/model"
)

var (
	// ErrCitationLeak is returned when a narrative cites a link outside the allowlist
	ErrCitationLeak = errors.New("citation leak")

	// ErrOutcomeLeak is returned when a narrative states an outcome other than the determination
	ErrOutcomeLeak = errors.New("outcome leak")
)

var urlPattern = regexp.MustCompile(`https?://[^\s\)]+`)

// Guard verifies a narrative against the result it explains and returns the cited URLs.
// The narrative must name the determination token, must not name any other outcome
// token, and may only cite allowed links.
func Guard(summary string, det model.Determination, allowed []string) ([]string, error) {
	cited := extractURLs(summary)

	for _, u := range cited {
		if !contains(allowed, u) {
			return cited, fmt.Errorf("%w: LLM cited disallowed URL: %s", ErrCitationLeak, u)
		}
	}

	for _, other := range otherOutcomes(det) {
		if strings.Contains(summary, other) {
			return cited, fmt.Errorf("%w: narrative states %s but the determination is %s", ErrOutcomeLeak, other, det)
		}
	}
	if !strings.Contains(summary, string(det)) {
		return cited, fmt.Errorf("%w: narrative does not state the determination %s", ErrOutcomeLeak, det)
	}

	return cited, nil
}

// extractURLs extracts all URLs from text
func extractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, url := range matches {
		// Clean up trailing punctuation
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}

	return unique
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
