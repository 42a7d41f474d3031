package generation

import (
	"fmt"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// Style is the tone of a simulated answer.
type Style string

// Answer styles.
const (
	Professional Style = "professional"
	Friendly     Style = "friendly"
	Detailed     Style = "detailed"
)

// ParseStyle validates s. Empty means Professional.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "":
		return Professional, nil
	case Professional, Friendly, Detailed:
		return Style(s), nil
	default:
		return "", fmt.Errorf("unknown response style %q: %w", s, domain.ErrInvalidConfig)
	}
}

// Request is the input of one generation call.
type Request struct {
	Prompt string
	// Query is the raw consultation text embedded in Prompt.
	Query     string
	Style     Style
	MaxTokens int
}

// Answer is a backend's output.
type Answer struct {
	Text       string
	Confidence float64
	Tokens     int
}

// Result is what the service hands to the pipeline.
type Result struct {
	Text           string
	Confidence     float64
	Backend        string
	FallbackReason string
	Truncated      bool
}
