package domain

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrOracleNotConfigured is returned when no model API key is configured.
	ErrOracleNotConfigured = errors.New("language model not configured: set GOOGLE_API_KEY")

	// ErrOracleTimeout is returned when every attempt ran out of time.
	ErrOracleTimeout = errors.New("language model timeout")

	// ErrInvalidModelOutput is wrapped by every parse failure of a model reply.
	ErrInvalidModelOutput = errors.New("invalid model output")
)

// Operation names a model call for logging and metrics.
type Operation string

const (
	OpRisk      Operation = "risk"
	OpChecklist Operation = "checklist"
	OpRoute     Operation = "route"
	OpRumor     Operation = "rumor"
)

// Prompt is a single request to the language model.
type Prompt struct {
	Operation   Operation
	Text        string
	Temperature float64
	MaxTokens   int
	JSON        bool // request a JSON response body
}

// Oracle generates text for a prompt. Implementations own retries and timeouts.
type Oracle interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// fenceRe matches a fenced code block, optionally tagged with a language.
var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?```$")

// StripCodeFences removes a surrounding Markdown code fence, if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// extractJSON returns the first balanced JSON object or array in s.
// Models sometimes wrap JSON in prose even when asked not to.
func extractJSON(s string) (string, bool) {
	s = StripCodeFences(s)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
