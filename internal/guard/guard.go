// Package guard normalizes generated replies before they reach a customer.
// Every automated reply — Telegram, marketplace feedback, buyer chat — passes
// through Normalize; raw agent failures must never leak to the end user.
package guard

import (
	"regexp"
	"strings"
)

// DefaultFallback is returned whenever the generated text is unusable.
const DefaultFallback = "Sorry, I couldn't process your request right now. Please try again in a moment."

// defaultFailureSignatures mark output that must not be sent verbatim:
// agent-loop exhaustion, parse failures, malformed tool calls, and
// low-confidence phrasing. Matched case-insensitively.
var defaultFailureSignatures = []string{
	"agent stopped due to iteration limit",
	"could not parse llm output",
	"invalid or incomplete tool input",
	"malformed tool call",
	"i don't know",
	"не удалось",
}

var (
	codeFencePattern = regexp.MustCompile("(?m)^```[a-zA-Z0-9_-]*$")
	inlineFence      = "```"
)

// Guard validates and cleans generated text. The zero-config guard (New with
// empty arguments) uses the built-in fallback and signature set.
type Guard struct {
	fallback   string
	signatures []string
}

// New creates a Guard. fallback overrides the default fallback text when
// non-empty; extraSignatures extend the built-in failure set.
func New(fallback string, extraSignatures []string) *Guard {
	if fallback == "" {
		fallback = DefaultFallback
	}
	sigs := make([]string, 0, len(defaultFailureSignatures)+len(extraSignatures))
	for _, s := range defaultFailureSignatures {
		sigs = append(sigs, strings.ToLower(s))
	}
	for _, s := range extraSignatures {
		if t := strings.ToLower(strings.TrimSpace(s)); t != "" {
			sigs = append(sigs, t)
		}
	}
	return &Guard{fallback: fallback, signatures: sigs}
}

// Normalize cleans raw generated output and substitutes the fallback when the
// result is empty or carries a failure signature. Pure, no side effects.
func (g *Guard) Normalize(raw string) string {
	cleaned := strings.TrimSpace(raw)

	// Strip fenced code block delimiters; the content inside stays.
	if strings.Contains(cleaned, inlineFence) {
		cleaned = codeFencePattern.ReplaceAllString(cleaned, "")
		cleaned = strings.ReplaceAll(cleaned, inlineFence, "")
	}

	// Collapse markdown emphasis artifacts some models wrap answers in.
	cleaned = strings.ReplaceAll(cleaned, "**", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return g.fallback
	}

	lower := strings.ToLower(cleaned)
	for _, sig := range g.signatures {
		if strings.Contains(lower, sig) {
			return g.fallback
		}
	}

	return cleaned
}

// Fallback returns the configured fallback text.
func (g *Guard) Fallback() string {
	return g.fallback
}
