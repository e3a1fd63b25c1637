package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled patterns for cleaning up model output. Language models wrap
// JSON in code fences, leave trailing commas, and mix prose around the
// payload; the parser peels these away instead of failing.
var (
	codeFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\n?([\\s\\S]*?)\n?```")

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)//.*$`)

	// Greedy so nested structures are captured whole.
	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// ParseResult represents the outcome of one JSON parse, result-style so
// callers never see a panic.
type ParseResult[T any] struct {
	Success      bool
	Data         T
	Error        string
	OriginalText string
}

// ParseJSON attempts to parse model output as JSON with fallback
// strategies:
//
//  1. Direct parse
//  2. Strip code fences and retry
//  3. Fix trailing commas and comments and retry
//  4. Extract the first JSON array or object from mixed content and retry
//
// context labels error messages and log lines.
func ParseJSON[T any](text, context string) ParseResult[T] {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseError[T]("empty input", text, context)
	}

	candidates := []string{trimmed}

	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	for _, c := range candidates[:len(candidates):len(candidates)] {
		cleaned := trailingCommaRegex.ReplaceAllString(c, "$1")
		cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
		if cleaned != c {
			candidates = append(candidates, cleaned)
		}
	}
	if m := arrayRegex.FindString(trimmed); m != "" {
		candidates = append(candidates, trailingCommaRegex.ReplaceAllString(m, "$1"))
	} else if m := objectRegex.FindString(trimmed); m != "" {
		candidates = append(candidates, trailingCommaRegex.ReplaceAllString(m, "$1"))
	}

	var lastErr error
	for _, candidate := range candidates {
		var data T
		if err := json.Unmarshal([]byte(candidate), &data); err == nil {
			return ParseResult[T]{Success: true, Data: data, OriginalText: text}
		} else {
			lastErr = err
		}
	}

	return parseError[T](fmt.Sprintf("all parse strategies failed: %v", lastErr), text, context)
}

func parseError[T any](msg, original, context string) ParseResult[T] {
	if context != "" {
		msg = fmt.Sprintf("%s: %s", context, msg)
	}
	preview := original
	if len(preview) > 500 {
		preview = preview[:500] + "... (truncated)"
	}
	slog.Debug("JSON parse failed", "context", context, "error", msg, "input", preview)
	return ParseResult[T]{Success: false, Error: msg, OriginalText: original}
}
