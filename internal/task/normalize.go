package task

import (
	"regexp"
	"strings"
)

// Pre-compiled suffix patterns. Both are anchored at end of line so that
// provenance-looking text in the middle of a description is never stripped.
var (
	// dateSuffixRegex matches "(2025-09-10.md)" style suffixes: a
	// parenthesized YYYY-MM-DD date followed by a file extension.
	dateSuffixRegex = regexp.MustCompile(`\(\d{4}-\d{2}-\d{2}\.[A-Za-z0-9]+\)\s*$`)

	// wikilinkSuffixRegex matches "([[2025-09-10]])" style suffixes: a
	// parenthesized double-bracket backlink.
	wikilinkSuffixRegex = regexp.MustCompile(`\(\[\[[^\[\]]+\]\]\)\s*$`)
)

// Normalize maps a raw task line to its canonical comparison key. Two task
// lines are the same task iff their keys are equal; comparison is exact
// string equality after normalization, never fuzzy.
//
// The function is pure and total: a line with no recognizable marker or
// suffix simply passes through the corresponding step unchanged. Running
// Normalize on an already-canonical string is a no-op.
func Normalize(rawLine string) string {
	s := strings.TrimSpace(rawLine)

	// Strip the checkbox marker if present.
	if rest, ok := strings.CutPrefix(s, UncheckedMarker); ok {
		s = rest
	}

	// Strip a trailing provenance suffix. At most one shape matches a
	// well-formed line, so order does not matter.
	s = dateSuffixRegex.ReplaceAllString(s, "")
	s = wikilinkSuffixRegex.ReplaceAllString(s, "")

	// Lower-case, trim, and collapse whitespace runs to single spaces.
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
