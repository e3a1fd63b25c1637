// Package task defines checkbox task lines, their on-disk format, and the
// canonical comparison key used by the merge engine for deduplication.
package task

import (
	"fmt"
	"strings"
)

// Checkbox markers as they appear in the master document.
const (
	// UncheckedMarker is the prefix of an open (unresolved) task line.
	UncheckedMarker = "- [ ]"

	// CheckedMarker is the prefix of a completed task line. Completed
	// lines are never candidates for dedupe comparison.
	CheckedMarker = "- [x]"
)

// Task represents a single candidate action item. The description is the
// free text of the task without the checkbox marker and without any
// provenance suffix.
type Task struct {
	Description string `json:"description"`
}

// IsZero returns true if the task has no description.
func (t Task) IsZero() bool {
	return t.Description == ""
}

// ParseLine parses a single checkbox line of the form "- [ ] <description>".
// It returns false for anything else: checked lines, headers, blank lines,
// prose. Leading and trailing whitespace around the line is tolerated.
func ParseLine(line string) (Task, bool) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, UncheckedMarker)
	if !ok {
		return Task{}, false
	}
	// Reject "- [ ]x" style lines: the marker must be followed by
	// whitespace or end of line.
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return Task{}, false
	}
	return Task{Description: strings.TrimSpace(rest)}, true
}

// IsChecked reports whether the line is a completed task line.
func IsChecked(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, CheckedMarker) ||
		strings.HasPrefix(trimmed, "- [X]")
}

// Style selects how a provenance suffix is rendered on a task line.
type Style string

const (
	// StyleDate renders provenance as a daily-note file reference,
	// e.g. "(2025-09-10.md)".
	StyleDate Style = "date"

	// StyleWikilink renders provenance as a double-bracket backlink,
	// e.g. "([[2025-09-10]])".
	StyleWikilink Style = "wikilink"
)

// Valid reports whether the style is one of the recognized variants.
func (s Style) Valid() bool {
	return s == StyleDate || s == StyleWikilink
}

// Provenance is the trailing annotation attached to every line of a merge
// batch, identifying where or when the tasks were captured. It is computed
// once per capture operation.
type Provenance struct {
	// Value is the date stamp or note name, e.g. "2025-09-10".
	Value string

	// Style selects the rendered suffix shape.
	Style Style
}

// Render returns the parenthesized suffix, or "" when Value is empty.
func (p Provenance) Render() string {
	if p.Value == "" {
		return ""
	}
	switch p.Style {
	case StyleWikilink:
		return fmt.Sprintf("([[%s]])", p.Value)
	default:
		return fmt.Sprintf("(%s.md)", p.Value)
	}
}

// FormatLine renders a task as a master-document line: the unchecked marker,
// the description, and the provenance suffix when present.
func FormatLine(t Task, prov Provenance) string {
	suffix := prov.Render()
	if suffix == "" {
		return UncheckedMarker + " " + t.Description
	}
	return UncheckedMarker + " " + t.Description + " " + suffix
}
