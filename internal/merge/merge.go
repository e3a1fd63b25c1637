package merge

import (
	"fmt"
	"strings"

	"github.com/noleftovers/nlv/internal/task"
)

// Batch is an ordered sequence of tasks proposed for insertion in a single
// capture operation, plus the provenance to attach to all of them. A batch
// is built fresh per operation and discarded after use.
type Batch struct {
	Tasks      []task.Task
	Provenance task.Provenance
}

// BatchFromLines builds a batch from raw upstream lines, keeping only lines
// that match the unchecked checkbox shape. It returns the batch and the
// number of lines dropped as malformed. Malformed input is a caller error,
// never fatal.
func BatchFromLines(lines []string, prov task.Provenance) (Batch, int) {
	b := Batch{Provenance: prov}
	dropped := 0
	for _, line := range lines {
		t, ok := task.ParseLine(line)
		if !ok {
			dropped++
			continue
		}
		b.Tasks = append(b.Tasks, t)
	}
	return b, dropped
}

// Options controls merge behavior.
type Options struct {
	// Dedupe enables duplicate suppression against the existing document
	// and within the batch. When false every entry passes through.
	Dedupe bool
}

// Result describes the outcome of one merge. The engine only computes what
// should be written; an empty AppendedLines means the caller performs no
// write and reports "nothing new".
type Result struct {
	// AppendedLines are the formatted task lines to append, in original
	// batch order.
	AppendedLines []string `json:"appended_lines"`

	// SkippedCount is the number of batch entries suppressed as
	// duplicates, whether of an existing document line or of an earlier
	// entry in the same batch.
	SkippedCount int `json:"skipped_count"`

	// DroppedCount is the number of batch entries whose description
	// normalized to the empty string. These are neither appended nor
	// counted as duplicates.
	DroppedCount int `json:"dropped_count"`

	// Stats carries merge metrics for logging and history.
	Stats Stats `json:"stats"`
}

// Stats provides metrics about one merge operation.
type Stats struct {
	// TotalCandidates is the number of entries in the batch.
	TotalCandidates int `json:"total_candidates"`

	// ExistingKeys is the number of unchecked task lines found in the
	// existing document.
	ExistingKeys int `json:"existing_keys"`

	// AcceptedCount is the number of entries accepted for append.
	AcceptedCount int `json:"accepted_count"`

	// WithinBatchDuplicates is how many of SkippedCount were duplicates
	// of an earlier entry in the same batch rather than of the document.
	WithinBatchDuplicates int `json:"within_batch_duplicates"`
}

// Validate checks internal consistency of the result.
func (r *Result) Validate() error {
	if len(r.AppendedLines) != r.Stats.AcceptedCount {
		return fmt.Errorf("accepted_count (%d) does not match appended_lines length (%d)",
			r.Stats.AcceptedCount, len(r.AppendedLines))
	}
	if r.SkippedCount < 0 || r.DroppedCount < 0 {
		return fmt.Errorf("negative counts: skipped=%d dropped=%d", r.SkippedCount, r.DroppedCount)
	}
	if r.Stats.WithinBatchDuplicates > r.SkippedCount {
		return fmt.Errorf("within_batch_duplicates (%d) exceeds skipped_count (%d)",
			r.Stats.WithinBatchDuplicates, r.SkippedCount)
	}
	total := r.Stats.AcceptedCount + r.SkippedCount + r.DroppedCount
	if r.Stats.TotalCandidates != total {
		return fmt.Errorf("total_candidates (%d) does not match accepted + skipped + dropped (%d)",
			r.Stats.TotalCandidates, total)
	}
	return nil
}

// Merge partitions the batch into genuinely new tasks and duplicates,
// against the existing document text. It never mutates or reorders existing
// content; the result only describes lines to append at end-of-file.
//
// An empty batch yields an empty result, not an error.
func Merge(existing string, batch Batch, opts Options) *Result {
	result := &Result{
		Stats: Stats{TotalCandidates: len(batch.Tasks)},
	}

	if !opts.Dedupe {
		for _, t := range batch.Tasks {
			result.AppendedLines = append(result.AppendedLines, task.FormatLine(t, batch.Provenance))
		}
		result.Stats.AcceptedCount = len(result.AppendedLines)
		return result
	}

	existingKeys := CollectKeys(existing)
	result.Stats.ExistingKeys = len(existingKeys)

	accepted := make(map[string]bool)
	for _, t := range batch.Tasks {
		key := task.Normalize(t.Description)
		if key == "" {
			// A task consisting only of provenance-like text has no
			// comparable content; appending a blank entry would
			// corrupt the checklist.
			result.DroppedCount++
			continue
		}
		if existingKeys[key] {
			result.SkippedCount++
			continue
		}
		if accepted[key] {
			result.SkippedCount++
			result.Stats.WithinBatchDuplicates++
			continue
		}
		accepted[key] = true
		result.AppendedLines = append(result.AppendedLines, task.FormatLine(t, batch.Provenance))
	}
	result.Stats.AcceptedCount = len(result.AppendedLines)
	return result
}

// CollectKeys scans document text line by line and returns the set of
// canonical keys of every unchecked checkbox line. Headers, blank lines,
// completed tasks, and prose contribute nothing.
func CollectKeys(text string) map[string]bool {
	keys := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		if _, ok := task.ParseLine(line); !ok {
			continue
		}
		if key := task.Normalize(line); key != "" {
			keys[key] = true
		}
	}
	return keys
}
