// Package capture orchestrates one capture operation: extract candidate
// tasks from a note, merge them against the master checklist, and append
// whatever is genuinely new. It owns the review lifecycle but none of the
// merge semantics, which live in the merge package.
package capture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noleftovers/nlv/internal/config"
	"github.com/noleftovers/nlv/internal/extract"
	"github.com/noleftovers/nlv/internal/history"
	"github.com/noleftovers/nlv/internal/merge"
	"github.com/noleftovers/nlv/internal/task"
	"github.com/noleftovers/nlv/internal/vault"
)

// State is the review lifecycle of a session. Non-review sessions go
// straight from idle to committed.
type State int

const (
	StateIdle State = iota
	StateAwaitingReview
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReview:
		return "awaiting-review"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrReviewCancelled is returned by a Reviewer when the user abandons the
// operation. No state is touched in that case.
var ErrReviewCancelled = errors.New("review cancelled")

// TaskSource produces candidate tasks from note text. The extract package
// provides the production implementation; tests substitute fakes.
type TaskSource interface {
	ExtractTasks(ctx context.Context, noteText string) ([]task.Task, *extract.Report, error)
	Model() string
}

// Reviewer lets the user keep or drop each proposed line before commit.
// keep[i] corresponds to lines[i].
type Reviewer interface {
	Review(lines []string) (keep []bool, err error)
}

// Session runs capture operations against one master document.
type Session struct {
	cfg     *config.Config
	source  TaskSource
	store   vault.Store
	log     *history.Store // optional
	review  Reviewer       // optional; nil means commit without review
	state   State

	// UseLockFile guards the commit with an on-disk lock so two nlv
	// processes cannot race on the same master document. Disabled in
	// tests running on an in-memory filesystem.
	UseLockFile bool

	now func() time.Time
}

// New creates a session. source may be nil for manual-entry operations;
// log and review may be nil.
func New(cfg *config.Config, source TaskSource, store vault.Store, log *history.Store, review Reviewer) *Session {
	return &Session{
		cfg:         cfg,
		source:      source,
		store:       store,
		log:         log,
		review:      review,
		state:       StateIdle,
		UseLockFile: true,
		now:         time.Now,
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Outcome describes one completed capture operation.
type Outcome struct {
	OperationID string
	NotePath    string
	Added       int
	Skipped     int
	Dropped     int
	Lines       []string // the lines actually appended
	Extraction  *extract.Report
}

// NothingNew reports whether the operation found no tasks to append.
func (o *Outcome) NothingNew() bool {
	return o.Added == 0
}

// CaptureNote runs one full capture operation for a note file: read,
// extract, merge, append. Extraction failures surface before the merge
// engine is ever invoked.
func (s *Session) CaptureNote(ctx context.Context, notePath string) (*Outcome, error) {
	if s.source == nil {
		return nil, fmt.Errorf("no task source configured")
	}

	noteText, err := s.store.ReadFile(notePath)
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", notePath, err)
	}

	tasks, report, err := s.source.ExtractTasks(ctx, noteText)
	if err != nil {
		return nil, fmt.Errorf("extracting tasks from %s: %w", notePath, err)
	}

	outcome, err := s.commit(ctx, notePath, tasks, s.provenanceFor(notePath))
	if err != nil {
		return nil, err
	}
	outcome.Extraction = report
	return outcome, nil
}

// CaptureManual runs a capture operation for manually entered task
// descriptions, bypassing the extraction collaborator.
func (s *Session) CaptureManual(ctx context.Context, descriptions []string) (*Outcome, error) {
	var tasks []task.Task
	for _, d := range descriptions {
		if t, ok := task.ParseLine(d); ok {
			tasks = append(tasks, t)
			continue
		}
		if d = strings.TrimSpace(d); d != "" {
			tasks = append(tasks, task.Task{Description: d})
		}
	}
	return s.commit(ctx, "", tasks, s.provenanceFor(""))
}

// provenanceFor computes the provenance attached to every task in this
// operation: today's date, or the note's name for wikilink style.
func (s *Session) provenanceFor(notePath string) task.Provenance {
	prov := task.Provenance{
		Style: s.cfg.ProvenanceStyle,
		Value: s.now().Format(s.cfg.DateFormat),
	}
	if prov.Style == task.StyleWikilink && notePath != "" {
		base := filepath.Base(notePath)
		prov.Value = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return prov
}

// commit merges the tasks against the master document and appends the new
// ones, holding the per-path lock across the read-then-append sequence.
func (s *Session) commit(ctx context.Context, notePath string, tasks []task.Task, prov task.Provenance) (*Outcome, error) {
	startTime := s.now()
	outcome := &Outcome{
		OperationID: uuid.New().String(),
		NotePath:    notePath,
	}

	if s.review != nil {
		kept, err := s.runReview(tasks, prov)
		if err != nil {
			if errors.Is(err, ErrReviewCancelled) {
				s.state = StateCancelled
			}
			return nil, err
		}
		tasks = kept
	}

	if s.UseLockFile {
		lock, err := vault.AcquireLock(s.cfg.MasterPath)
		if err != nil {
			return nil, err
		}
		defer vault.ReleaseLock(lock)
	}

	var result *merge.Result
	err := vault.Update(s.store, s.cfg.MasterPath, s.cfg.Header, func(existing string) ([]string, error) {
		batch := merge.Batch{Tasks: tasks, Provenance: prov}
		result = merge.Merge(existing, batch, merge.Options{Dedupe: s.cfg.Dedupe})
		if err := result.Validate(); err != nil {
			return nil, fmt.Errorf("inconsistent merge result: %w", err)
		}
		return result.AppendedLines, nil
	})
	if err != nil {
		return nil, err
	}

	outcome.Added = len(result.AppendedLines)
	outcome.Skipped = result.SkippedCount
	outcome.Dropped = result.DroppedCount
	outcome.Lines = result.AppendedLines
	s.state = StateCommitted

	if s.log != nil {
		rec := &history.Capture{
			ID:        outcome.OperationID,
			NotePath:  notePath,
			StartedAt: startTime.UTC(),
			Duration:  s.now().Sub(startTime),
			Added:     outcome.Added,
			Skipped:   outcome.Skipped,
			Dropped:   outcome.Dropped,
		}
		if s.source != nil {
			rec.Model = s.source.Model()
		}
		if err := s.log.Record(ctx, rec); err != nil {
			// History is an audit convenience; a logging failure must
			// not undo a successful append.
			fmt.Printf("warning: failed to record capture history: %v\n", err)
		}
	}

	return outcome, nil
}

// runReview previews the merge against the current document and lets the
// reviewer keep or drop each would-be-appended line. The commit re-merges
// the kept tasks against fresh text under the lock, so a concurrent append
// between preview and commit cannot introduce duplicates.
func (s *Session) runReview(tasks []task.Task, prov task.Provenance) ([]task.Task, error) {
	s.state = StateAwaitingReview

	existing, err := s.store.ReadFile(s.cfg.MasterPath)
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		return nil, err
	}

	batch := merge.Batch{Tasks: tasks, Provenance: prov}
	preview := merge.Merge(existing, batch, merge.Options{Dedupe: s.cfg.Dedupe})
	if len(preview.AppendedLines) == 0 {
		return nil, nil
	}

	keep, err := s.review.Review(preview.AppendedLines)
	if err != nil {
		return nil, err
	}
	if len(keep) != len(preview.AppendedLines) {
		return nil, fmt.Errorf("reviewer returned %d decisions for %d lines", len(keep), len(preview.AppendedLines))
	}

	var kept []task.Task
	for i, line := range preview.AppendedLines {
		if !keep[i] {
			continue
		}
		if t, ok := task.ParseLine(line); ok {
			// Strip the rendered provenance back off; commit re-formats.
			desc := strings.TrimSpace(strings.TrimSuffix(t.Description, prov.Render()))
			kept = append(kept, task.Task{Description: desc})
		}
	}
	return kept, nil
}
