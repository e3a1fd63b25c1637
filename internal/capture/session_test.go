package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noleftovers/nlv/internal/config"
	"github.com/noleftovers/nlv/internal/extract"
	"github.com/noleftovers/nlv/internal/task"
	"github.com/noleftovers/nlv/internal/vault"
)

// fakeSource returns canned tasks without touching the network.
type fakeSource struct {
	tasks []task.Task
	err   error
}

func (f *fakeSource) ExtractTasks(_ context.Context, _ string) ([]task.Task, *extract.Report, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.tasks, &extract.Report{TaskCount: len(f.tasks), Model: "fake-model"}, nil
}

func (f *fakeSource) Model() string { return "fake-model" }

// fakeReviewer replays canned keep decisions.
type fakeReviewer struct {
	keep []bool
	err  error
	seen []string
}

func (f *fakeReviewer) Review(lines []string) ([]bool, error) {
	f.seen = lines
	if f.err != nil {
		return nil, f.err
	}
	if f.keep == nil {
		keep := make([]bool, len(lines))
		for i := range keep {
			keep[i] = true
		}
		return keep, nil
	}
	return f.keep, nil
}

func testSession(t *testing.T, source TaskSource, review Reviewer) (*Session, vault.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.MasterPath = "leftovers.md"

	store := vault.NewWithFs(afero.NewMemMapFs())
	s := New(cfg, source, store, nil, review)
	s.UseLockFile = false
	s.now = func() time.Time { return time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC) }
	return s, store
}

func writeNote(t *testing.T, store vault.Store, path, text string) {
	t.Helper()
	require.NoError(t, store.CreateFile(path, text))
}

func TestCaptureNoteAppendsNewTasks(t *testing.T) {
	source := &fakeSource{tasks: []task.Task{
		{Description: "Email vendor"},
		{Description: "File taxes"},
	}}
	s, store := testSession(t, source, nil)
	writeNote(t, store, "note.md", "met bob, need to email vendor and file taxes")

	outcome, err := s.CaptureNote(context.Background(), "note.md")
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Added)
	assert.Equal(t, 0, outcome.Skipped)
	assert.False(t, outcome.NothingNew())
	assert.NotEmpty(t, outcome.OperationID)
	assert.Equal(t, StateCommitted, s.State())

	text, err := store.ReadFile("leftovers.md")
	require.NoError(t, err)
	assert.Equal(t, "# No Leftovers\n\n- [ ] Email vendor (2025-09-10.md)\n- [ ] File taxes (2025-09-10.md)\n", text)
}

func TestCaptureNoteSkipsDuplicates(t *testing.T) {
	source := &fakeSource{tasks: []task.Task{
		{Description: "Email vendor"},
		{Description: "File taxes"},
	}}
	s, store := testSession(t, source, nil)
	writeNote(t, store, "note.md", "journal text")
	writeNote(t, store, "leftovers.md", "# No Leftovers\n\n- [ ] email vendor (2025-09-09.md)\n")

	outcome, err := s.CaptureNote(context.Background(), "note.md")
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Added)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Equal(t, []string{"- [ ] File taxes (2025-09-10.md)"}, outcome.Lines)
}

func TestCaptureNoteNothingNew(t *testing.T) {
	source := &fakeSource{tasks: []task.Task{{Description: "Email vendor"}}}
	s, store := testSession(t, source, nil)
	writeNote(t, store, "note.md", "journal text")
	writeNote(t, store, "leftovers.md", "# No Leftovers\n\n- [ ] Email Vendor ([[2025-09-08]])\n")

	outcome, err := s.CaptureNote(context.Background(), "note.md")
	require.NoError(t, err)

	assert.True(t, outcome.NothingNew())
	assert.Equal(t, 1, outcome.Skipped)

	// Nothing new means nothing written.
	text, err := store.ReadFile("leftovers.md")
	require.NoError(t, err)
	assert.Equal(t, "# No Leftovers\n\n- [ ] Email Vendor ([[2025-09-08]])\n", text)
}

func TestCaptureNoteExtractionFailureBeforeMerge(t *testing.T) {
	source := &fakeSource{err: errors.New("401 Unauthorized")}
	s, store := testSession(t, source, nil)
	writeNote(t, store, "note.md", "journal text")

	_, err := s.CaptureNote(context.Background(), "note.md")
	require.Error(t, err)

	// The master document must not even be created.
	exists, serr := store.Exists("leftovers.md")
	require.NoError(t, serr)
	assert.False(t, exists)
}

func TestCaptureNoteMissingNote(t *testing.T) {
	s, _ := testSession(t, &fakeSource{}, nil)
	_, err := s.CaptureNote(context.Background(), "missing.md")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestCaptureManual(t *testing.T) {
	s, store := testSession(t, nil, nil)

	outcome, err := s.CaptureManual(context.Background(), []string{
		"Email vendor",
		"- [ ] File taxes",
		"  ",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Added)

	text, err := store.ReadFile("leftovers.md")
	require.NoError(t, err)
	assert.Contains(t, text, "- [ ] Email vendor (2025-09-10.md)\n")
	assert.Contains(t, text, "- [ ] File taxes (2025-09-10.md)\n")
}

func TestCaptureManualDedupeDisabled(t *testing.T) {
	s, store := testSession(t, nil, nil)
	s.cfg.Dedupe = false
	writeNote(t, store, "leftovers.md", "# No Leftovers\n\n- [ ] email vendor\n")

	outcome, err := s.CaptureManual(context.Background(), []string{"Email vendor"})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Added)
	assert.Equal(t, 0, outcome.Skipped)
}

func TestWikilinkProvenanceUsesNoteName(t *testing.T) {
	source := &fakeSource{tasks: []task.Task{{Description: "Email vendor"}}}
	s, store := testSession(t, source, nil)
	s.cfg.ProvenanceStyle = task.StyleWikilink
	writeNote(t, store, "notes/2025-09-10.md", "journal text")

	outcome, err := s.CaptureNote(context.Background(), "notes/2025-09-10.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"- [ ] Email vendor ([[2025-09-10]])"}, outcome.Lines)
}

func TestReviewKeepsSubset(t *testing.T) {
	source := &fakeSource{tasks: []task.Task{
		{Description: "Email vendor"},
		{Description: "File taxes"},
	}}
	reviewer := &fakeReviewer{keep: []bool{true, false}}
	s, store := testSession(t, source, reviewer)
	writeNote(t, store, "note.md", "journal text")

	outcome, err := s.CaptureNote(context.Background(), "note.md")
	require.NoError(t, err)

	assert.Len(t, reviewer.seen, 2)
	assert.Equal(t, []string{"- [ ] Email vendor (2025-09-10.md)"}, outcome.Lines)
	assert.Equal(t, StateCommitted, s.State())
}

func TestReviewCancelTouchesNothing(t *testing.T) {
	source := &fakeSource{tasks: []task.Task{{Description: "Email vendor"}}}
	reviewer := &fakeReviewer{err: ErrReviewCancelled}
	s, store := testSession(t, source, reviewer)
	writeNote(t, store, "note.md", "journal text")

	_, err := s.CaptureNote(context.Background(), "note.md")
	require.ErrorIs(t, err, ErrReviewCancelled)
	assert.Equal(t, StateCancelled, s.State())

	exists, serr := store.Exists("leftovers.md")
	require.NoError(t, serr)
	assert.False(t, exists)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting-review", StateAwaitingReview.String())
	assert.Equal(t, "committed", StateCommitted.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
}
