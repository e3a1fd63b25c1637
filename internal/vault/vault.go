// Package vault is the storage collaborator for the merge engine: it reads
// the master document, creates it with a header when absent, and appends
// new task lines at end-of-file. It never rewrites or truncates existing
// content.
//
// The vault serializes read-then-append per target path, so two capture
// operations against the same master document cannot lose updates.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by ReadFile when the file does not exist.
var ErrNotFound = errors.New("file not found")

// Store is the narrow storage interface the capture layer depends on.
// The merge engine itself performs no I/O at all.
type Store interface {
	// ReadFile returns the full text of the file, or ErrNotFound.
	ReadFile(path string) (string, error)

	// CreateFile creates the file with initial content. It fails if the
	// file already exists.
	CreateFile(path, initial string) error

	// AppendFile appends content at end-of-file, creating nothing.
	AppendFile(path, content string) error

	// Exists reports whether the file exists.
	Exists(path string) (bool, error)

	// WithLock runs fn while holding the per-path lock, serializing
	// read-then-append sequences against the same file.
	WithLock(path string, fn func() error) error
}

// FS implements Store over an afero filesystem. Production code uses the
// OS filesystem; tests use an in-memory one.
type FS struct {
	fs afero.Fs

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Store backed by the real filesystem.
func New() *FS {
	return NewWithFs(afero.NewOsFs())
}

// NewWithFs returns a Store backed by the given filesystem.
func NewWithFs(fs afero.Fs) *FS {
	return &FS{fs: fs, locks: make(map[string]*sync.Mutex)}
}

// pathLock returns the mutex guarding a cleaned path, creating it on first
// use.
func (v *FS) pathLock(path string) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := filepath.Clean(path)
	l, ok := v.locks[key]
	if !ok {
		l = &sync.Mutex{}
		v.locks[key] = l
	}
	return l
}

// WithLock serializes access to one path within this process.
func (v *FS) WithLock(path string, fn func() error) error {
	l := v.pathLock(path)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// ReadFile returns the file's full text, or ErrNotFound.
func (v *FS) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(v.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// CreateFile creates the file with initial content, creating parent
// directories as needed. Fails if the file already exists.
func (v *FS) CreateFile(path, initial string) error {
	exists, err := v.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("creating %s: file already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := v.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	if err := afero.WriteFile(v.fs, path, []byte(initial), 0644); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// AppendFile appends content at end-of-file. The file must already exist;
// callers create it first via EnsureMaster or CreateFile.
func (v *FS) AppendFile(path, content string) error {
	f, err := v.fs.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("opening %s for append: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte(content)); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// Exists reports whether the file exists.
func (v *FS) Exists(path string) (bool, error) {
	ok, err := afero.Exists(v.fs, path)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return ok, nil
}

// EnsureMaster creates the master document with its header when absent.
// An existing file is left untouched regardless of its content.
func EnsureMaster(store Store, path, header string) error {
	exists, err := store.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	initial := strings.TrimRight(header, "\n") + "\n\n"
	return store.CreateFile(path, initial)
}

// Update runs one read-then-append sequence against the master document
// under the path lock: it creates the document with its header when
// missing, passes the current text to fn, and appends the lines fn
// returns. When fn returns no lines nothing is written.
//
// Keeping the read and the append inside one critical section is what
// prevents two concurrent captures from both deciding the same task is
// new.
func Update(store Store, path, header string, fn func(existing string) ([]string, error)) error {
	return store.WithLock(path, func() error {
		if err := EnsureMaster(store, path, header); err != nil {
			return err
		}
		current, err := store.ReadFile(path)
		if err != nil {
			return err
		}
		lines, err := fn(current)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		var b strings.Builder
		// Guard against an unterminated final line being glued to the
		// first appended task.
		if current != "" && !strings.HasSuffix(current, "\n") {
			b.WriteString("\n")
		}
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
		return store.AppendFile(path, b.String())
	})
}
