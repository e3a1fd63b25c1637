package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"
)

// LockInfo is the on-disk lock file format used to claim exclusive access
// to a master document across processes. The in-process mutexes in FS only
// serialize captures within one nlv invocation; the lock file covers two
// invocations racing on the same file.
type LockInfo struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

// lockPath returns the lock file path for a master document.
func lockPath(masterPath string) string {
	return masterPath + ".lock"
}

// AcquireLock creates a lock file next to the master document. A lock held
// by a process that no longer exists on this host is treated as stale and
// overwritten. Returns the lock file path for ReleaseLock.
func AcquireLock(masterPath string) (string, error) {
	path := lockPath(masterPath)

	if data, err := os.ReadFile(path); err == nil {
		var existing LockInfo
		if json.Unmarshal(data, &existing) == nil {
			if isProcessAlive(existing.PID, existing.Hostname) {
				return "", fmt.Errorf("another capture is already running against %s (PID %d on %s, started %s)",
					masterPath, existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
			}
			// Stale lock, overwrite.
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}

	info := LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to create lock file: %w", err)
	}
	return path, nil
}

// ReleaseLock removes the lock file. Missing files are not an error, so it
// is safe to defer unconditionally.
func ReleaseLock(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// isProcessAlive checks whether the lock holder still exists. Locks held
// on other hosts cannot be verified and are assumed alive.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}
	if !strings.EqualFold(hostname, currentHost) {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	if err == syscall.EPERM {
		return true
	}
	return false
}
