// Package workspace provides the per-request scratch directory that holds an
// uploaded video and the audio derived from it.
package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a directory owned by exactly one request. Close removes it and
// everything inside; it must be deferred right after New succeeds.
type Workspace struct {
	dir       string
	closeOnce sync.Once
	closeErr  error
}

// New creates a fresh directory under baseDir (os.TempDir() when empty).
// The label is folded into the directory name to make leftovers traceable.
func New(baseDir, label string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace base %s: %w", baseDir, err)
	}

	pattern := "transcriptor-*"
	if label != "" {
		pattern = "transcriptor-" + label + "-*"
	}
	dir, err := os.MkdirTemp(baseDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the location of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// WriteFile streams r into name and returns the written path and byte count.
func (w *Workspace) WriteFile(name string, r io.Reader) (string, int64, error) {
	path := w.Path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", name, err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return "", n, fmt.Errorf("write %s: %w", name, copyErr)
	}
	if closeErr != nil {
		return "", n, fmt.Errorf("close %s: %w", name, closeErr)
	}
	return path, n, nil
}

// Close removes the workspace. It is safe to call more than once.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = os.RemoveAll(w.dir)
		if w.closeErr != nil {
			slog.Warn("Failed to remove workspace", "dir", w.dir, "error", w.closeErr)
		}
	})
	return w.closeErr
}
