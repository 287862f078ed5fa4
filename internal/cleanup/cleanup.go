// Package cleanup removes the temporary directories the CWL engine
// leaves in the working directory.
package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
)

// Cleaner removes temporary artifacts after a successful run. It is an
// interface so launch tests can substitute a fake instead of touching
// the filesystem.
type Cleaner interface {
	Clean(ctx context.Context) error
}

// TempDirs sweeps every path matching tmp* directly under dir. Removal
// is best-effort: individual failures are logged and never surfaced,
// matching the engine-cleanup contract.
type TempDirs struct {
	dir    string
	logger *slog.Logger
}

// NewTempDirs creates a TempDirs cleaner rooted at dir. An empty dir
// means the current working directory.
func NewTempDirs(dir string, logger *slog.Logger) *TempDirs {
	if dir == "" {
		dir = "."
	}
	return &TempDirs{dir: dir, logger: logger.With("component", "cleanup")}
}

// Clean removes all tmp* entries under the cleaner's directory.
func (c *TempDirs) Clean(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "tmp*"))
	if err != nil {
		c.logger.Debug("glob temp dirs", "error", err)
		return nil
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			c.logger.Debug("remove temp dir", "path", m, "error", err)
			continue
		}
		c.logger.Debug("removed temp dir", "path", m)
	}
	return nil
}
