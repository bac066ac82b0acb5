package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// inspectDirectory reports whether path exists and, if so, whether it is an
// empty directory.
func inspectDirectory(path string) (exists, empty bool, err error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, true, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if !info.IsDir() {
		return true, false, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return true, false, fmt.Errorf("reading %s: %w", path, err)
	}
	return true, len(entries) == 0, nil
}

// ensureUsableDirectory fails with a configuration error when path exists,
// is not empty and is not a repository.
func ensureUsableDirectory(path string) error {
	exists, empty, err := inspectDirectory(path)
	if err != nil {
		return err
	}
	if exists && !empty {
		return errs.Configuration("local repository path %q is not empty and is not a valid git repository", path)
	}
	return nil
}

// withScratchRepository runs fn against a temporary repository directory at
// path and removes everything it created on every exit path, including
// errors, panics and cancellation. A directory that existed before (empty) is
// emptied again rather than removed. Cleanup failures are logged and never
// replace fn's result.
func withScratchRepository(ctx context.Context, path string, fn func(dir string) error) error {
	if err := ensureUsableDirectory(path); err != nil {
		return err
	}

	created, err := createdRoot(path)
	if err != nil {
		return err
	}

	clog.FromContext(ctx).Debugf("Creating temporary repository at '%s'...", path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating temporary repository directory: %w", err)
	}

	defer func() {
		clog.FromContext(ctx).Debugf("Deleting temporary repository at '%s'...", path)
		if cleanupErr := removeScratch(path, created); cleanupErr != nil {
			clog.FromContext(ctx).Warnf("%v", errs.Cleanup(path, cleanupErr))
		}
	}()

	return fn(path)
}

// createdRoot returns the outermost ancestor of path (path included) that does
// not exist yet, or "" when path already exists.
func createdRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	root := ""
	for dir := abs; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(dir); err == nil {
			return root, nil
		}
		root = dir
		if parent := filepath.Dir(dir); parent == dir {
			return root, nil
		}
	}
}

// removeScratch deletes created when set, otherwise empties path.
func removeScratch(path, created string) error {
	if created != "" {
		return os.RemoveAll(created)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	var errList []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(path, e.Name())); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
