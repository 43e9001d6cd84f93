package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LockFileName is the conventional name of the run lock.
const LockFileName = ".update.lock"

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("catalog update already in progress")

// Lock marks a catalog update in progress.
type Lock struct {
	path  string
	RunID string
}

// AcquireLock creates the lock file at path. It fails with ErrLocked when
// the file already exists.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		started, _ := os.ReadFile(path)
		return nil, fmt.Errorf("%w: %s (%s)", ErrLocked, path, string(started))
	}
	if err != nil {
		return nil, fmt.Errorf("creating lock: %w", err)
	}
	defer f.Close()

	l := &Lock{path: path, RunID: uuid.NewString()}
	if _, err := fmt.Fprintf(f, "run %s started %s", l.RunID, time.Now().Format(time.RFC3339)); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing lock: %w", err)
	}
	return l, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock: %w", err)
	}
	return nil
}
