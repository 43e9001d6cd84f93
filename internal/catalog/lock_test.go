package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)

	lock, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), lock.RunID) || !strings.Contains(string(content), "started") {
		t.Errorf("lock content = %q", content)
	}

	if _, err := AcquireLock(path); !errors.Is(err, ErrLocked) {
		t.Errorf("second AcquireLock() error = %v, want ErrLocked", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file still present after Release")
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}

	again, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock() after release error = %v", err)
	}
	again.Release()
}
