package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/justestif/go-radio-catalog/internal/catalog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env"), "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	catalogDir := filepath.Join(dir, "out")
	runA := writeTemp(t, dir, "nova.csv", "Artist,Title\nMedina,Kun For Mig\n")
	runB := writeTemp(t, dir, "p3.csv", "Track,Repeats,Stations\nMedina - Kun For Mig (Radio Edit),2,P3\n")

	out, err := execute(t, "merge",
		"--run", runA, "--run", runB,
		"--source", "NOVA",
		"--date", "2025-01-08",
		"--catalog-dir", catalogDir,
		"--stations", "All_Stations",
	)
	if err != nil {
		t.Fatalf("merge error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "now has 1 rows") {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(filepath.Join(catalogDir, "Cumulative_All_Stations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `Medina,Kun For Mig,"NOVA, P3",2025-01-08,2025-01-08`) {
		t.Errorf("catalog = %q", data)
	}
	if _, err := os.Stat(filepath.Join(catalogDir, ".update.lock")); !os.IsNotExist(err) {
		t.Error("run lock left behind")
	}
}

func TestMergeCommand_Locked(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, ".update.lock", "run other started earlier")
	run := writeTemp(t, dir, "run.csv", "Artist,Title\nA,B\n")

	_, err := execute(t, "merge", "--run", run, "--catalog-dir", dir)
	if !errors.Is(err, catalog.ErrLocked) {
		t.Errorf("error = %v, want lock error", err)
	}
}

func TestMergeCommand_BadDate(t *testing.T) {
	dir := t.TempDir()
	run := writeTemp(t, dir, "run.csv", "Artist,Title\nA,B\n")
	if _, err := execute(t, "merge", "--run", run, "--catalog-dir", dir, "--date", "08/01/2025"); err == nil {
		t.Error("expected date error")
	}
}

func TestResolveCommand_EmptyLibrary(t *testing.T) {
	dir := t.TempDir()
	playlist := writeTemp(t, dir, "hits.csv", "Artist,Title,Duration\nMedina,Kun For Mig,3:45\n")

	out, err := execute(t, "resolve", playlist, "--index", filepath.Join(dir, "library.db"))
	if err != nil {
		t.Fatalf("resolve error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Medina - Kun For Mig") || !strings.Contains(out, "1 missing") {
		t.Errorf("output = %q", out)
	}
}

func TestExportCommand_UnknownMode(t *testing.T) {
	dir := t.TempDir()
	playlist := writeTemp(t, dir, "hits.csv", "Artist,Title\nA,B\n")
	if _, err := execute(t, "export", playlist, "--mode", "merge", "--out", dir); err == nil {
		t.Error("expected unknown mode error")
	}
}

func TestReleaseLock_LogsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), catalog.LockFileName)
	lock, err := catalog.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	// A non-empty directory in place of the lock file cannot be removed.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	writeTemp(t, mkdir(t, path), "stale", "x")

	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)
	a := &app{log: log}

	a.releaseLock(lock)

	if !strings.Contains(logs.String(), "could not remove run lock") {
		t.Errorf("logs = %q, want a warning about the lock", logs.String())
	}
	if !strings.Contains(logs.String(), "level=warning") {
		t.Errorf("logs = %q, want warning level", logs.String())
	}
}

func TestReleaseLock_Removes(t *testing.T) {
	path := filepath.Join(t.TempDir(), catalog.LockFileName)
	lock, err := catalog.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)
	a := &app{log: log}

	a.releaseLock(lock)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("lock still present, stat error = %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("logs = %q, want none", logs.String())
	}
}

func mkdir(t *testing.T, path string) string {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}
