package logtail

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitForDrain polls drain for up to a second, since fsnotify delivers
// filesystem events to its channel asynchronously.
func waitForDrain(t *testing.T, w *rotationWatcher) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	fired := false
	for time.Now().Before(deadline) {
		w.drain(func() { fired = true })
		if fired {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestRotationWatcherIgnoresUnrelatedFileInSameDirectory(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "syslog")
	otherPath := filepath.Join(dir, "other.log")

	if err := os.WriteFile(logPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write logPath: %v", err)
	}
	if err := os.WriteFile(otherPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write otherPath: %v", err)
	}

	w := newRotationWatcher(logPath)
	if w == nil {
		t.Skip("fsnotify watcher unavailable in this environment")
	}
	defer w.Close()

	if err := os.Rename(otherPath, otherPath+".1"); err != nil {
		t.Fatalf("rename other: %v", err)
	}

	if waitForDrain(t, w) {
		t.Fatalf("rotation of an unrelated file must not trigger onRotate")
	}
}

func TestRotationWatcherFiresOnOwnFileRename(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "syslog")
	if err := os.WriteFile(logPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write logPath: %v", err)
	}

	w := newRotationWatcher(logPath)
	if w == nil {
		t.Skip("fsnotify watcher unavailable in this environment")
	}
	defer w.Close()

	if err := os.Rename(logPath, logPath+".1"); err != nil {
		t.Fatalf("rename logPath: %v", err)
	}

	if !waitForDrain(t, w) {
		t.Fatalf("rotation of the watched file itself must trigger onRotate")
	}
}
