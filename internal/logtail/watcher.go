package logtail

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// rotationWatcher gives the tail reader an early signal that the log file
// was rotated (renamed or removed and recreated) without requiring a
// dedicated goroutine: events queue inside fsnotify's own channel and Job
// drains them non-blockingly on its own poll cadence, honoring the
// single-threaded cooperative concurrency model.
type rotationWatcher struct {
	w    *fsnotify.Watcher
	path string
}

func newRotationWatcher(path string) *rotationWatcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.WithField("component", "logtail").WithError(err).Debug("rotation watcher unavailable")
		return nil
	}
	// fsnotify cannot watch a single file across a rename/recreate (the
	// watch follows the inode, not the name), so the directory is watched
	// instead and events are filtered by path below.
	if err := w.Add(filepath.Dir(path)); err != nil {
		logrus.WithField("component", "logtail").WithError(err).Debug("watching log directory failed")
		w.Close()
		return nil
	}
	return &rotationWatcher{w: w, path: filepath.Clean(path)}
}

// drain consumes any queued events without blocking and calls onRotate for
// each rename or remove event for this job's own log file, signaling that it
// may have been replaced. Events for any other file in the watched
// directory (e.g. an unrelated log rotating alongside this one) are ignored.
func (r *rotationWatcher) drain(onRotate func()) {
	if r == nil {
		return
	}
	for {
		select {
		case ev, ok := <-r.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != r.path {
				continue
			}
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				onRotate()
			}
		case <-r.w.Errors:
		default:
			return
		}
	}
}

func (r *rotationWatcher) Close() error {
	if r == nil {
		return nil
	}
	return r.w.Close()
}
