// Package filewatcher watches the artifact store directory.
// The index and metadata artifacts are immutable for the life of the
// process; when the offline ingestion run replaces them on disk this
// watcher surfaces the staleness so operators know a restart is due.
package filewatcher

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ArtifactWatcher reports on-disk changes to the loaded artifacts.
type ArtifactWatcher struct {
	watcher   *fsnotify.Watcher
	artifacts map[string]bool // base names of the loaded artifact files
}

// NewArtifactWatcher creates a watcher for the given artifact file names.
func NewArtifactWatcher(artifacts []string) (*ArtifactWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		names[filepath.Base(a)] = true
	}

	return &ArtifactWatcher{watcher: w, artifacts: names}, nil
}

// Watch monitors dir and emits the path of every artifact that is written,
// created, or removed. The channel closes when ctx is done.
func (w *ArtifactWatcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	changes := make(chan string, 16)

	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.artifacts[filepath.Base(event.Name)] {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				select {
				case changes <- event.Name:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return changes, nil
}

// Stop stops the watcher.
func (w *ArtifactWatcher) Stop() error {
	return w.watcher.Close()
}
