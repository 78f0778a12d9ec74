package retriever

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reindexDelay coalesces the burst of events editors emit on save.
const reindexDelay = 500 * time.Millisecond

// Watch reindexes the knowledge file whenever it changes on disk. The parent
// directory is watched rather than the file itself: editors replace files via
// rename, which would silently drop a file-level watch. Blocks until ctx is
// cancelled.
func (r *Retriever) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target := filepath.Clean(path)
	var mu sync.Mutex
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reindexDelay, func() {
			if err := r.IndexFile(ctx, target); err != nil {
				slog.Warn("knowledge reindex failed", "path", target, "error", err)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("knowledge watcher error", "error", err)
		}
	}
}
