package session

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// WatchSnapshot calls onChange every time the store's backing file is
// written, replaced or removed, until ctx is cancelled.
func WatchSnapshot(ctx context.Context, store SnapshotStore, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: the file store replaces the file by rename, which
	// would drop a watch placed on the file itself.
	dir, base := filepath.Split(store.Path())
	if err := watcher.Add(filepath.Clean(dir)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if name != base && !strings.HasPrefix(name, base+"-") {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
			log.Debug().Err(err).Msg("snapshot watcher error")
		}
	}
}
