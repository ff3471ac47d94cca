package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/project"
	"github.com/starford/wikisync/internal/scanner"
)

// RebuildCallback is invoked after a watcher-driven rebuild.
type RebuildCallback func(*RebuildReport)

const rebuildDebounce = 500 * time.Millisecond

// Watch monitors the content and template trees and rebuilds the index when
// recognized files change. Because a rebuild is a wholesale replace, events
// are debounced and coalesced into one rebuild pass. Runs until ctx is
// cancelled.
func Watch(ctx context.Context, ix *Index, layout *project.Layout, codec *pathcodec.Codec, logger *slog.Logger, cb RebuildCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range []string{layout.ContentRoot(), layout.TemplatesRoot()} {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.String("root", layout.Root()))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(rebuildDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(rebuildDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			files, err := scanner.Scan(layout, codec)
			if err != nil {
				logger.Warn("watcher: scan failed", slog.String("error", err.Error()))
				continue
			}
			report, err := ix.Rebuild(files, layout.Read)
			if err != nil {
				logger.Warn("watcher: rebuild failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("watcher: rebuilt",
				slog.Int("pages", report.Pages),
				slog.Int("links", report.Links))
			if cb != nil {
				cb(report)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// New directories must join the watch list before their files
			// produce events.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if !relevant(layout, codec, ev.Name) {
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether an event path maps to a recognized page file.
// Remove/rename events on already-deleted files still pass through the
// codec check because it works on the path alone.
func relevant(layout *project.Layout, codec *pathcodec.Codec, abs string) bool {
	rel, err := filepath.Rel(layout.Root(), abs)
	if err != nil {
		return false
	}
	_, ok := codec.PathToTitle(filepath.ToSlash(rel))
	return ok
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
