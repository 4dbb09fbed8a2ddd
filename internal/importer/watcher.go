package importer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/agentnote/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the import root and keeps documents in
// step with file changes until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced Sync that picks up the new name and removes
// documents whose files are gone.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := im.fs.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	im.log.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			im.log.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if _, err := im.Sync(ctx); err != nil {
				im.log.Warn("reconcile: sync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			im.handle(ctx, w, ev, scheduleReconcile)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (im *Importer) handle(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	absPath := ev.Name

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if strings.HasPrefix(filepath.Base(absPath), ".") {
				return
			}
			if addErr := addDirsRecursive(w, absPath); addErr != nil {
				im.log.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			} else {
				im.log.Debug("watcher: watching new dir", slog.String("path", absPath))
			}
			im.importDir(ctx, absPath)
			return
		}
	}

	if !storage.IsMarkdown(absPath) || strings.HasPrefix(filepath.Base(absPath), ".") {
		return
	}
	rel, relErr := im.fs.Rel(absPath)
	if relErr != nil {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		doc, err := im.ImportFile(ctx, rel)
		if err != nil {
			im.log.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		im.log.Debug("watcher: imported", slog.String("path", rel), slog.Int64("id", doc.ID))

	case ev.Op&fsnotify.Remove != 0:
		if err := im.Forget(ctx, rel); err != nil {
			im.log.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		im.log.Debug("watcher: deleted", slog.String("path", rel))

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify reports the old name only; the new one shows up as a
		// Create if it stays inside a watched directory.
		if err := im.Forget(ctx, rel); err != nil {
			im.log.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		scheduleReconcile()
	}
}

// importDir imports any .md files found in a newly created directory.
func (im *Importer) importDir(ctx context.Context, dirPath string) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsMarkdown(p) {
			return nil
		}
		rel, relErr := im.fs.Rel(p)
		if relErr != nil {
			return nil
		}
		if _, err := im.ImportFile(ctx, rel); err == nil {
			im.log.Debug("watcher: imported from new dir", slog.String("path", rel))
		}
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
