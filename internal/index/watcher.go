package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/tavla/internal/models"
	"github.com/starford/tavla/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, id string)

// Watch starts an fsnotify watcher on the data directory and processes file
// change events until ctx is cancelled, so boards edited out-of-band (another
// process, a text editor) still reach connected clients. It calls cb (if
// non-nil) after each successful index mutation.
//
// The data dir is flat; only *.json files are considered. The template record
// is not a board and publishes no events. Rename events schedule a short
// reconciliation pass because fsnotify reports only the old path.
func Watch(ctx context.Context, db *DB, store storage.Store, dataDir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dataDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", dataDir))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			base := filepath.Base(ev.Name)
			if !strings.HasSuffix(base, ".json") {
				continue
			}
			id := strings.TrimSuffix(base, ".json")
			if id == models.TemplateID {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				diskCS, diskAt := diskChecksum(store, id)
				prev, _ := db.GetChecksum(id)
				if diskCS != "" && diskCS == prev {
					// Service-driven write: already indexed, and the
					// service published its own event.
					continue
				}
				board, readErr := store.Read(id)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("id", id), slog.String("error", readErr.Error()))
					continue
				}
				row := BoardRow{ID: id, Name: board.Name, Checksum: diskCS, UpdatedAt: diskAt}
				if err := db.UpsertBoard(row, board.SearchBody()); err != nil {
					logger.Warn("watcher: index failed", slog.String("id", id), slog.String("error", err.Error()))
					continue
				}
				kind := "updated"
				if prev == "" {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("id", id), slog.String("op", kind))
				if cb != nil {
					cb(kind, id)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteBoard(id); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("id", id), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("id", id))
				if cb != nil {
					cb("deleted", id)
				}

			case ev.Op&fsnotify.Rename != 0:
				if delErr := db.DeleteBoard(id); delErr == nil {
					logger.Debug("watcher: rename old deleted", slog.String("id", id))
					if cb != nil {
						cb("deleted", id)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes index entries whose files are gone and indexes on-disk
// boards that are missing or stale in the index.
func reconcile(db *DB, store storage.Store, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	summaries, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(summaries))
	for _, s := range summaries {
		disk[s.ID] = s.Checksum
	}

	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if delErr := db.DeleteBoard(id); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("id", id))
				if cb != nil {
					cb("deleted", id)
				}
			}
		}
	}

	for id, cs := range disk {
		if checksums[id] == cs {
			continue
		}
		board, readErr := store.Read(id)
		if readErr != nil {
			continue
		}
		row := BoardRow{ID: id, Name: board.Name, Checksum: cs, UpdatedAt: time.Now()}
		if idxErr := db.UpsertBoard(row, board.SearchBody()); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("id", id))
			if cb != nil {
				cb("created", id)
			}
		}
	}
}

// diskChecksum returns the raw-byte checksum and mtime of the stored record,
// or empty values when the record is not listable.
func diskChecksum(store storage.Store, id string) (string, time.Time) {
	summaries, err := store.List()
	if err != nil {
		return "", time.Time{}
	}
	for _, s := range summaries {
		if s.ID == id {
			return s.Checksum, s.UpdatedAt
		}
	}
	return "", time.Time{}
}
