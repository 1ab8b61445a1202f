package index

import (
	"log/slog"

	"github.com/starford/tavla/internal/storage"
)

// Sync walks the document store and brings the index up to date:
//   - new/changed boards are upserted
//   - boards removed from disk are deleted from the index
//
// The store's listing already excludes the template record.
func Sync(db *DB, store storage.Store, logger *slog.Logger) error {
	summaries, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		disk[s.ID] = struct{}{}

		if checksums[s.ID] == s.Checksum {
			continue
		}

		board, err := store.Read(s.ID)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("id", s.ID), slog.String("error", err.Error()))
			continue
		}
		row := BoardRow{ID: s.ID, Name: board.Name, Checksum: s.Checksum, UpdatedAt: s.UpdatedAt}
		if err := db.UpsertBoard(row, board.SearchBody()); err != nil {
			logger.Warn("sync: index failed", slog.String("id", s.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", s.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteBoard(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
