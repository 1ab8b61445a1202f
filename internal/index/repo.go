package index

import (
	"fmt"
	"time"
)

// BoardRow represents a row in the boards table.
type BoardRow struct {
	ID        string
	Name      string
	Checksum  string
	UpdatedAt time.Time
}

// SearchResult represents one task search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// UpsertBoard inserts or replaces a board row and its FTS entry within a
// transaction. body is the flattened searchable text of the board.
func (db *DB) UpsertBoard(row BoardRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO boards (id, name, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name       = excluded.name,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.ID, row.Name, row.Checksum, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert board: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.ID, row.Name, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteBoard removes a board row and its FTS entry.
func (db *DB) DeleteBoard(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM boards WHERE id = ?`, id)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a board, or empty string if
// the board is not indexed.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM boards WHERE id = ?`, id).Scan(&cs)
	if err != nil {
		return "", nil // not indexed is fine
	}
	return cs, nil
}

// AllChecksums returns a map of every indexed board id to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM boards`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}
