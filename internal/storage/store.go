// Package storage defines the durable board document store abstraction.
package storage

import "github.com/starford/tavla/internal/models"

// Store is the interface for durable per-board document operations. Each
// record is independently addressable by id; operations on different ids
// never contend.
type Store interface {
	// Exists reports whether a durable record for id is present.
	Exists(id string) (bool, error)
	// Read returns the board stored under id.
	Read(id string) (*models.Board, error)
	// Write atomically replaces the record for id (create-or-replace).
	Write(id string, board *models.Board) error
	// Delete removes the record for id.
	Delete(id string) error
	// List enumerates every board record excluding the template, with each
	// entry's display name read from its content.
	List() ([]models.BoardSummary, error)
	// ReadTemplate returns the template record.
	ReadTemplate() (*models.Template, error)
}
