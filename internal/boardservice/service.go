// Package boardservice orchestrates board reads and mutations: identifier
// validation, existence/conflict policy, persistence, indexing, and change
// notification.
package boardservice

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/tavla/internal/apperr"
	"github.com/starford/tavla/internal/checksum"
	"github.com/starford/tavla/internal/events"
	"github.com/starford/tavla/internal/index"
	"github.com/starford/tavla/internal/models"
	"github.com/starford/tavla/internal/storage"
	"github.com/starford/tavla/internal/template"
)

// Service coordinates the document store, template initializer, board index,
// and notification bus. The index and bus are optional; a nil index disables
// search and a nil bus disables fan-out (MCP-only runs, tests).
//
// No per-id mutual exclusion is held across a logical operation: two
// concurrent updates to the same board both succeed and the last write wins.
type Service struct {
	store storage.Store
	tmpl  *template.Initializer
	idx   index.BoardIndex
	bus   *events.Bus
}

// NewService creates a board service.
func NewService(store storage.Store, tmpl *template.Initializer, idx index.BoardIndex, bus *events.Bus) *Service {
	return &Service{store: store, tmpl: tmpl, idx: idx, bus: bus}
}

// Get returns the board for id, materializing and persisting a fresh
// document from the template when none exists yet. The implicit
// materialization emits no event; only explicit mutations do.
func (s *Service) Get(_ context.Context, id string) (*models.Board, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}
	exists, err := s.store.Exists(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return s.store.Read(id)
	}
	board, err := s.tmpl.Materialize(id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(id, board); err != nil {
		return nil, err
	}
	s.indexBoard(id, board)
	return board, nil
}

// Create persists the supplied document verbatim under a fresh id and emits
// a created event. Fails if the id is already taken.
func (s *Service) Create(_ context.Context, id string, board *models.Board) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}
	exists, err := s.store.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("board %s: %w", id, apperr.ErrAlreadyExists)
	}
	if err := s.store.Write(id, board); err != nil {
		return err
	}
	s.indexBoard(id, board)
	s.publish(events.Event{Kind: events.KindCreated, ID: id, Board: board.Clone()})
	return nil
}

// Update overwrites an existing board with the supplied document and emits
// an updated event. The overwrite is last-write-wins at whole-document
// granularity; there is no concurrency token.
func (s *Service) Update(_ context.Context, id string, board *models.Board) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}
	exists, err := s.store.Exists(id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("board %s: %w", id, apperr.ErrNotFound)
	}
	if err := s.store.Write(id, board); err != nil {
		return err
	}
	s.indexBoard(id, board)
	s.publish(events.Event{Kind: events.KindUpdated, ID: id, Board: board.Clone()})
	return nil
}

// Delete removes a board permanently and emits a deleted event. There is no
// tombstone; a later Get re-materializes from the template.
func (s *Service) Delete(_ context.Context, id string) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if s.idx != nil {
		_ = s.idx.DeleteBoard(id)
	}
	s.publish(events.Event{Kind: events.KindDeleted, ID: id})
	return nil
}

// List enumerates every board's id and display name, template excluded.
func (s *Service) List(_ context.Context) ([]models.BoardSummary, error) {
	return s.store.List()
}

// Search runs a full-text query over board names and task text.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.idx == nil {
		return nil, nil
	}
	return s.idx.Search(query, limit)
}

// publish emits exactly one event per successful mutation, after the store
// operation durably completed and before the caller gets its response.
func (s *Service) publish(ev events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ev)
}

// indexBoard mirrors a freshly written board into the index. The checksum is
// taken over the encoded bytes, which are exactly what the store wrote, so
// the watcher can tell service-driven writes from out-of-band edits.
func (s *Service) indexBoard(id string, board *models.Board) {
	if s.idx == nil {
		return
	}
	data, err := models.EncodeBoard(board)
	if err != nil {
		return
	}
	_ = s.idx.UpsertBoard(index.BoardRow{
		ID:        id,
		Name:      board.Name,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}, board.SearchBody())
}
