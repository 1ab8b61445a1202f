// Package template materializes new board documents from the shared
// template record on first access.
package template

import (
	"fmt"

	"github.com/starford/tavla/internal/apperr"
	"github.com/starford/tavla/internal/models"
	"github.com/starford/tavla/internal/storage"
)

// Initializer derives brand-new board documents from the template record.
type Initializer struct {
	store storage.Store
}

// NewInitializer creates an Initializer reading from the given store.
func NewInitializer(store storage.Store) *Initializer {
	return &Initializer{store: store}
}

// Check verifies at boot that the template record resolves to a usable
// prototype, so a broken template fails fast instead of on first access.
func (i *Initializer) Check() error {
	_, err := i.prototype()
	return err
}

// Materialize produces a new board whose columns are a deep, independent
// copy of the template prototype's columns and whose name defaults to the
// requested id with separators replaced by spaces. Mutating the result never
// affects the template or any previously materialized board.
func (i *Initializer) Materialize(requestedID string) (*models.Board, error) {
	proto, err := i.prototype()
	if err != nil {
		return nil, err
	}
	board := proto.Clone()
	board.Name = models.DisplayName(requestedID)
	return board, nil
}

func (i *Initializer) prototype() (*models.Board, error) {
	tmpl, err := i.store.ReadTemplate()
	if err != nil {
		return nil, err
	}
	if tmpl.ActiveBoard == "" || tmpl.Boards == nil {
		return nil, fmt.Errorf("%w: template needs a boards object and an activeBoard key", apperr.ErrTemplateMissing)
	}
	proto, ok := tmpl.Boards[tmpl.ActiveBoard]
	if !ok {
		return nil, fmt.Errorf("%w: activeBoard %q not present in template boards", apperr.ErrTemplateMissing, tmpl.ActiveBoard)
	}
	return &proto, nil
}
