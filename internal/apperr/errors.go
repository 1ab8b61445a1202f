// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrInvalidID means a board identifier failed the alphabet check.
	ErrInvalidID = errors.New("invalid board id")
	// ErrNotFound means the operation requires a board that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists means a create collided with an existing board.
	ErrAlreadyExists = errors.New("already exists")
	// ErrCorrupt means stored bytes do not parse as a board document.
	ErrCorrupt = errors.New("corrupt board document")
	// ErrTemplateMissing means the template record is absent or malformed.
	ErrTemplateMissing = errors.New("template missing or malformed")
)
