// Package models defines the domain types for Tavla.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tavla/internal/apperr"
)

// TemplateID is the reserved record id holding the board template.
// It can never be used as a board id and is excluded from listings.
const TemplateID = "defaultData"

// Column is a named, ordered task list within a board.
type Column struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

// Board is the full document for one board. The id is not part of the
// document; it is the lookup key and durable filename stem.
type Board struct {
	Name    string            `json:"name"`
	Columns map[string]Column `json:"columns"`
}

// Template is the seed record supplying a prototype board for new-board
// bootstrap. ActiveBoard points at an entry in Boards.
type Template struct {
	ActiveBoard string           `json:"activeBoard"`
	Boards      map[string]Board `json:"boards"`
}

// BoardSummary is a lightweight enumeration entry returned by store listings.
type BoardSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Checksum  string    `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ValidateID enforces the canonical board id rule: letters and digits only,
// and never the reserved template id. Every entry point (HTTP, MCP, client)
// runs ids through this single rule.
func ValidateID(id string) error {
	if err := validation.Validate(id,
		validation.Required,
		validation.Match(idPattern).Error("only letters and digits allowed"),
	); err != nil {
		return fmt.Errorf("%w: %q: %v", apperr.ErrInvalidID, id, err)
	}
	if id == TemplateID {
		return fmt.Errorf("%w: %q is reserved", apperr.ErrInvalidID, id)
	}
	return nil
}

// DisplayName derives a default human-readable name from an id by replacing
// underscores with spaces. A no-op for ids that pass ValidateID; kept because
// the template initializer applies it before the caller overrides the name.
func DisplayName(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}

// Clone returns a deep copy of the board. The result shares no columns map
// and no task slice with the receiver.
func (b *Board) Clone() *Board {
	out := &Board{Name: b.Name, Columns: make(map[string]Column, len(b.Columns))}
	for key, col := range b.Columns {
		tasks := make([]string, len(col.Tasks))
		copy(tasks, col.Tasks)
		out.Columns[key] = Column{Name: col.Name, Tasks: tasks}
	}
	return out
}

// SortedColumnKeys returns the column keys in lexicographic order, which is
// chronological order for ISO date keys.
func (b *Board) SortedColumnKeys() []string {
	keys := make([]string, 0, len(b.Columns))
	for k := range b.Columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderTasks materializes the column's tasks for display: empty and
// whitespace-only entries are dropped and duplicate text is collapsed to its
// first occurrence. The persisted array itself may still contain duplicates
// written by concurrent editors.
func (c Column) RenderTasks() []string {
	seen := make(map[string]struct{}, len(c.Tasks))
	out := make([]string, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Normalize re-derives every column's task array from its rendered view.
// This is what a client does when it rebuilds the array before writing, so
// the first writer to normalize dedupes the durable record.
func (b *Board) Normalize() {
	for key, col := range b.Columns {
		col.Tasks = col.RenderTasks()
		b.Columns[key] = col
	}
}

// SearchBody flattens the board's display label, column names and task text
// into one string for indexing.
func (b *Board) SearchBody() string {
	var sb strings.Builder
	sb.WriteString(b.Name)
	for _, key := range b.SortedColumnKeys() {
		col := b.Columns[key]
		sb.WriteString("\n")
		sb.WriteString(col.Name)
		for _, t := range col.Tasks {
			sb.WriteString("\n")
			sb.WriteString(t)
		}
	}
	return sb.String()
}

// DecodeBoard parses stored bytes into a board document. Any parse failure is
// reported as a corrupt record.
func DecodeBoard(data []byte) (*Board, error) {
	var b Board
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorrupt, err)
	}
	if b.Columns == nil {
		b.Columns = make(map[string]Column)
	}
	return &b, nil
}

// DecodeTemplate parses stored bytes into the template record.
func DecodeTemplate(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTemplateMissing, err)
	}
	return &t, nil
}

// EncodeBoard renders a board document to the durable representation.
// Indented to keep the on-disk files diffable.
func EncodeBoard(b *Board) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return append(data, '\n'), nil
}
