package client

import (
	"context"
	"sync"
)

// ViewModel mirrors one board against the server, the way the browser UI
// does: it holds the currently open board, applies local edits eagerly, and
// folds pushed events back into its state.
//
// Local edits are optimistic. Push sends the whole document; on failure the
// local state is kept as-is so the user's edits are not lost, and the caller
// decides whether to retry or reload.
type ViewModel struct {
	mu sync.Mutex

	client *Client

	currentID string
	board     *Board

	// listingStale is set when an event concerns a board other than the
	// current one; the caller should re-fetch the listing when convenient.
	listingStale bool

	// invalidated is set when the current board was deleted remotely.
	invalidated bool
}

// NewViewModel creates a view model bound to a client.
func NewViewModel(c *Client) *ViewModel {
	return &ViewModel{client: c}
}

// Open fetches the board with the given id and makes it current.
func (vm *ViewModel) Open(ctx context.Context, id string) (*Board, error) {
	board, err := vm.client.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	vm.mu.Lock()
	vm.currentID = id
	vm.board = board
	vm.invalidated = false
	vm.mu.Unlock()
	return board.Clone(), nil
}

// CurrentID returns the id of the open board, or "" when none is open.
func (vm *ViewModel) CurrentID() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.currentID
}

// Board returns a copy of the mirrored board, or nil when none is open or
// the current board was invalidated by a remote deletion.
func (vm *ViewModel) Board() *Board {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return nil
	}
	return vm.board.Clone()
}

// Invalidated reports whether the current board was deleted remotely.
func (vm *ViewModel) Invalidated() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.invalidated
}

// ListingStale reports and clears the listing-stale flag.
func (vm *ViewModel) ListingStale() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	stale := vm.listingStale
	vm.listingStale = false
	return stale
}

// Apply folds one pushed event into the view model. Events for the current
// board replace or invalidate the mirror; events for other boards only mark
// the listing stale.
func (vm *ViewModel) Apply(ev Event) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if ev.ID != vm.currentID || vm.currentID == "" {
		vm.listingStale = true
		return
	}

	switch ev.Kind {
	case EventCreated, EventUpdated:
		if ev.Board != nil {
			vm.board = ev.Board.Clone()
			vm.invalidated = false
		}
	case EventDeleted:
		vm.board = nil
		vm.invalidated = true
	}
}

// AddTask appends a task to a column of the mirrored board. The edit is
// local until Push is called.
func (vm *ViewModel) AddTask(columnKey, task string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	col, ok := vm.board.Columns[columnKey]
	if !ok {
		return false
	}
	col.Tasks = append(col.Tasks, task)
	vm.board.Columns[columnKey] = col
	return true
}

// SetTask replaces the text of the task at index i in a column. The edit is
// local until Push is called.
func (vm *ViewModel) SetTask(columnKey string, i int, text string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	col, ok := vm.board.Columns[columnKey]
	if !ok || i < 0 || i >= len(col.Tasks) {
		return false
	}
	col.Tasks[i] = text
	vm.board.Columns[columnKey] = col
	return true
}

// RenameBoard changes the mirrored board's display name. The edit is local
// until Push is called.
func (vm *ViewModel) RenameBoard(name string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	vm.board.Name = name
	return true
}

// AddColumn adds an empty column under the given key. Fails when the key is
// already taken.
func (vm *ViewModel) AddColumn(key, name string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	if _, exists := vm.board.Columns[key]; exists {
		return false
	}
	vm.board.Columns[key] = Column{Name: name, Tasks: []string{}}
	return true
}

// RemoveColumn drops a column and its tasks from the mirrored board.
func (vm *ViewModel) RemoveColumn(key string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	if _, ok := vm.board.Columns[key]; !ok {
		return false
	}
	delete(vm.board.Columns, key)
	return true
}

// RenameColumn changes a column's display label, keeping its key and tasks.
func (vm *ViewModel) RenameColumn(key, name string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	col, ok := vm.board.Columns[key]
	if !ok {
		return false
	}
	col.Name = name
	vm.board.Columns[key] = col
	return true
}

// RemoveTask deletes the task at index i from a column of the mirrored
// board. The edit is local until Push is called.
func (vm *ViewModel) RemoveTask(columnKey string, i int) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	col, ok := vm.board.Columns[columnKey]
	if !ok || i < 0 || i >= len(col.Tasks) {
		return false
	}
	col.Tasks = append(col.Tasks[:i], col.Tasks[i+1:]...)
	vm.board.Columns[columnKey] = col
	return true
}

// MoveTask moves the task at index i of one column to the end of another.
// The edit is local until Push is called.
func (vm *ViewModel) MoveTask(fromKey string, i int, toKey string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.board == nil || vm.invalidated {
		return false
	}
	from, ok := vm.board.Columns[fromKey]
	if !ok || i < 0 || i >= len(from.Tasks) {
		return false
	}
	if fromKey == toKey {
		task := from.Tasks[i]
		from.Tasks = append(from.Tasks[:i], from.Tasks[i+1:]...)
		from.Tasks = append(from.Tasks, task)
		vm.board.Columns[fromKey] = from
		return true
	}
	to, ok := vm.board.Columns[toKey]
	if !ok {
		return false
	}
	task := from.Tasks[i]
	from.Tasks = append(from.Tasks[:i], from.Tasks[i+1:]...)
	to.Tasks = append(to.Tasks, task)
	vm.board.Columns[fromKey] = from
	vm.board.Columns[toKey] = to
	return true
}

// Push writes the mirrored board back to the server as a whole document.
// Concurrent editors race at whole-document granularity and the last push
// wins.
func (vm *ViewModel) Push(ctx context.Context) error {
	vm.mu.Lock()
	id := vm.currentID
	var board *Board
	if vm.board != nil && !vm.invalidated {
		board = vm.board.Clone()
	}
	vm.mu.Unlock()

	if board == nil || id == "" {
		return nil
	}
	return vm.client.UpdateBoard(ctx, id, board)
}
