package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeServer is a minimal in-memory stand-in for the board API.
type fakeServer struct {
	mu     sync.Mutex
	boards map[string]*Board
}

func newFakeServer() *fakeServer {
	return &fakeServer{boards: make(map[string]*Board)}
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/boards/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		b, ok := f.boards[id]
		if !ok {
			b = &Board{Name: id, Columns: map[string]Column{
				"backlog": {Name: "Backlog", Tasks: []string{}},
			}}
			f.boards[id] = b
		}
		_ = json.NewEncoder(w).Encode(b)
	})
	mux.HandleFunc("PUT /api/boards/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		if _, ok := f.boards[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"board does not exist"}`))
			return
		}
		var b Board
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.boards[id] = &b
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func (f *fakeServer) get(id string) *Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boards[id].Clone()
}

func testViewModel(t *testing.T) (*ViewModel, *fakeServer) {
	t.Helper()
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewViewModel(New(srv.URL)), fake
}

func TestOpenAndLocalEdit(t *testing.T) {
	vm, _ := testViewModel(t)
	ctx := context.Background()

	board, err := vm.Open(ctx, "trip")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if board.Name != "trip" {
		t.Errorf("name = %q", board.Name)
	}

	if !vm.AddTask("backlog", "pack bags") {
		t.Fatal("AddTask failed")
	}
	got := vm.Board()
	if len(got.Columns["backlog"].Tasks) != 1 {
		t.Errorf("tasks = %v", got.Columns["backlog"].Tasks)
	}
}

func TestPushPersistsWholeDocument(t *testing.T) {
	vm, fake := testViewModel(t)
	ctx := context.Background()

	if _, err := vm.Open(ctx, "trip"); err != nil {
		t.Fatal(err)
	}
	vm.AddTask("backlog", "pack bags")
	vm.AddTask("backlog", "buy map")

	if err := vm.Push(ctx); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got := fake.get("trip")
	tasks := got.Columns["backlog"].Tasks
	if len(tasks) != 2 || tasks[0] != "pack bags" {
		t.Errorf("server tasks = %v", tasks)
	}
}

func TestApplyUpdateForCurrentBoard(t *testing.T) {
	vm, _ := testViewModel(t)
	ctx := context.Background()
	if _, err := vm.Open(ctx, "trip"); err != nil {
		t.Fatal(err)
	}

	vm.Apply(Event{Kind: EventUpdated, ID: "trip", Board: &Board{
		Name: "trip",
		Columns: map[string]Column{
			"backlog": {Name: "Backlog", Tasks: []string{"from another editor"}},
		},
	}})

	got := vm.Board()
	if got.Columns["backlog"].Tasks[0] != "from another editor" {
		t.Errorf("tasks = %v", got.Columns["backlog"].Tasks)
	}
	if vm.ListingStale() {
		t.Error("event for current board should not mark listing stale")
	}
}

func TestApplyDeleteInvalidatesCurrentBoard(t *testing.T) {
	vm, _ := testViewModel(t)
	if _, err := vm.Open(context.Background(), "trip"); err != nil {
		t.Fatal(err)
	}

	vm.Apply(Event{Kind: EventDeleted, ID: "trip"})

	if !vm.Invalidated() {
		t.Error("current board should be invalidated")
	}
	if vm.Board() != nil {
		t.Error("Board() should return nil after invalidation")
	}
	// Edits against an invalidated mirror are refused.
	if vm.AddTask("backlog", "too late") {
		t.Error("AddTask should fail after invalidation")
	}
	// Push becomes a no-op rather than resurrecting the board.
	if err := vm.Push(context.Background()); err != nil {
		t.Errorf("Push after invalidation: %v", err)
	}
}

func TestApplyOtherBoardMarksListingStale(t *testing.T) {
	vm, _ := testViewModel(t)
	if _, err := vm.Open(context.Background(), "trip"); err != nil {
		t.Fatal(err)
	}

	vm.Apply(Event{Kind: EventCreated, ID: "other", Board: &Board{Name: "other"}})

	if !vm.ListingStale() {
		t.Error("event for other board should mark listing stale")
	}
	// Reading the flag clears it.
	if vm.ListingStale() {
		t.Error("flag should clear after read")
	}
	// The mirror is untouched.
	if got := vm.Board(); got == nil || got.Name != "trip" {
		t.Errorf("mirror = %+v", got)
	}
}

func TestMoveTask(t *testing.T) {
	vm, _ := testViewModel(t)
	if _, err := vm.Open(context.Background(), "trip"); err != nil {
		t.Fatal(err)
	}

	vm.Apply(Event{Kind: EventUpdated, ID: "trip", Board: &Board{
		Name: "trip",
		Columns: map[string]Column{
			"todo": {Name: "Todo", Tasks: []string{"a", "b"}},
			"done": {Name: "Done", Tasks: []string{}},
		},
	}})

	if !vm.MoveTask("todo", 0, "done") {
		t.Fatal("MoveTask failed")
	}
	got := vm.Board()
	if len(got.Columns["todo"].Tasks) != 1 || got.Columns["todo"].Tasks[0] != "b" {
		t.Errorf("todo = %v", got.Columns["todo"].Tasks)
	}
	if len(got.Columns["done"].Tasks) != 1 || got.Columns["done"].Tasks[0] != "a" {
		t.Errorf("done = %v", got.Columns["done"].Tasks)
	}
}

func TestRemoveTask(t *testing.T) {
	vm, _ := testViewModel(t)
	if _, err := vm.Open(context.Background(), "trip"); err != nil {
		t.Fatal(err)
	}
	vm.AddTask("backlog", "a")
	vm.AddTask("backlog", "b")

	if !vm.RemoveTask("backlog", 0) {
		t.Fatal("RemoveTask failed")
	}
	got := vm.Board()
	tasks := got.Columns["backlog"].Tasks
	if len(tasks) != 1 || tasks[0] != "b" {
		t.Errorf("tasks = %v", tasks)
	}
	if vm.RemoveTask("backlog", 5) {
		t.Error("out-of-range remove should fail")
	}
}

func TestColumnAndBoardEdits(t *testing.T) {
	vm, _ := testViewModel(t)
	if _, err := vm.Open(context.Background(), "trip"); err != nil {
		t.Fatal(err)
	}

	if !vm.RenameBoard("Summer Trip") {
		t.Fatal("RenameBoard failed")
	}
	if !vm.AddColumn("done", "Done") {
		t.Fatal("AddColumn failed")
	}
	if vm.AddColumn("done", "Again") {
		t.Error("duplicate column key should fail")
	}
	if !vm.RenameColumn("done", "Finished") {
		t.Fatal("RenameColumn failed")
	}
	vm.AddTask("backlog", "draft")
	if !vm.SetTask("backlog", 0, "final") {
		t.Fatal("SetTask failed")
	}

	got := vm.Board()
	if got.Name != "Summer Trip" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Columns["done"].Name != "Finished" {
		t.Errorf("column name = %q", got.Columns["done"].Name)
	}
	if got.Columns["backlog"].Tasks[0] != "final" {
		t.Errorf("task = %q", got.Columns["backlog"].Tasks[0])
	}

	if !vm.RemoveColumn("done") {
		t.Fatal("RemoveColumn failed")
	}
	if _, ok := vm.Board().Columns["done"]; ok {
		t.Error("column survived removal")
	}
}

func TestPushFailureKeepsLocalState(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	vm := NewViewModel(New(srv.URL))

	if _, err := vm.Open(context.Background(), "trip"); err != nil {
		t.Fatal(err)
	}
	vm.AddTask("backlog", "unsaved work")

	// Server gone; push fails but the mirror keeps the edit.
	srv.Close()
	if err := vm.Push(context.Background()); err == nil {
		t.Error("Push should fail when the server is unreachable")
	}
	got := vm.Board()
	if len(got.Columns["backlog"].Tasks) != 1 {
		t.Errorf("local edit lost: %v", got.Columns["backlog"].Tasks)
	}
}
