package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tavla/internal/apperr"
	"github.com/starford/tavla/internal/boardservice"
	"github.com/starford/tavla/internal/index"
	"github.com/starford/tavla/internal/models"
)

// maxBoardBody caps incoming board documents at 1 MiB, matching the cap the
// store enforces on the template record.
const maxBoardBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *boardservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *boardservice.Service) *Handler {
	return &Handler{svc: svc}
}

func boardID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// decodeBoard reads the request body as a full board document.
func decodeBoard(w http.ResponseWriter, r *http.Request) (*models.Board, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBoardBody)
	var board models.Board
	if err := json.NewDecoder(r.Body).Decode(&board); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return nil, false
	}
	if board.Columns == nil {
		board.Columns = make(map[string]models.Column)
	}
	return &board, true
}

// writeError maps service errors to the stable status categories.
func writeError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid board id (only alphanumeric allowed)"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("board does not exist"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("board already exists"))
	default:
		// Corrupt records and template faults are server-side integrity
		// problems, not client errors.
		slog.Error(op+" failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListBoards handles GET /boards: every persisted board's id and display
// name, template record excluded.
func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("list boards failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]BoardListItem, len(summaries))
	for i, s := range summaries {
		items[i] = BoardListItem{ID: s.ID, Name: s.Name}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetBoard handles GET /boards/{id}. A missing board is materialized from
// the template and persisted, never a 404.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	id := boardID(r)
	board, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get board", id, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// CreateBoard handles POST /boards/{id}.
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	id := boardID(r)
	board, ok := decodeBoard(w, r)
	if !ok {
		return
	}
	if err := h.svc.Create(r.Context(), id, board); err != nil {
		writeError(w, "create board", id, err)
		return
	}
	writeJSON(w, http.StatusCreated, StatusResponse{Status: "created"})
}

// UpdateBoard handles PUT /boards/{id}: whole-document overwrite,
// last-write-wins.
func (h *Handler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	id := boardID(r)
	board, ok := decodeBoard(w, r)
	if !ok {
		return
	}
	if err := h.svc.Update(r.Context(), id, board); err != nil {
		writeError(w, "update board", id, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// DeleteBoard handles DELETE /boards/{id}.
func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := boardID(r)
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, "delete board", id, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Search handles GET /search: full-text query over board names and tasks.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
