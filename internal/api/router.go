// Package api implements the Tavla REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tavla/internal/boardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events (receive-only push
// channel from the client's perspective).
func NewRouter(svc *boardservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Boards CRUD.
	r.Get("/boards", h.ListBoards)
	r.Get("/boards/{id}", h.GetBoard)
	r.Post("/boards/{id}", h.CreateBoard)
	r.Put("/boards/{id}", h.UpdateBoard)
	r.Delete("/boards/{id}", h.DeleteBoard)

	// Task search.
	r.Get("/search", h.Search)

	// SSE push channel.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
