package api

import "github.com/starford/tavla/internal/index"

// BoardListItem is one entry in the board listing response.
type BoardListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StatusResponse is the body returned by mutating endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// SearchResponse wraps task search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}
