// Package client is a typed Go client for the Tavla HTTP API, including an
// SSE subscription for board change events and a ViewModel that mirrors a
// single board against the event stream.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors mapped from the server's status categories. Check with
// errors.Is.
var (
	ErrInvalidID     = errors.New("invalid board id")
	ErrNotFound      = errors.New("board not found")
	ErrAlreadyExists = errors.New("board already exists")
)

// Column is one column of a board document.
type Column struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

// Board is a full board document, read and written whole.
type Board struct {
	Name    string            `json:"name"`
	Columns map[string]Column `json:"columns"`
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{Name: b.Name, Columns: make(map[string]Column, len(b.Columns))}
	for key, col := range b.Columns {
		tasks := make([]string, len(col.Tasks))
		copy(tasks, col.Tasks)
		out.Columns[key] = Column{Name: col.Name, Tasks: tasks}
	}
	return out
}

// BoardListItem is one entry of the board listing.
type BoardListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchResult is one full-text search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// Event kinds delivered over the SSE stream.
const (
	EventCreated = "board.created"
	EventUpdated = "board.updated"
	EventDeleted = "board.deleted"
)

// Event is one board change notification received over SSE. Board is nil
// for deletions.
type Event struct {
	Kind  string `json:"-"`
	ID    string `json:"id"`
	Board *Board `json:"board,omitempty"`
}

// Client talks to a Tavla server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithHTTPClient creates a client using a caller-supplied http.Client.
// Pass a client without timeout for Events; SSE connections are long-lived.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type errResponse struct {
	Error string `json:"error"`
}

// apiError converts a non-2xx response into a sentinel-wrapped error.
func apiError(resp *http.Response) error {
	var body errResponse
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w", msg, ErrInvalidID)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, ErrAlreadyExists)
	default:
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, msg)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// GetBoard fetches a board. A board that did not exist is created server-side
// from the template, so this only fails on invalid ids or server faults.
func (c *Client) GetBoard(ctx context.Context, id string) (*Board, error) {
	var board Board
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(id), nil, &board); err != nil {
		return nil, err
	}
	if board.Columns == nil {
		board.Columns = make(map[string]Column)
	}
	return &board, nil
}

// CreateBoard creates a new board with the given document.
func (c *Client) CreateBoard(ctx context.Context, id string, board *Board) error {
	return c.do(ctx, http.MethodPost, "/api/boards/"+url.PathEscape(id), board, nil)
}

// UpdateBoard overwrites an existing board with the given document.
func (c *Client) UpdateBoard(ctx context.Context, id string, board *Board) error {
	return c.do(ctx, http.MethodPut, "/api/boards/"+url.PathEscape(id), board, nil)
}

// DeleteBoard deletes a board permanently.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/boards/"+url.PathEscape(id), nil, nil)
}

// ListBoards returns every board's id and display name.
func (c *Client) ListBoards(ctx context.Context) ([]BoardListItem, error) {
	var items []BoardListItem
	if err := c.do(ctx, http.MethodGet, "/api/boards", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search runs a full-text query over board names and task text.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var resp struct {
		Results []SearchResult `json:"results"`
	}
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Events subscribes to the server's SSE stream and delivers parsed events on
// the returned channel until ctx is cancelled or the connection drops. The
// channel is closed on return. Delivery is at-least-once from the server's
// perspective; treat events as refresh hints, not a change log.
func (c *Client) Events(ctx context.Context) (<-chan Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("event stream: unexpected status %d", resp.StatusCode)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		var kind, data string
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "":
				// Blank line terminates one SSE frame.
				if kind == "" || data == "" {
					kind, data = "", ""
					continue
				}
				var ev Event
				if err := json.Unmarshal([]byte(data), &ev); err == nil {
					ev.Kind = kind
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
				kind, data = "", ""
			}
		}
	}()
	return out, nil
}
