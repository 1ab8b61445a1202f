// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Tavla board tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tavla/internal/boardservice"
	"github.com/starford/tavla/internal/models"
)

// Server wraps the MCP server with Tavla tools. All mutations route through
// the board service, so connected SSE clients still see them.
type Server struct {
	mcp *server.MCPServer
	svc *boardservice.Service
}

// New creates a new MCP server with all Tavla tools registered.
func New(svc *boardservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Tavla",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_boards",
		mcp.WithDescription("List every board's id and display name."),
	), s.listBoards)

	s.mcp.AddTool(mcp.NewTool("read_board",
		mcp.WithDescription("Read a board's full JSON document. Boards that do not exist yet "+
			"are created from the shared template, so this never fails for a valid id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Board id (letters and digits only)")),
	), s.readBoard)

	s.mcp.AddTool(mcp.NewTool("create_board",
		mcp.WithDescription("Create a new board from a full JSON document. "+
			"The document MUST follow the canonical board format; read it first via the "+
			"get_board_contract tool or the tavla://board-format resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Board id (letters and digits only)")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Board JSON document following the Tavla board format contract")),
	), s.createBoard)

	s.mcp.AddTool(mcp.NewTool("delete_board",
		mcp.WithDescription("Delete a board permanently. There is no undo."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Board id to delete")),
	), s.deleteBoard)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Append a task to one column of a board."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Board id")),
		mcp.WithString("column", mcp.Required(), mcp.Description("Column key (free-form id or ISO date)")),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task text (non-empty)")),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Full-text search across board names and task text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchTasks)

	// Resource: board format contract.
	s.mcp.AddResource(
		mcp.NewResource("tavla://board-format", "Board Format Contract",
			mcp.WithResourceDescription("Canonical board JSON document format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBoardFormatResource,
	)

	s.mcp.AddTool(mcp.NewTool("get_board_contract",
		mcp.WithDescription("Returns the canonical Tavla board document contract. "+
			"Call this before creating boards to ensure correct structure."),
	), s.getBoardContract)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(summaries))
	for _, b := range summaries {
		lines = append(lines, fmt.Sprintf("%s\t%s", b.ID, b.Name))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no boards"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	board, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(board, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	board, err := models.DecodeBoard([]byte(doc))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid board document: %v", err)), nil
	}
	if err := s.svc.Create(ctx, id, board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) deleteBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	columnKey, err := req.RequireString("column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(task) == "" {
		return mcp.NewToolResultError("task text must be non-empty"), nil
	}

	// Whole-document read-modify-write, like any other client.
	board, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	col, ok := board.Columns[columnKey]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no such column: %s (have: %s)",
			columnKey, strings.Join(board.SortedColumnKeys(), ", "))), nil
	}
	col.Tasks = append(col.Tasks, task)
	board.Columns[columnKey] = col

	if err := s.svc.Update(ctx, id, board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added task to %s/%s", id, columnKey)), nil
}

func (s *Server) searchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBoardContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BoardFormatContract), nil
}

func (s *Server) readBoardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tavla://board-format",
			MIMEType: "text/markdown",
			Text:     BoardFormatContract,
		},
	}, nil
}
