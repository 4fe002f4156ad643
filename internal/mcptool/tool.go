// Package mcptool exposes ranked search as a Model Context Protocol tool.
package mcptool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/repl"
)

const ToolName = "search_documents"

// SearchArgument defines the tool parameters.
type SearchArgument struct {
	Query string `json:"query" jsonschema_description:"Free-text query; terms are weighted by TF-IDF"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of documents to return"`
}

type SearchHandler struct {
	searcher     repl.Searcher
	tracker      analytics.Tracker
	defaultLimit int
	maxResults   int
}

// NewSearchHandler creates the tool handler. tracker may be nil.
func NewSearchHandler(searcher repl.Searcher, tracker analytics.Tracker, defaultLimit, maxResults int) *SearchHandler {
	return &SearchHandler{
		searcher:     searcher,
		tracker:      tracker,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
	}
}

// Handle runs the query and renders results in the same layout as the REPL.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = h.defaultLimit
	}
	if h.maxResults > 0 && limit > h.maxResults {
		limit = h.maxResults
	}

	start := time.Now()
	result, err := h.searcher.Search(ctx, args.Query, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	if h.tracker != nil {
		h.tracker.Track(analytics.QueryEvent{
			Type:            analytics.ClassifyEvent(result.Terms, len(result.Results)),
			Surface:         analytics.SurfaceMCP,
			Query:           args.Query,
			Terms:           result.Terms,
			OutOfVocabulary: result.OutOfVocabulary,
			TotalHits:       result.TotalHits,
			Returned:        len(result.Results),
			LatencyMs:       time.Since(start).Milliseconds(),
			Fingerprint:     result.Fingerprint,
			Timestamp:       time.Now().UTC(),
		})
	}

	var sb strings.Builder
	repl.Render(&sb, result)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}, nil, nil
}

func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolName,
		Description: "Rank documents in the indexed corpus against a free-text query using TF-IDF cosine similarity",
	}
}

// NewServer builds an MCP server with the search tool registered.
func NewServer(handler *SearchHandler, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "vsm-search", Version: version}, nil)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
	return server
}

// ServeStdio blocks serving the tool over stdin/stdout until ctx ends or
// the client disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}
