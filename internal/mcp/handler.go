// Package mcp exposes the knowledge base over the Model Context Protocol so
// agent tooling can search and fetch instructions.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/garagekb/garagekb/internal/kb"
	"github.com/garagekb/garagekb/internal/search"
)

const snippetRadius = 50

type SearchRequest struct {
	Query string `json:"query"`          // Text to search for
	Type  string `json:"type,omitempty"` // title, content or advanced
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

type GetRequest struct {
	ID string `json:"id"` // Instruction id (folder name)
}

type GetResponse struct {
	Document DocumentPayload `json:"document"`
}

// DocumentPayload is the wire form of a document. Modified is unix seconds,
// matching the web API field names.
type DocumentPayload struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Images   []string `json:"images"`
	Tags     []string `json:"tags,omitempty"`
	Modified int64    `json:"modified"`
}

// NewServer creates an MCP server with the search and fetch tools bound to
// the given store and engine.
func NewServer(store *kb.Store, engine *search.Engine, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"GARAGE Knowledge Base",
		version,
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_instructions",
		mcp.WithDescription("Search the knowledge base and list matching instructions"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
		mcp.WithString("type",
			mcp.Description("Search type: title, content or advanced (default title)"),
		),
	)
	s.AddTool(searchTool, mcp.NewTypedToolHandler(searchHandler(store, engine)))

	getTool := mcp.NewTool("get_instruction",
		mcp.WithDescription("Fetch one instruction with its markdown content and metadata"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Instruction id, i.e. its folder name"),
		),
	)
	s.AddTool(getTool, mcp.NewTypedToolHandler(getHandler(store)))

	return s
}

func searchHandler(store *kb.Store, engine *search.Engine) func(ctx context.Context, request mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
		if args.Query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		docs := store.Documents(ctx)
		results := engine.Search(docs, search.Query{Text: args.Query, Type: args.Type})

		response := SearchResponse{Results: make([]SearchResult, 0, len(results))}
		for _, r := range results {
			response.Results = append(response.Results, SearchResult{
				ID:      r.Doc.ID,
				Title:   r.Doc.Title,
				Snippet: search.Snippet(r.Doc.Content, args.Query, snippetRadius),
			})
		}

		b, err := json.Marshal(response)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}

func getHandler(store *kb.Store) func(ctx context.Context, request mcp.CallToolRequest, args GetRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args GetRequest) (*mcp.CallToolResult, error) {
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		doc, err := store.Get(ctx, args.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get instruction: %v", err)), nil
		}

		b, err := json.Marshal(GetResponse{Document: DocumentPayload{
			ID:       doc.ID,
			Title:    doc.Title,
			Content:  doc.Content,
			Images:   doc.Images,
			Tags:     doc.Tags,
			Modified: doc.ModifiedAt.Unix(),
		}})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}
