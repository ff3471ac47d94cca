// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the wiki index tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wikisync/internal/index"
	"github.com/starford/wikisync/internal/project"
)

// Server wraps the MCP server with index query tools.
type Server struct {
	mcp    *server.MCPServer
	ix     *index.Index
	layout *project.Layout
}

// New creates a new MCP server with all tools registered.
func New(ix *index.Index, layout *project.Layout) *Server {
	s := &Server{ix: ix, layout: layout}

	s.mcp = server.NewMCPServer(
		"Wikisync",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Full-text search through wiki page content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read the full wikitext of a page by title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Wiki page title (e.g. Template:Infobox person)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_page_context",
		mcp.WithDescription("Get a structured summary of one page: preview, sections, "+
			"outgoing links, backlinks, categories, templates and modules."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Wiki page title")),
	), s.getPageContext)

	s.mcp.AddTool(mcp.NewTool("list_problems",
		mcp.WithDescription("List index maintenance problems of one kind: "+
			"orphans, empty-categories, uncategorized, broken-links or double-redirects."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Problem kind")),
	), s.listProblems)

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

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.ix.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.ix.GetPage(title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", title)), nil
	}
	data, err := s.layout.Read(page.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.ix.Backlinks(title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) getPageContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.ix.GetPage(title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", title)), nil
	}
	data, err := s.layout.Read(page.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pctx, err := s.ix.Context(title, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(pctx, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listProblems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var payload any
	switch kind {
	case "orphans":
		payload, err = s.ix.Orphans()
	case "empty-categories":
		payload, err = s.ix.EmptyCategories()
	case "uncategorized":
		payload, err = s.ix.Uncategorized()
	case "broken-links":
		payload, err = s.ix.BrokenLinks()
	case "double-redirects":
		payload, err = s.ix.DoubleRedirects()
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown problem kind: %s", kind)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
