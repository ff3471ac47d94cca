package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/wikisync/internal/index"
	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/scanner"
	"github.com/starford/wikisync/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	layout, db := testutil.TestProject(t)
	ix, err := index.New(db)
	if err != nil {
		t.Fatal(err)
	}

	codec := pathcodec.New(nil)
	pages := map[string]string{
		"Alpha": "Intro text. [[Beta]] [[Category:People]]",
		"Beta":  "[[Alpha]]",
	}
	for title, content := range pages {
		if err := layout.Write(codec.TitleToPath(title, false), []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	files, err := scanner.Scan(layout, codec)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Rebuild(files, layout.Read); err != nil {
		t.Fatal(err)
	}

	return New(ix, layout)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so invoke the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_pages":
		result, err = srv.searchPages(ctx, req)
	case "read_page":
		result, err = srv.readPage(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_page_context":
		result, err = srv.getPageContext(ctx, req)
	case "list_problems":
		result, err = srv.listProblems(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadPage(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_page", map[string]interface{}{"title": "Beta"})
	if got := resultText(r); got != "[[Alpha]]" {
		t.Errorf("read result = %q", got)
	}

	r = callTool(t, srv, "read_page", map[string]interface{}{"title": "Nope"})
	if !r.IsError {
		t.Error("expected error for missing page")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"title": "Alpha"})
	if got := resultText(r); got != "Beta" {
		t.Errorf("backlinks = %q, want Beta", got)
	}
}

func TestGetPageContext(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_page_context", map[string]interface{}{"title": "Alpha"})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("context errored: %s", text)
	}
	if !strings.Contains(text, `"Category:People"`) {
		t.Errorf("context missing categories: %s", text)
	}
}

func TestListProblems(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_problems", map[string]interface{}{"kind": "double-redirects"})
	if r.IsError {
		t.Errorf("list_problems errored: %s", resultText(r))
	}

	r = callTool(t, srv, "list_problems", map[string]interface{}{"kind": "nonsense"})
	if !r.IsError {
		t.Error("expected error for unknown kind")
	}
}
