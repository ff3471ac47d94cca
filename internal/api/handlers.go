package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wikisync/internal/apperr"
	"github.com/starford/wikisync/internal/index"
	"github.com/starford/wikisync/internal/project"
)

// Handler holds API route handlers over the content index.
type Handler struct {
	ix     *index.Index
	layout *project.Layout
}

// NewHandler creates a new Handler.
func NewHandler(ix *index.Index, layout *project.Layout) *Handler {
	return &Handler{ix: ix, layout: layout}
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.ix.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Backlinks handles GET /api/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'title' is required"))
		return
	}
	links, err := h.ix.Backlinks(title)
	if err != nil {
		slog.Error("backlinks failed", slog.String("title", title), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":     title,
		"backlinks": links,
	})
}

// Problems handles GET /api/problems/{kind}, serving the maintenance
// queries: orphans, empty-categories, uncategorized, broken-links,
// double-redirects.
func (h *Handler) Problems(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var payload any
	var err error
	switch kind {
	case "orphans":
		payload, err = h.ix.Orphans()
	case "empty-categories":
		payload, err = h.ix.EmptyCategories()
	case "uncategorized":
		payload, err = h.ix.Uncategorized()
	case "broken-links":
		payload, err = h.ix.BrokenLinks()
	case "double-redirects":
		payload, err = h.ix.DoubleRedirects()
	default:
		writeJSON(w, http.StatusNotFound, errorBody("unknown problem kind"))
		return
	}
	if err != nil {
		slog.Error("problem query failed", slog.String("kind", kind), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":    kind,
		"results": payload,
	})
}

// PageContext handles GET /api/pages/context.
func (h *Handler) PageContext(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'title' is required"))
		return
	}
	page, err := h.ix.GetPage(title)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("page lookup failed", slog.String("title", title), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	content, err := h.layout.Read(page.Path)
	if err != nil {
		slog.Error("page read failed", slog.String("path", page.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	ctx, err := h.ix.Context(title, content)
	if err != nil {
		slog.Error("page context failed", slog.String("title", title), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ctx)
}
