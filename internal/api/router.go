package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/wikisync/internal/index"
	"github.com/starford/wikisync/internal/project"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(ix *index.Index, layout *project.Layout, authEnabled bool, token string) chi.Router {
	h := NewHandler(ix, layout)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/search", h.Search)
	r.Get("/backlinks", h.Backlinks)
	r.Get("/problems/{kind}", h.Problems)
	r.Get("/pages/context", h.PageContext)

	return r
}
