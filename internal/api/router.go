package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/agentnote/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/docs", func(r chi.Router) {
		r.Get("/", h.ListDocs)
		r.Post("/", h.SaveDoc)
		r.Get("/{id}", h.GetDoc)
		r.Put("/{id}", h.UpdateDoc)
		r.Delete("/{id}", h.DeleteDoc)
	})
	r.Get("/categories", h.DocCategories)
	r.Get("/tags", h.Tags)

	r.Route("/ideas", func(r chi.Router) {
		r.Get("/", h.ListIdeas)
		r.Post("/", h.AddIdea)
		r.Get("/categories", h.IdeaCategories)
		r.Get("/{id}", h.GetIdea)
		r.Put("/{id}", h.UpdateIdea)
		r.Delete("/{id}", h.DeleteIdea)
		r.Get("/{id}/relations", h.Relations)
	})
	r.Post("/relations", h.AddRelation)
	r.Get("/recent", h.Recent)

	r.Post("/chat", h.Chat)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return r
}
