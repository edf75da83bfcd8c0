package httpapi

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskproxy/internal/usecase/tasks"
)

//go:embed static
var staticFS embed.FS

// NewRouter builds the client-facing HTTP surface of the proxy.
func NewRouter(svc *tasks.Service) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", h.landing)
	r.Get("/health", h.health)
	r.Get("/apply", h.apply)
	r.Get("/submit", h.submit)
	r.Get("/tasks", h.tasks)
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	return r
}
