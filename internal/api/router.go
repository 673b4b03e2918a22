package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nemorize/restdown/internal/postservice"
)

// Config carries the boundary settings of the API.
type Config struct {
	Name  string
	URL   string
	Debug bool
}

// NewRouter creates a chi router with all API routes mounted.
// hook, if non-nil, is mounted at POST /webhook.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *postservice.Service, hook Deliverer, sseHandler http.Handler, cfg Config, logger *slog.Logger) chi.Router {
	h := NewHandler(svc, cfg, logger)

	r := chi.NewRouter()
	r.Use(Recoverer(cfg.Debug, logger))
	r.Use(StripSlashes)

	r.Get("/", h.Welcome)

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)

	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{category}", h.GetCategory)
	r.Get("/categories/{category}/posts", h.ListCategoryPosts)

	r.Get("/tags", h.ListTags)
	r.Get("/tags/{tag}", h.GetTag)
	r.Get("/tags/{tag}/posts", h.ListTagPosts)

	if hook != nil {
		r.Method(http.MethodPost, "/webhook", NewWebhookHandler(hook, cfg.Debug, logger))
	}

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
