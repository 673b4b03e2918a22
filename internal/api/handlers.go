package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/nemorize/restdown/internal/apperr"
	"github.com/nemorize/restdown/internal/postservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *postservice.Service
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, cfg: cfg, logger: logger}
}

// pathParam returns the named URL parameter, unescaped. Category names may
// contain "/", sent as %2F. chi routes on RawPath when the request has one,
// so only then is the parameter still escaped.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}

// fail maps err onto a response. notFound is the message used for
// apperr.ErrNotFound.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody("validation_failed").withDetail(true, verr.Fields))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(notFound))
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error").withDetail(h.cfg.Debug, errorDetail(err)))
	}
}

// Welcome handles GET /.
//
//	@Summary	Service identity
//	@Produce	json
//	@Success	200	{object}	WelcomeResponse
//	@Router		/ [get]
func (h *Handler) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, WelcomeResponse{Success: true, URL: h.cfg.URL, Name: h.cfg.Name})
}

// ListPosts handles GET /posts.
//
//	@Summary	List posts, newest first
//	@Tags		posts
//	@Produce	json
//	@Param		offset	query		int		false	"Page offset"	default(0)	minimum(0)
//	@Param		limit	query		int		false	"Page size"		default(10)	minimum(1)	maximum(100)
//	@Param		query	query		string	false	"Case-insensitive title filter"
//	@Success	200		{object}	PostListResponse
//	@Failure	400		{object}	errResponse
//	@Router		/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	res, err := h.svc.ListPosts(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Success: true, Posts: res.Posts, Total: res.Total})
}

// GetPost handles GET /posts/{slug}.
//
//	@Summary	Get a single post by slug
//	@Tags		posts
//	@Produce	json
//	@Param		slug	path		string	true	"Post slug"
//	@Success	200		{object}	PostResponse
//	@Failure	404		{object}	errResponse
//	@Router		/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), pathParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err, "post_not_found")
		return
	}
	writeJSON(w, http.StatusOK, PostResponse{Success: true, Post: *post})
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, CategoryListResponse{Success: true, Categories: cats})
}

// GetCategory handles GET /categories/{category}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.svc.GetCategory(r.Context(), pathParam(r, "category"))
	if err != nil {
		h.fail(w, r, err, "category_not_found")
		return
	}
	writeJSON(w, http.StatusOK, CategoryResponse{Success: true, Category: *cat})
}

// ListCategoryPosts handles GET /categories/{category}/posts.
func (h *Handler) ListCategoryPosts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	res, err := h.svc.ListCategoryPosts(r.Context(), pathParam(r, "category"), page)
	if err != nil {
		h.fail(w, r, err, "category_not_found")
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Success: true, Posts: res.Posts, Total: res.Total})
}

// ListTags handles GET /tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Success: true, Tags: tags})
}

// GetTag handles GET /tags/{tag}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.svc.GetTag(r.Context(), pathParam(r, "tag"))
	if err != nil {
		h.fail(w, r, err, "tag_not_found")
		return
	}
	writeJSON(w, http.StatusOK, TagResponse{Success: true, Tag: *tag})
}

// ListTagPosts handles GET /tags/{tag}/posts.
func (h *Handler) ListTagPosts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	res, err := h.svc.ListTagPosts(r.Context(), pathParam(r, "tag"), page)
	if err != nil {
		h.fail(w, r, err, "tag_not_found")
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Success: true, Posts: res.Posts, Total: res.Total})
}
