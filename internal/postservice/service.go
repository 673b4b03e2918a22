// Package postservice joins index records with their rendered HTML for the
// outward-facing surfaces (HTTP and MCP).
package postservice

import (
	"context"
	"log/slog"

	"github.com/nemorize/restdown/internal/index"
	"github.com/nemorize/restdown/internal/models"
	"github.com/nemorize/restdown/internal/render"
)

// Post is a post with its rendered body. SourcePath is never serialized.
type Post struct {
	models.Post
	Content string `json:"content"`
}

// PostPage is one window of a post listing plus the filtered total.
type PostPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

// Service coordinates index queries and rendering.
type Service struct {
	q        index.Querier
	renderer render.HTMLRenderer
	logger   *slog.Logger
}

// NewService creates a new post service.
func NewService(q index.Querier, renderer render.HTMLRenderer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{q: q, renderer: renderer, logger: logger}
}

// GetPost returns one post with content, or apperr.ErrNotFound.
func (s *Service) GetPost(ctx context.Context, slug string) (*Post, error) {
	p, err := s.q.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	out := s.withContent(*p)
	return &out, nil
}

// ListPosts returns a page of posts, newest first.
func (s *Service) ListPosts(ctx context.Context, page models.Page) (*PostPage, error) {
	posts, total, err := s.q.ListPosts(ctx, page)
	if err != nil {
		return nil, err
	}
	return s.page(posts, total), nil
}

// ListCategoryPosts returns a page of the posts in category.
func (s *Service) ListCategoryPosts(ctx context.Context, category string, page models.Page) (*PostPage, error) {
	posts, total, err := s.q.ListCategoryPosts(ctx, category, page)
	if err != nil {
		return nil, err
	}
	return s.page(posts, total), nil
}

// ListTagPosts returns a page of the posts carrying tag.
func (s *Service) ListTagPosts(ctx context.Context, tag string, page models.Page) (*PostPage, error) {
	posts, total, err := s.q.ListTagPosts(ctx, tag, page)
	if err != nil {
		return nil, err
	}
	return s.page(posts, total), nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.q.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, name string) (*models.Category, error) {
	return s.q.GetCategory(ctx, name)
}

func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.q.ListTags(ctx)
}

func (s *Service) GetTag(ctx context.Context, name string) (*models.Tag, error) {
	return s.q.GetTag(ctx, name)
}

func (s *Service) page(posts []models.Post, total int) *PostPage {
	out := &PostPage{Posts: make([]Post, len(posts)), Total: total}
	for i, p := range posts {
		out.Posts[i] = s.withContent(p)
	}
	return out
}

// withContent renders p. A document that vanished or failed to render since
// the last rebuild is served with empty content.
func (s *Service) withContent(p models.Post) Post {
	html, err := s.renderer.Render(p.SourcePath)
	if err != nil {
		s.logger.Warn("render failed", slog.String("slug", p.Slug), slog.String("error", err.Error()))
	}
	return Post{Post: p, Content: html}
}
