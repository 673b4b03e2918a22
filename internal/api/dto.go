package api

import (
	"github.com/nemorize/restdown/internal/index"
	"github.com/nemorize/restdown/internal/models"
	"github.com/nemorize/restdown/internal/postservice"
)

// Post is a post with its rendered HTML (aliased from the domain layer).
type Post = postservice.Post

// WelcomeResponse identifies the service.
type WelcomeResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url" example:"https://blog.example.com"`
	Name    string `json:"name" example:"restdown"`
}

// PostListResponse wraps a paginated post listing.
type PostListResponse struct {
	Success bool   `json:"success"`
	Posts   []Post `json:"posts" validate:"required"`
	Total   int    `json:"total" example:"42" validate:"required"`
}

// PostResponse wraps a single post.
type PostResponse struct {
	Success bool `json:"success"`
	Post    Post `json:"post" validate:"required"`
}

// CategoryListResponse wraps all categories.
type CategoryListResponse struct {
	Success    bool              `json:"success"`
	Categories []models.Category `json:"categories" validate:"required"`
}

// CategoryResponse wraps a single category.
type CategoryResponse struct {
	Success  bool            `json:"success"`
	Category models.Category `json:"category" validate:"required"`
}

// TagListResponse wraps all tags.
type TagListResponse struct {
	Success bool         `json:"success"`
	Tags    []models.Tag `json:"tags" validate:"required"`
}

// TagResponse wraps a single tag.
type TagResponse struct {
	Success bool       `json:"success"`
	Tag     models.Tag `json:"tag" validate:"required"`
}

// WebhookResponse reports a completed push rebuild.
type WebhookResponse struct {
	Success bool        `json:"success"`
	Stats   index.Stats `json:"stats"`
}
