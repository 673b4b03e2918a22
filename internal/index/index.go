package index

import (
	"context"

	"github.com/nemorize/restdown/internal/models"
)

// Querier is the read side of the index. Consumers should depend on this
// interface rather than the concrete *DB type.
type Querier interface {
	GetPost(ctx context.Context, slug string) (*models.Post, error)
	ListPosts(ctx context.Context, page models.Page) ([]models.Post, int, error)
	ListCategoryPosts(ctx context.Context, category string, page models.Page) ([]models.Post, int, error)
	ListTagPosts(ctx context.Context, tag string, page models.Page) ([]models.Post, int, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, name string) (*models.Category, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, name string) (*models.Tag, error)
}

// Store is the write side: one whole-index replacement per rebuild.
type Store interface {
	Persist(ctx context.Context, idx *Index) error
}

// Verify *DB satisfies both sides at compile time.
var (
	_ Querier = (*DB)(nil)
	_ Store   = (*DB)(nil)
)

// Index is one generation of the derived corpus index.
type Index struct {
	Posts      []models.Post
	Categories []models.Category
	Tags       []models.Tag
}

// Stats summarizes an index generation.
type Stats struct {
	Posts      int `json:"posts"`
	Categories int `json:"categories"`
	Tags       int `json:"tags"`
}

// Stats returns the cardinalities of idx.
func (idx *Index) Stats() Stats {
	return Stats{Posts: len(idx.Posts), Categories: len(idx.Categories), Tags: len(idx.Tags)}
}
