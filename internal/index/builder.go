package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nemorize/restdown/internal/gitmeta"
	"github.com/nemorize/restdown/internal/models"
	"github.com/nemorize/restdown/internal/parser"
	"github.com/nemorize/restdown/internal/storage"
)

// Builder derives a complete Index from the corpus. Every Build re-scans all
// documents and re-resolves every timestamp; nothing carries over between
// builds.
type Builder struct {
	corpus storage.Provider
	git    gitmeta.TimestampSource
	logger *slog.Logger
}

// NewBuilder creates a Builder. git may be nil, in which case timestamps
// missing from front matter and file names stay null.
func NewBuilder(corpus storage.Provider, git gitmeta.TimestampSource, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{corpus: corpus, git: git, logger: logger}
}

// Build scans the corpus and returns the derived index. Per-document problems
// (unreadable file, bad front matter field, duplicate slug) are logged and
// skipped; only a failure to enumerate the corpus aborts the build.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	paths, err := b.corpus.Discover()
	if err != nil {
		return nil, fmt.Errorf("index: build: %w", err)
	}

	session := gitmeta.NewSession(b.git, b.logger)
	categories := make(map[string]int)
	tags := make(map[string]int)
	owners := make(map[string]string, len(paths))

	idx := &Index{Posts: make([]models.Post, 0, len(paths))}
	for _, path := range paths {
		post, ok := b.buildPost(ctx, session, path)
		if !ok {
			continue
		}
		if prev, dup := owners[post.Slug]; dup {
			b.logger.Warn("build: duplicate slug, skipping document",
				slog.String("slug", post.Slug),
				slog.String("path", path),
				slog.String("kept", prev))
			continue
		}
		owners[post.Slug] = path

		for _, c := range post.Categories {
			categories[c]++
		}
		for _, t := range post.Tags {
			tags[t]++
		}
		idx.Posts = append(idx.Posts, post)
		b.logger.Debug("build: indexed", slog.String("path", path), slog.String("slug", post.Slug))
	}

	for name, n := range categories {
		idx.Categories = append(idx.Categories, models.Category{Name: name, Count: n})
	}
	sort.Slice(idx.Categories, func(i, j int) bool { return idx.Categories[i].Name < idx.Categories[j].Name })
	for name, n := range tags {
		idx.Tags = append(idx.Tags, models.Tag{Name: name, Count: n})
	}
	sort.Slice(idx.Tags, func(i, j int) bool { return idx.Tags[i].Name < idx.Tags[j].Name })

	return idx, nil
}

func (b *Builder) buildPost(ctx context.Context, session *gitmeta.Session, path string) (models.Post, bool) {
	rel, err := b.corpus.Rel(path)
	if err != nil {
		b.logger.Warn("build: skip path", slog.String("path", path), slog.String("error", err.Error()))
		return models.Post{}, false
	}
	data, err := b.corpus.Read(path)
	if err != nil {
		b.logger.Warn("build: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return models.Post{}, false
	}

	res, warns := parser.Parse(rel, data)
	for _, w := range warns {
		b.logger.Warn("build: front matter field skipped",
			slog.String("path", rel),
			slog.String("field", w.Field),
			slog.String("error", w.Err.Error()))
	}

	if res.CreatedAt == nil {
		res.CreatedAt = session.CreatedAt(ctx, path)
	}
	if res.UpdatedAt == nil {
		res.UpdatedAt = session.UpdatedAt(ctx, path)
	}

	return models.Post{
		Slug:       res.Slug,
		SourcePath: path,
		Title:      res.Title,
		CreatedAt:  res.CreatedAt,
		UpdatedAt:  res.UpdatedAt,
		Categories: res.Categories,
		Tags:       res.Tags,
		Extras:     res.Extras,
	}, true
}

// Rebuild builds a fresh index and persists it, replacing the stored one.
func Rebuild(ctx context.Context, b *Builder, store Store) (Stats, error) {
	idx, err := b.Build(ctx)
	if err != nil {
		return Stats{}, err
	}
	if err := store.Persist(ctx, idx); err != nil {
		return Stats{}, err
	}
	return idx.Stats(), nil
}
