package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nemorize/restdown/internal/apperr"
	"github.com/nemorize/restdown/internal/models"
)

const postColumns = `p.slug, p.path, p.title, p.created_at, p.updated_at, p.extras`

// scope restricts a post listing to the members of one category or tag.
type scope struct {
	join string
	cond string
	arg  any
}

type rowScanner interface {
	Scan(dest ...any) error
}

// GetPost returns the post with the given slug or apperr.ErrNotFound.
func (db *DB) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.slug = ?`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	posts := []models.Post{*p}
	if err := db.attachRelations(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// ListPosts returns one page of posts, newest createdAt first, and the size
// of the full filtered set.
func (db *DB) ListPosts(ctx context.Context, page models.Page) ([]models.Post, int, error) {
	return db.listPosts(ctx, nil, page)
}

// ListCategoryPosts is ListPosts restricted to posts in category.
func (db *DB) ListCategoryPosts(ctx context.Context, category string, page models.Page) ([]models.Post, int, error) {
	return db.listPosts(ctx, &scope{
		join: `JOIN posts_categories pc ON pc.post = p.slug`,
		cond: `pc.category = ?`,
		arg:  category,
	}, page)
}

// ListTagPosts is ListPosts restricted to posts carrying tag.
func (db *DB) ListTagPosts(ctx context.Context, tag string, page models.Page) ([]models.Post, int, error) {
	return db.listPosts(ctx, &scope{
		join: `JOIN posts_tags pt ON pt.post = p.slug`,
		cond: `pt.tag = ?`,
		arg:  tag,
	}, page)
}

func (db *DB) listPosts(ctx context.Context, sc *scope, page models.Page) ([]models.Post, int, error) {
	from := `posts p`
	var (
		conds []string
		args  []any
	)
	if sc != nil {
		from += ` ` + sc.join
		conds = append(conds, sc.cond)
		args = append(args, sc.arg)
	}
	if page.Query != "" {
		conds = append(conds, `contains_fold(p.title, ?)`)
		args = append(args, page.Query)
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	query := `SELECT ` + postColumns + ` FROM ` + from + where +
		` ORDER BY p.created_at DESC, p.slug ASC LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("index: scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := db.attachRelations(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListCategories returns every category with its post count, by name.
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name, count FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("index: list categories: %w", err)
	}
	defer rows.Close()
	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns one category or apperr.ErrNotFound.
func (db *DB) GetCategory(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := db.conn.QueryRowContext(ctx, `SELECT name, count FROM categories WHERE name = ?`, name).Scan(&c.Name, &c.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get category: %w", err)
	}
	return &c, nil
}

// ListTags returns every tag with its post count, by name.
func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name, count FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("index: list tags: %w", err)
	}
	defer rows.Close()
	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTag returns one tag or apperr.ErrNotFound.
func (db *DB) GetTag(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	err := db.conn.QueryRowContext(ctx, `SELECT name, count FROM tags WHERE name = ?`, name).Scan(&t.Name, &t.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get tag: %w", err)
	}
	return &t, nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p          models.Post
		created    sql.NullInt64
		updated    sql.NullInt64
		extrasJSON string
	)
	if err := row.Scan(&p.Slug, &p.SourcePath, &p.Title, &created, &updated, &extrasJSON); err != nil {
		return nil, err
	}
	if created.Valid {
		p.CreatedAt = &created.Int64
	}
	if updated.Valid {
		p.UpdatedAt = &updated.Int64
	}
	p.Extras = map[string]any{}
	if extrasJSON != "" {
		if err := json.Unmarshal([]byte(extrasJSON), &p.Extras); err != nil {
			return nil, fmt.Errorf("decode extras for %s: %w", p.Slug, err)
		}
	}
	p.Categories = []string{}
	p.Tags = []string{}
	return &p, nil
}

// attachRelations fills Categories and Tags of posts from the join tables,
// preserving insertion order.
func (db *DB) attachRelations(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	bySlug := make(map[string]*models.Post, len(posts))
	args := make([]any, len(posts))
	for i := range posts {
		bySlug[posts[i].Slug] = &posts[i]
		args[i] = posts[i].Slug
	}
	in := strings.TrimSuffix(strings.Repeat("?,", len(posts)), ",")

	load := func(query string, add func(p *models.Post, name string)) error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("index: load relations: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var slug, name string
			if err := rows.Scan(&slug, &name); err != nil {
				return err
			}
			if p, ok := bySlug[slug]; ok {
				add(p, name)
			}
		}
		return rows.Err()
	}

	if err := load(`SELECT post, category FROM posts_categories WHERE post IN (`+in+`) ORDER BY rowid`,
		func(p *models.Post, name string) { p.Categories = append(p.Categories, name) }); err != nil {
		return err
	}
	return load(`SELECT post, tag FROM posts_tags WHERE post IN (`+in+`) ORDER BY rowid`,
		func(p *models.Post, name string) { p.Tags = append(p.Tags, name) })
}
