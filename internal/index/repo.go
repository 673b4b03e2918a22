package index

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persist replaces the stored index with idx. The clear-and-repopulate runs in
// a single transaction, so readers on other connections observe either the
// previous generation or the new one, never a partial index.
func (db *DB) Persist(ctx context.Context, idx *Index) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"posts_tags", "posts_categories", "tags", "categories", "posts"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("index: clear %s: %w", table, err)
		}
	}

	postStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (slug, path, title, created_at, updated_at, extras)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare post insert: %w", err)
	}
	defer postStmt.Close()

	catStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO posts_categories (post, category) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare category link insert: %w", err)
	}
	defer catStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO posts_tags (post, tag) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare tag link insert: %w", err)
	}
	defer tagStmt.Close()

	for _, p := range idx.Posts {
		extras, err := json.Marshal(p.Extras)
		if err != nil {
			return fmt.Errorf("index: encode extras for %s: %w", p.Slug, err)
		}
		if _, err := postStmt.ExecContext(ctx, p.Slug, p.SourcePath, p.Title, p.CreatedAt, p.UpdatedAt, string(extras)); err != nil {
			return fmt.Errorf("index: insert post %s: %w", p.Slug, err)
		}
		for _, c := range p.Categories {
			if _, err := catStmt.ExecContext(ctx, p.Slug, c); err != nil {
				return fmt.Errorf("index: insert category link: %w", err)
			}
		}
		for _, t := range p.Tags {
			if _, err := tagStmt.ExecContext(ctx, p.Slug, t); err != nil {
				return fmt.Errorf("index: insert tag link: %w", err)
			}
		}
	}

	for _, c := range idx.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (name, count) VALUES (?, ?)`, c.Name, c.Count); err != nil {
			return fmt.Errorf("index: insert category %q: %w", c.Name, err)
		}
	}
	for _, t := range idx.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (name, count) VALUES (?, ?)`, t.Name, t.Count); err != nil {
			return fmt.Errorf("index: insert tag %q: %w", t.Name, err)
		}
	}

	return tx.Commit()
}
