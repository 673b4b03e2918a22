// Package index builds the post/category/tag index from the corpus and
// stores it in SQLite for paginated, filterable queries.
package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3_restdown"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	slug       TEXT PRIMARY KEY,
	path       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	created_at INTEGER,
	updated_at INTEGER,
	extras     TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS categories (
	name  TEXT PRIMARY KEY,
	count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tags (
	name  TEXT PRIMARY KEY,
	count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS posts_categories (
	post     TEXT NOT NULL,
	category TEXT NOT NULL,
	PRIMARY KEY (post, category)
);

CREATE TABLE IF NOT EXISTS posts_tags (
	post TEXT NOT NULL,
	tag  TEXT NOT NULL,
	PRIMARY KEY (post, tag)
);

CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
CREATE INDEX IF NOT EXISTS idx_posts_categories_category ON posts_categories(category);
CREATE INDEX IF NOT EXISTS idx_posts_tags_tag ON posts_tags(tag);
`

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("contains_fold", containsFold, true)
		},
	})
}

// containsFold backs the title filter. SQLite's LIKE folds ASCII only and
// treats % and _ as wildcards, so the match is done in Go.
func containsFold(s, substr string) int64 {
	if strings.Contains(strings.ToLower(s), strings.ToLower(substr)) {
		return 1
	}
	return 0
}

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open(driverName, dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
