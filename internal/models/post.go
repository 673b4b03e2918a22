// Package models defines the domain types for restdown.
package models

// Post is one indexed markdown document.
type Post struct {
	Slug       string         `json:"slug"`
	SourcePath string         `json:"-"`
	Title      string         `json:"title"`
	CreatedAt  *int64         `json:"createdAt"`
	UpdatedAt  *int64         `json:"updatedAt"`
	Categories []string       `json:"categories"`
	Tags       []string       `json:"tags"`
	Extras     map[string]any `json:"extras"`
}

// Category is a category name plus the number of posts referencing it.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Tag is a tag name plus the number of posts referencing it.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

