package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to corpus directory
}

// NewFS creates a new FS provider rooted at the given directory. The directory
// may not exist yet (the webhook clones into it); if it exists it must be a
// directory.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("storage: stat root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute corpus root.
func (f *FS) Root() string { return f.root }

// Exists reports whether the corpus root directory is present.
func (f *FS) Exists() bool {
	info, err := os.Stat(f.root)
	return err == nil && info.IsDir()
}

// IsMarkdown reports whether name carries a case-insensitive .md extension.
func IsMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

// Discover walks the root and returns the absolute path of every markdown
// file, sorted. Unreadable subdirectories are skipped; a missing or
// unreadable root is an error. Version-control metadata is never descended.
func (f *FS) Discover() ([]string, error) {
	var out []string
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == f.root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if IsMarkdown(d.Name()) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: discover: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// Rel returns path relative to the root with forward slashes. Paths outside
// the root are rejected.
func (f *FS) Rel(path string) (string, error) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return "", fmt.Errorf("storage: rel %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes corpus root: %s", path)
	}
	return filepath.ToSlash(rel), nil
}

// Resolve joins ref onto dir and rejects any result that escapes the root
// (directory traversal). A leading "/" is still relative to dir, not to the
// corpus root.
func (f *FS) Resolve(dir, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("storage: empty reference")
	}
	abs, err := filepath.Abs(filepath.Join(dir, filepath.FromSlash(ref)))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes corpus root: %s", ref)
	}
	return abs, nil
}

// Read returns the raw bytes of a corpus file.
func (f *FS) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// ModTime returns the modification time of a corpus file.
func (f *FS) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}
