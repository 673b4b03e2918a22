package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempCorpus(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func writeFile(t *testing.T, fs *FS, rel, content string) string {
	t.Helper()
	p := filepath.Join(fs.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDiscover(t *testing.T) {
	s := tempCorpus(t)
	writeFile(t, s, "a.md", "a")
	writeFile(t, s, "sub/b.MD", "b")
	writeFile(t, s, "sub/deeper/c.Md", "c")
	writeFile(t, s, "readme.txt", "not md")
	writeFile(t, s, ".git/notes.md", "ignored")

	paths, err := s.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(paths), paths)
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("path %q is not absolute", p)
		}
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	s, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if s.Exists() {
		t.Error("Exists() = true for missing root")
	}
	if _, err := s.Discover(); err == nil {
		t.Error("expected error discovering a missing root")
	}
}

func TestRel(t *testing.T) {
	s := tempCorpus(t)
	p := writeFile(t, s, "blog/2023-01-15-hello.md", "x")
	rel, err := s.Rel(p)
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}
	if rel != "blog/2023-01-15-hello.md" {
		t.Errorf("rel = %q", rel)
	}
	if _, err := s.Rel(filepath.Dir(s.Root())); err == nil {
		t.Error("expected error for path outside root")
	}
}

func TestResolve(t *testing.T) {
	s := tempCorpus(t)
	doc := writeFile(t, s, "blog/post.md", "x")
	img := writeFile(t, s, "blog/img/photo.png", "png")

	got, err := s.Resolve(filepath.Dir(doc), "./img/photo.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != img {
		t.Errorf("resolved = %q, want %q", got, img)
	}
}

func TestResolve_LeadingSlashStaysInDocumentDir(t *testing.T) {
	s := tempCorpus(t)
	doc := writeFile(t, s, "blog/post.md", "x")
	img := writeFile(t, s, "blog/img/photo.png", "png")
	writeFile(t, s, "img/photo.png", "root copy")

	got, err := s.Resolve(filepath.Dir(doc), "/img/photo.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != img {
		t.Errorf("resolved = %q, want %q", got, img)
	}

	if _, err := s.Resolve(filepath.Dir(doc), "/../../outside.png"); err == nil {
		t.Error("expected leading-slash traversal to be rejected")
	}
}

func TestResolve_TraversalBlocked(t *testing.T) {
	s := tempCorpus(t)
	dir := filepath.Join(s.Root(), "blog")

	cases := []string{
		"../../etc/passwd",
		"../../../outside.png",
		"",
	}
	for _, ref := range cases {
		if _, err := s.Resolve(dir, ref); err == nil {
			t.Errorf("expected error for ref %q", ref)
		}
	}
}

func TestReadAndModTime(t *testing.T) {
	s := tempCorpus(t)
	p := writeFile(t, s, "note.md", "# Hello\n")
	data, err := s.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "# Hello\n" {
		t.Errorf("content = %q", data)
	}
	if _, err := s.ModTime(p); err != nil {
		t.Fatalf("ModTime: %v", err)
	}
	if _, err := s.Read(filepath.Join(s.Root(), "nope.md")); err == nil {
		t.Error("expected error reading missing file")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "restdown-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestIsMarkdown(t *testing.T) {
	for name, want := range map[string]bool{
		"a.md": true, "b.MD": true, "c.mD": true, "d.markdown": false, "md": false, "e.txt": false,
	} {
		if got := IsMarkdown(name); got != want {
			t.Errorf("IsMarkdown(%q) = %v, want %v", name, got, want)
		}
	}
}
