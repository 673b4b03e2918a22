package gitmeta

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// gitCmd runs git in dir with a fixed identity and commit dates.
func gitCmd(t *testing.T, dir, date string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_AUTHOR_DATE="+date, "GIT_COMMITTER_DATE="+date,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gitCmd(t, dir, "", "init", "-q", "-b", "main")
	return dir
}

func commitFile(t *testing.T, repo, rel, content, date string) {
	t.Helper()
	p := filepath.Join(repo, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, repo, date, "add", rel)
	gitCmd(t, repo, date, "commit", "-q", "-m", "update "+rel)
}

func TestCommitTimestamps(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	commitFile(t, repo, "blog/post.md", "v1", "1600000000 +0000")
	commitFile(t, repo, "blog/post.md", "v2", "1700000000 +0000")

	g := New()
	stamps, err := g.CommitTimestamps(context.Background(), filepath.Join(repo, "blog", "post.md"))
	if err != nil {
		t.Fatalf("CommitTimestamps: %v", err)
	}
	if len(stamps) != 2 {
		t.Fatalf("stamps = %v, want 2 entries", stamps)
	}

	s := NewSession(g, nil)
	ctx := context.Background()
	path := filepath.Join(repo, "blog", "post.md")
	if c := s.CreatedAt(ctx, path); c == nil || *c != 1600000000 {
		t.Errorf("CreatedAt = %v, want 1600000000", c)
	}
	if u := s.UpdatedAt(ctx, path); u == nil || *u != 1700000000 {
		t.Errorf("UpdatedAt = %v, want 1700000000", u)
	}
}

func TestCommitTimestamps_Untracked(t *testing.T) {
	requireGit(t)
	repo := initRepo(t)
	commitFile(t, repo, "a.md", "a", "1600000000 +0000")
	untracked := filepath.Join(repo, "b.md")
	_ = os.WriteFile(untracked, []byte("b"), 0o644)

	s := NewSession(New(), nil)
	if c := s.CreatedAt(context.Background(), untracked); c != nil {
		t.Errorf("CreatedAt = %d, want nil for untracked file", *c)
	}
}

func TestCommitTimestamps_NotARepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "x.md")
	_ = os.WriteFile(p, []byte("x"), 0o644)

	s := NewSession(New(), nil)
	if u := s.UpdatedAt(context.Background(), p); u != nil {
		t.Errorf("UpdatedAt = %d, want nil outside a repository", *u)
	}
}

type countingSource struct {
	calls  map[string]int
	stamps []int64
	err    error
}

func (c *countingSource) CommitTimestamps(_ context.Context, path string) ([]int64, error) {
	c.calls[path]++
	return c.stamps, c.err
}

func TestSession_CachesPerPath(t *testing.T) {
	src := &countingSource{calls: map[string]int{}, stamps: []int64{30, 10, 20}}
	s := NewSession(src, nil)
	ctx := context.Background()

	if c := s.CreatedAt(ctx, "/a.md"); c == nil || *c != 10 {
		t.Errorf("CreatedAt = %v, want 10", c)
	}
	if u := s.UpdatedAt(ctx, "/a.md"); u == nil || *u != 30 {
		t.Errorf("UpdatedAt = %v, want 30", u)
	}
	if src.calls["/a.md"] != 1 {
		t.Errorf("calls = %d, want 1", src.calls["/a.md"])
	}

	fresh := NewSession(src, nil)
	fresh.Timestamps(ctx, "/a.md")
	if src.calls["/a.md"] != 2 {
		t.Errorf("a new session must not reuse the previous cache")
	}
}

func TestSession_ErrorMeansNoHistory(t *testing.T) {
	src := &countingSource{calls: map[string]int{}, err: errors.New("boom")}
	s := NewSession(src, nil)
	ctx := context.Background()
	if c := s.CreatedAt(ctx, "/a.md"); c != nil {
		t.Errorf("CreatedAt = %d, want nil", *c)
	}
	s.UpdatedAt(ctx, "/a.md")
	if src.calls["/a.md"] != 1 {
		t.Errorf("failed lookups should be cached too, calls = %d", src.calls["/a.md"])
	}
}

func TestCloneAndPull(t *testing.T) {
	requireGit(t)
	remote := initRepo(t)
	commitFile(t, remote, "first.md", "1", "1600000000 +0000")

	g := New()
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "corpus")

	if g.IsRepository(root) {
		t.Fatal("IsRepository true before clone")
	}
	if err := g.Clone(ctx, root, remote); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if !g.IsRepository(root) {
		t.Fatal("IsRepository false after clone")
	}

	commitFile(t, remote, "second.md", "2", "1600000100 +0000")
	if err := g.Pull(ctx, root); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "second.md")); err != nil {
		t.Errorf("pulled file missing: %v", err)
	}
}

func TestPull_UnreachableRemote(t *testing.T) {
	requireGit(t)
	remote := initRepo(t)
	commitFile(t, remote, "first.md", "1", "1600000000 +0000")

	g := New()
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "corpus")
	if err := g.Clone(ctx, root, remote); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if err := os.RemoveAll(remote); err != nil {
		t.Fatal(err)
	}
	if err := g.Pull(ctx, root); err == nil {
		t.Error("expected pull from a vanished remote to fail")
	}
}

func TestClone_NoRemote(t *testing.T) {
	g := New()
	if err := g.Clone(context.Background(), t.TempDir(), ""); err == nil {
		t.Error("expected error without a remote")
	}
}
