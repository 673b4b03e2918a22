package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatch_MarkdownChangeTriggersCallback(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() {
		_ = Watch(ctx, root, 50*time.Millisecond, quietLogger(), func(context.Context) {
			calls.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New again"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "callback not invoked after markdown write")

	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (burst should be debounced)", n)
	}
}

func TestWatch_IgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() {
		_ = Watch(ctx, root, 30*time.Millisecond, quietLogger(), func(context.Context) {
			calls.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestWatch_NewSubdirectory(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() {
		_ = Watch(ctx, root, 30*time.Millisecond, quietLogger(), func(context.Context) {
			calls.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(root, "blog")
	_ = os.MkdirAll(sub, 0o755)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "callback not invoked after directory creation")

	before := calls.Load()
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "post.md"), []byte("# Post"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() > before
	}, "callback not invoked for file in new subdirectory")
}

func TestIsGitPath(t *testing.T) {
	root := "/srv/corpus"
	if !isGitPath(root, "/srv/corpus/.git/index") {
		t.Error("expected .git/index to be a git path")
	}
	if isGitPath(root, "/srv/corpus/blog/.gitkeep") {
		t.Error(".gitkeep should not be a git path")
	}
}
