// Package gitmeta answers source-control questions about corpus files and
// keeps the corpus working copy in sync with its remote. The default
// implementation shells out to the git binary.
package gitmeta

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// TimestampSource lists the commit timestamps (epoch seconds) touching a file.
type TimestampSource interface {
	CommitTimestamps(ctx context.Context, path string) ([]int64, error)
}

// Syncer materializes and updates a working copy.
type Syncer interface {
	IsRepository(root string) bool
	Clone(ctx context.Context, root, remote string) error
	Pull(ctx context.Context, root string) error
}

// Git runs the git binary as a subprocess.
type Git struct {
	Binary string
}

var (
	_ TimestampSource = (*Git)(nil)
	_ Syncer          = (*Git)(nil)
)

// New returns a Git using the binary found on PATH.
func New() *Git {
	return &Git{Binary: "git"}
}

// CommitTimestamps runs git log for path inside the file's directory, so the
// repository is discovered from the file rather than the process cwd.
func (g *Git) CommitTimestamps(ctx context.Context, path string) ([]int64, error) {
	out, err := g.run(ctx, filepath.Dir(path), "log", "--pretty=format:%ct", "--", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	var stamps []int64
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ts, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("git log %s: bad timestamp %q", path, line)
		}
		stamps = append(stamps, ts)
	}
	return stamps, nil
}

// IsRepository reports whether root holds a git working copy.
func (g *Git) IsRepository(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

// Clone materializes remote into root. root may exist but must be empty.
func (g *Git) Clone(ctx context.Context, root, remote string) error {
	if remote == "" {
		return fmt.Errorf("git clone: no remote configured")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	parent := filepath.Dir(abs)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	_, err = g.run(ctx, parent, "clone", "--", remote, abs)
	return err
}

// Pull fast-forwards the working copy at root from its upstream.
func (g *Git) Pull(ctx context.Context, root string) error {
	_, err := g.run(ctx, root, "pull", "--ff-only")
	return err
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
