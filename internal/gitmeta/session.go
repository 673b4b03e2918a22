package gitmeta

import (
	"context"
	"log/slog"
)

// Session memoizes commit timestamps for the lifetime of one rebuild. A new
// Session must be created for every rebuild; nothing is shared across them.
type Session struct {
	src    TimestampSource
	logger *slog.Logger
	cache  map[string][]int64
}

// NewSession wraps src with a per-rebuild cache. A nil src yields a session
// that reports no history for every path.
func NewSession(src TimestampSource, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{src: src, logger: logger, cache: make(map[string][]int64)}
}

// Timestamps returns the commit timestamps of path. A failing query is
// treated as "no history" and cached as such.
func (s *Session) Timestamps(ctx context.Context, path string) []int64 {
	if stamps, ok := s.cache[path]; ok {
		return stamps
	}
	var stamps []int64
	if s.src != nil {
		var err error
		stamps, err = s.src.CommitTimestamps(ctx, path)
		if err != nil {
			s.logger.Debug("git: no history", slog.String("path", path), slog.String("error", err.Error()))
			stamps = nil
		}
	}
	s.cache[path] = stamps
	return stamps
}

// CreatedAt returns the earliest commit timestamp of path, or nil.
func (s *Session) CreatedAt(ctx context.Context, path string) *int64 {
	stamps := s.Timestamps(ctx, path)
	if len(stamps) == 0 {
		return nil
	}
	lo := stamps[0]
	for _, ts := range stamps[1:] {
		lo = min(lo, ts)
	}
	return &lo
}

// UpdatedAt returns the latest commit timestamp of path, or nil.
func (s *Session) UpdatedAt(ctx context.Context, path string) *int64 {
	stamps := s.Timestamps(ctx, path)
	if len(stamps) == 0 {
		return nil
	}
	hi := stamps[0]
	for _, ts := range stamps[1:] {
		hi = max(hi, ts)
	}
	return &hi
}
