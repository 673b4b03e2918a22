package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// toEpoch converts a front matter timestamp into epoch seconds. Numbers are
// taken as-is; strings are parsed as dates in UTC.
func toEpoch(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("timestamp %d out of range", x)
		}
		return int64(x), nil
	case float64:
		return int64(x), nil
	case time.Time:
		return x.Unix(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, fmt.Errorf("empty date")
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), nil
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return 0, fmt.Errorf("unparseable date %q: %w", s, err)
		}
		return t.Unix(), nil
	case nil:
		return 0, fmt.Errorf("empty date")
	default:
		return 0, fmt.Errorf("unsupported date type %T", v)
	}
}

// scalarString renders a YAML scalar as a string. Collections are rejected.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(x), true
	case time.Time:
		return x.Format(time.RFC3339), true
	default:
		return "", false
	}
}

// toStringSet normalizes a scalar or a sequence of scalars into a
// deduplicated list, preserving first-seen order.
func toStringSet(v any) []string {
	var out []string
	add := func(item any) {
		if s, ok := scalarString(item); ok && s != "" {
			out = union(out, []string{s})
		}
	}
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			add(item)
		}
	case []string:
		for _, item := range x {
			add(item)
		}
	default:
		add(x)
	}
	return out
}

// union appends the members of b missing from a.
func union(a, b []string) []string {
	for _, s := range b {
		dup := false
		for _, have := range a {
			if have == s {
				dup = true
				break
			}
		}
		if !dup {
			a = append(a, s)
		}
	}
	return a
}

// normalizeValue rewrites YAML mappings with non-string keys so that extras
// always encode as JSON objects.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return x
	}
}
