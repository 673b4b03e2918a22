// Package apperr holds the error taxonomy shared by the core and its callers.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSignature        = errors.New("invalid signature")
	ErrUnsupportedEvent = errors.New("unsupported event")
	ErrClone            = errors.New("clone failed")
	ErrPull             = errors.New("pull failed")
)

// ValidationError reports request parameters that violate their constraints.
// Fields maps the offending field name to its constraint, e.g. "min [0]".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsRejection reports whether err means a webhook delivery was refused
// before any side effect took place.
func IsRejection(err error) bool {
	return errors.Is(err, ErrSignature) || errors.Is(err, ErrUnsupportedEvent)
}
