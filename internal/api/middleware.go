// Package api implements the restdown HTTP API using chi.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"
)

// StripSlashes drops a trailing slash before routing. chi's
// middleware.StripSlashes trims the decoded path, which turns an escaped
// "%2F" inside a segment back into a separator; this one trims the path chi
// actually routes on.
func StripSlashes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		path := r.URL.Path
		switch {
		case rctx != nil && rctx.RoutePath != "":
			path = rctx.RoutePath
		case r.URL.RawPath != "":
			path = r.URL.RawPath
		}
		if len(path) > 1 && strings.HasSuffix(path, "/") {
			path = strings.TrimSuffix(path, "/")
			if rctx != nil {
				rctx.RoutePath = path
			} else {
				r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
				r.URL.RawPath = strings.TrimSuffix(r.URL.RawPath, "/")
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Recoverer turns panics into a 500 JSON envelope. The panic value and stack
// are included in the body only when debug is set.
func Recoverer(debugMode bool, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				stack := string(debug.Stack())
				logger.Error("panic recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", stack))

				writeJSON(w, http.StatusInternalServerError, errorBody("internal_error").
					withDetail(debugMode, map[string]string{"error": fmt.Sprint(rec), "stack": stack}))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
