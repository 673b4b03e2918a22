package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON encodes v as the response body. Encoding errors are logged;
// the status line is already written by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// errResponse is the envelope of every failed request.
type errResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message" example:"post_not_found" validate:"required"`
	Detail  any    `json:"detail,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Message: msg}
}

// withDetail attaches detail when show is set. Internal error text only
// leaves the process in debug mode.
func (e errResponse) withDetail(show bool, detail any) errResponse {
	if show {
		e.Detail = detail
	}
	return e
}

func errorDetail(err error) map[string]string {
	if err == nil {
		return nil
	}
	return map[string]string{"error": err.Error()}
}
