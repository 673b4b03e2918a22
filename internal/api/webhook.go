package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nemorize/restdown/internal/apperr"
	"github.com/nemorize/restdown/internal/webhook"
)

// maxWebhookBody caps the delivery payload read into memory.
const maxWebhookBody = 25 << 20

// Deliverer runs a webhook delivery through the rebuild pipeline.
type Deliverer interface {
	Handle(ctx context.Context, d webhook.Delivery) webhook.Outcome
}

// WebhookHandler serves POST /webhook.
type WebhookHandler struct {
	pipeline Deliverer
	debug    bool
	logger   *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(pipeline Deliverer, debug bool, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{pipeline: pipeline, debug: debug, logger: logger}
}

// ServeHTTP handles POST /webhook.
//
//	@Summary	Repository push webhook
//	@Tags		webhook
//	@Param		X-GitHub-Event		header	string	true	"Event name (ping, push)"
//	@Param		X-Hub-Signature-256	header	string	true	"sha256=<hex HMAC of the body>"
//	@Success	200	{object}	WebhookResponse
//	@Failure	400	{object}	errResponse
//	@Failure	500	{object}	errResponse
//	@Router		/webhook [post]
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("body_unreadable"))
		return
	}

	out := h.pipeline.Handle(r.Context(), webhook.Delivery{
		Event:     r.Header.Get(webhook.HeaderEvent),
		Signature: r.Header.Get(webhook.HeaderSignature),
		Body:      body,
	})

	status := out.Result.HTTPStatus()
	switch out.Result {
	case webhook.Acknowledged:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("pong"))
	case webhook.Rebuilt:
		writeJSON(w, status, WebhookResponse{Success: true, Stats: out.Stats})
	default:
		writeJSON(w, status, errorBody(outcomeMessage(out.Err)).withDetail(h.debug && out.Err != nil, errorDetail(out.Err)))
	}
}

func outcomeMessage(err error) string {
	if apperr.IsRejection(err) {
		if errors.Is(err, apperr.ErrSignature) {
			return "invalid_signature"
		}
		return "unsupported_event"
	}
	switch {
	case errors.Is(err, apperr.ErrClone):
		return "clone_failed"
	case errors.Is(err, apperr.ErrPull):
		return "pull_failed"
	default:
		return "rebuild_failed"
	}
}
