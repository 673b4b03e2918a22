// Package webhook runs the rebuild pipeline for repository push deliveries:
// verify signature, sync the working copy, rebuild the index, then drop the
// render cache.
package webhook

import (
	"context"
	"crypto/hmac"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nemorize/restdown/internal/apperr"
	"github.com/nemorize/restdown/internal/checksum"
	"github.com/nemorize/restdown/internal/gitmeta"
	"github.com/nemorize/restdown/internal/index"
)

// Delivery headers.
const (
	HeaderEvent     = "X-GitHub-Event"
	HeaderSignature = "X-Hub-Signature-256"
)

// Result is the outcome class of one delivery.
type Result int

const (
	Acknowledged Result = iota
	Rebuilt
	Rejected
	Failed
)

func (r Result) String() string {
	switch r {
	case Acknowledged:
		return "acknowledged"
	case Rebuilt:
		return "rebuilt"
	case Rejected:
		return "rejected"
	default:
		return "failed"
	}
}

// HTTPStatus maps r to the response status code.
func (r Result) HTTPStatus() int {
	switch r {
	case Rejected:
		return http.StatusBadRequest
	case Failed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// Delivery is one inbound webhook request.
type Delivery struct {
	Event     string
	Signature string
	Body      []byte
}

// Outcome reports what the pipeline did with a delivery.
type Outcome struct {
	Result Result
	Stats  index.Stats
	Err    error
}

// Invalidator drops every cached render.
type Invalidator interface {
	Invalidate() error
}

// Notifier is told about finished rebuilds.
type Notifier interface {
	IndexRebuilt(trigger string, stats index.Stats)
	IndexRebuildFailed(trigger string, err error)
}

// Options configures a Pipeline.
type Options struct {
	Secret string
	Root   string
	Remote string
}

// Pipeline processes deliveries one at a time. Rebuilds triggered from other
// sources go through Refresh and share the same lock.
type Pipeline struct {
	opts     Options
	syncer   gitmeta.Syncer
	builder  *index.Builder
	store    index.Store
	cache    Invalidator
	notifier Notifier
	logger   *slog.Logger

	mu sync.Mutex
}

// NewPipeline wires the pipeline stages. cache and notifier may be nil.
func NewPipeline(opts Options, syncer gitmeta.Syncer, builder *index.Builder, store index.Store, cache Invalidator, notifier Notifier, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:     opts,
		syncer:   syncer,
		builder:  builder,
		store:    store,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// Verify checks a "sha256=<hex>" signature of body against secret in
// constant time.
func Verify(secret string, body []byte, signature string) error {
	if secret == "" {
		return fmt.Errorf("%w: no secret configured", apperr.ErrSignature)
	}
	algo, digest, ok := strings.Cut(signature, "=")
	if !ok || algo != "sha256" {
		return fmt.Errorf("%w: unsupported algorithm", apperr.ErrSignature)
	}
	expected := checksum.HMAC([]byte(secret), body)
	if !hmac.Equal([]byte(strings.ToLower(digest)), []byte(expected)) {
		return fmt.Errorf("%w: digest mismatch", apperr.ErrSignature)
	}
	return nil
}

// Handle runs d through the pipeline. It keeps going if ctx is cancelled
// mid-delivery; a started rebuild always completes or fails on its own.
func (p *Pipeline) Handle(ctx context.Context, d Delivery) Outcome {
	ctx = context.WithoutCancel(ctx)
	log := p.logger.With(slog.String("event", d.Event))

	if err := Verify(p.opts.Secret, d.Body, d.Signature); err != nil {
		log.Warn("webhook: rejected", slog.String("error", err.Error()))
		return Outcome{Result: Rejected, Err: err}
	}

	switch d.Event {
	case "ping":
		log.Info("webhook: ping acknowledged")
		return Outcome{Result: Acknowledged}
	case "push":
	default:
		err := fmt.Errorf("%w: %q", apperr.ErrUnsupportedEvent, d.Event)
		log.Warn("webhook: rejected", slog.String("error", err.Error()))
		return Outcome{Result: Rejected, Err: err}
	}

	stats, err := p.Update(ctx, "webhook")
	if err != nil {
		return Outcome{Result: Failed, Err: err}
	}
	return Outcome{Result: Rebuilt, Stats: stats}
}

// Update clones the working copy if it is missing, pulls, then rebuilds. A
// sync failure leaves the index and render cache untouched.
func (p *Pipeline) Update(ctx context.Context, trigger string) (index.Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.sync(ctx); err != nil {
		p.logger.Error("sync failed, keeping previous index",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
		if p.notifier != nil {
			p.notifier.IndexRebuildFailed(trigger, err)
		}
		return index.Stats{}, err
	}
	return p.refreshLocked(ctx, trigger)
}

// Refresh rebuilds the index from the working copy as it is and wipes the
// render cache, without syncing.
func (p *Pipeline) Refresh(ctx context.Context, trigger string) (index.Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshLocked(ctx, trigger)
}

func (p *Pipeline) sync(ctx context.Context) error {
	if !p.syncer.IsRepository(p.opts.Root) {
		p.logger.Info("cloning corpus", slog.String("root", p.opts.Root), slog.String("remote", p.opts.Remote))
		if err := p.syncer.Clone(ctx, p.opts.Root, p.opts.Remote); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrClone, err)
		}
	}
	if err := p.syncer.Pull(ctx, p.opts.Root); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPull, err)
	}
	return nil
}

func (p *Pipeline) refreshLocked(ctx context.Context, trigger string) (index.Stats, error) {
	start := time.Now()
	stats, err := index.Rebuild(ctx, p.builder, p.store)
	if err == nil && p.cache != nil {
		if werr := p.cache.Invalidate(); werr != nil {
			err = fmt.Errorf("wipe render cache: %w", werr)
		}
	}
	if err != nil {
		p.logger.Error("rebuild failed", slog.String("trigger", trigger), slog.String("error", err.Error()))
		if p.notifier != nil {
			p.notifier.IndexRebuildFailed(trigger, err)
		}
		return index.Stats{}, err
	}

	p.logger.Info("rebuild complete",
		slog.String("trigger", trigger),
		slog.Int("posts", stats.Posts),
		slog.Int("categories", stats.Categories),
		slog.Int("tags", stats.Tags),
		slog.Duration("took", time.Since(start)))
	if p.notifier != nil {
		p.notifier.IndexRebuilt(trigger, stats)
	}
	return stats, nil
}
