package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nemorize/restdown/internal/index"
	"github.com/nemorize/restdown/internal/sse"
)

func TestNewApplication_RequiresConfig(t *testing.T) {
	if _, err := newApplication(nil); err == nil {
		t.Fatal("expected error without config")
	}

	var buf bytes.Buffer
	app, err := newApplication([]Option{
		WithConfig(NewDefaultConfig()),
		WithLogOutput(&buf),
		WithPull(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if app.version != "dev" || !app.pull || app.logOutput != &buf {
		t.Errorf("app = %+v", app)
	}
}

func TestNewApplication_LaterOptionsWin(t *testing.T) {
	app, err := newApplication([]Option{
		WithLogOutput(os.Stderr),
		WithConfig(NewDefaultConfig()),
		WithLogOutput(os.Stdout),
		WithVersion("1.2.3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if app.logOutput != os.Stdout || app.version != "1.2.3" {
		t.Errorf("app = %+v", app)
	}
}

func TestReadiness_FlipsOnFirstRebuild(t *testing.T) {
	broker := sse.NewBroker()
	defer broker.Close()
	sub := broker.Subscribe()

	r := &readiness{broker: broker}
	r.IndexRebuildFailed("startup", errors.New("boom"))
	if r.ready.Load() {
		t.Fatal("failed rebuild must not mark ready")
	}
	expectEvent(t, sub, sse.EventIndexFailed)

	r.IndexRebuilt("webhook", index.Stats{Posts: 3})
	if !r.ready.Load() {
		t.Fatal("successful rebuild should mark ready")
	}
	expectEvent(t, sub, sse.EventIndexRebuilt)
}

func expectEvent(t *testing.T, ch <-chan []byte, name string) {
	t.Helper()
	select {
	case raw := <-ch:
		if !strings.HasPrefix(string(raw), "event: "+name+"\n") {
			t.Fatalf("got %q, want event %s", raw, name)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", name)
	}
}

func TestWriteStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeStatus(rec, http.StatusServiceUnavailable, "building")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"building"}` {
		t.Errorf("body = %s", got)
	}
}

type fakeRefresher struct {
	triggers []string
	err      error
}

func (f *fakeRefresher) Refresh(_ context.Context, trigger string) (index.Stats, error) {
	f.triggers = append(f.triggers, trigger)
	return index.Stats{}, f.err
}

func TestOnContentChange_AnnouncesThenRebuilds(t *testing.T) {
	broker := sse.NewBroker()
	defer broker.Close()
	sub := broker.Subscribe()

	r := &fakeRefresher{err: errors.New("disk full")}
	cb := onContentChange("/srv/posts", r, broker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cb(context.Background())

	expectEvent(t, sub, sse.EventContentChanged)
	if len(r.triggers) != 1 || r.triggers[0] != "watcher" {
		t.Errorf("triggers = %v", r.triggers)
	}
}
