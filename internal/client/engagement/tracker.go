// Package engagement accumulates the time a deck is viewed in the foreground
// and reports the absolute total to the deck API.
package engagement

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	"github.com/dmitrijs2005/deckviewer/internal/client/report"
	"github.com/dmitrijs2005/deckviewer/internal/logging"
)

const (
	DefaultInterval     = 30 * time.Second
	DefaultFlushTimeout = 5 * time.Second
)

// ErrNoSession is returned by Start when there is no session to report to.
var ErrNoSession = errors.New("engagement: no session id")

// now is a test seam.
var now = time.Now

// Updater sends the accumulated time. client.Client satisfies it.
type Updater interface {
	UpdateSession(ctx context.Context, slug string, req models.UpdateSessionRequest) error
}

type Tracker struct {
	mu    sync.Mutex
	state models.EngagementState

	updater   Updater
	reporter  report.Reporter
	logger    logging.Logger
	slug      string
	sessionID string

	interval     time.Duration
	flushTimeout time.Duration

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(*Tracker)

func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

func WithFlushTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.flushTimeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

func New(updater Updater, reporter report.Reporter, slug, sessionID string, opts ...Option) *Tracker {
	t := &Tracker{
		updater:      updater,
		reporter:     reporter,
		slug:         slug,
		sessionID:    sessionID,
		interval:     DefaultInterval,
		flushTimeout: DefaultFlushTimeout,
		logger:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "engagement", "slug", slug)
	return t
}

// Start begins counting from now and runs the periodic flush until Stop or
// until ctx is done. Calling Start on a running tracker is a no-op.
func (t *Tracker) Start(ctx context.Context, visible bool) error {
	if t.sessionID == "" {
		return ErrNoSession
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	t.running = true
	t.state.LastTick = now()
	t.state.Visible = visible

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(loopCtx, t.done)
	return nil
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick credits the time since the previous reference point and flushes the
// total. Ticks while hidden are skipped.
func (t *Tracker) Tick(ctx context.Context) {
	t.mu.Lock()
	if !t.state.Visible {
		t.mu.Unlock()
		return
	}
	t.creditLocked()
	secs := t.state.Seconds()
	t.mu.Unlock()

	t.flush(ctx, secs)
}

// SetVisible records a visibility change. Hiding credits the time up to now;
// showing moves the reference point to now so hidden time is never counted.
func (t *Tracker) SetVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Visible == visible {
		return
	}
	if visible {
		t.state.LastTick = now()
	} else {
		t.creditLocked()
	}
	t.state.Visible = visible
}

// creditLocked reads the clock and moves the reference point in one step.
func (t *Tracker) creditLocked() {
	ts := now()
	if d := ts.Sub(t.state.LastTick); d > 0 {
		t.state.Accumulated += d
	}
	t.state.LastTick = ts
}

// Stop ends the periodic flush and sends the final total. It waits at most
// the flush timeout for the request. Subsequent calls do nothing.
func (t *Tracker) Stop(ctx context.Context) {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	cancel, done := t.cancel, t.done
	if t.state.Visible {
		t.creditLocked()
	}
	secs := t.state.Seconds()
	t.mu.Unlock()

	cancel()
	<-done

	ctx, stop := context.WithTimeout(context.WithoutCancel(ctx), t.flushTimeout)
	defer stop()
	t.flush(ctx, secs)
}

func (t *Tracker) State() models.EngagementState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Seconds() uint32 {
	return t.State().Seconds()
}

func (t *Tracker) flush(ctx context.Context, secs uint32) {
	err := t.updater.UpdateSession(ctx, t.slug, models.UpdateSessionRequest{
		SessionID: t.sessionID,
		TimeSpent: models.Seconds(secs),
	})
	if err != nil {
		t.logger.Warn(ctx, "time spent flush failed", "seconds", secs, "error", err)
		if t.reporter != nil {
			t.reporter.Capture(ctx, err, report.Tags{
				"slug":       t.slug,
				"session_id": t.sessionID,
				"seconds":    strconv.FormatUint(uint64(secs), 10),
			})
		}
		return
	}
	t.logger.Debug(ctx, "time spent flushed", "seconds", secs)
}
