// Package tour runs the guided tour of the viewer controls.
package tour

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/logging"
)

const (
	DefaultSettleDelay  = time.Second
	DefaultPollInterval = 200 * time.Millisecond
	DefaultReadyTimeout = 5 * time.Second

	// RestartKey restarts the tour from the keyboard.
	RestartKey = "?"
)

var (
	ErrNotRunning = errors.New("tour is not running")
	ErrClosed     = errors.New("tour is closed")
)

// Surface is the part of ui.Surface the tour looks at.
type Surface interface {
	Exists(selector string) bool
	Subscribe() (<-chan struct{}, func())
}

// Snapshot describes the tour for display.
type Snapshot struct {
	Running bool
	Index   int
	Total   int
	Step    Step
}

type Orchestrator struct {
	mu sync.Mutex

	steps   []Step
	store   Store
	surface Surface
	logger  logging.Logger

	settleDelay  time.Duration
	pollInterval time.Duration
	readyTimeout time.Duration

	running bool
	cursor  int
	// gen invalidates pending starts when the tour is restarted or closed.
	gen        uint64
	autoCancel context.CancelFunc
	closed     bool

	onChange func(Snapshot)
}

type Option func(*Orchestrator)

func WithSteps(steps []Step) Option {
	return func(o *Orchestrator) { o.steps = steps }
}

// WithTimings overrides the settle delay, poll interval and readiness
// timeout. Non-positive values keep the defaults.
func WithTimings(settle, poll, ready time.Duration) Option {
	return func(o *Orchestrator) {
		if settle > 0 {
			o.settleDelay = settle
		}
		if poll > 0 {
			o.pollInterval = poll
		}
		if ready > 0 {
			o.readyTimeout = ready
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func New(store Store, surface Surface, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		steps:        DefaultSteps(),
		store:        store,
		surface:      surface,
		logger:       logging.Nop(),
		settleDelay:  DefaultSettleDelay,
		pollInterval: DefaultPollInterval,
		readyTimeout: DefaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "tour")
	return o
}

// OnChange sets a callback invoked, outside the lock, on every change.
func (o *Orchestrator) OnChange(fn func(Snapshot)) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// AutoStart starts the tour unless it was completed before. It waits the
// settle delay, then polls until every step target is on the surface. It
// returns whether the tour was started; Close or ctx stop the wait.
func (o *Orchestrator) AutoStart(ctx context.Context) bool {
	done, err := o.store.Completed(ctx)
	if err != nil {
		o.logger.Warn(ctx, "read tour flag", "error", err)
	}
	if done {
		o.logger.Debug(ctx, "tour already completed")
		return false
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if o.autoCancel != nil {
		o.autoCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	o.autoCancel = cancel
	o.mu.Unlock()
	defer cancel()

	if !sleep(ctx, o.settleDelay) {
		return false
	}
	for !o.targetsPresent() {
		if !sleep(ctx, o.pollInterval) {
			return false
		}
	}

	// The tour may have been run and finished by hand during the wait.
	if done, err := o.store.Completed(ctx); err == nil && done {
		o.logger.Debug(ctx, "tour completed while waiting")
		return false
	}
	return o.start(ctx, true) == nil
}

// Start shows the first step once its element exists, or after the
// readiness timeout. A pending auto-start is abandoned.
func (o *Orchestrator) Start(ctx context.Context) error {
	return o.start(ctx, false)
}

func (o *Orchestrator) start(ctx context.Context, auto bool) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if auto && ctx.Err() != nil {
		o.mu.Unlock()
		return ctx.Err()
	}
	if !auto && o.autoCancel != nil {
		o.autoCancel()
		o.autoCancel = nil
	}
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	if len(o.steps) > 0 {
		changes, unsubscribe := o.surface.Subscribe()
		sel := o.steps[0].Selector
		ready := WaitFor(ctx, func() bool { return o.surface.Exists(sel) }, changes, o.readyTimeout)
		unsubscribe()
		if !ready {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.logger.Debug(ctx, "first step target not ready, starting anyway", "selector", sel)
		}
	}

	o.mu.Lock()
	if o.closed || gen != o.gen {
		o.mu.Unlock()
		return ErrClosed
	}
	o.running = true
	o.cursor = 0
	o.emit()
	return nil
}

// Restart clears the completion flag and starts the tour.
func (o *Orchestrator) Restart(ctx context.Context) error {
	if err := o.store.Clear(ctx); err != nil {
		o.logger.Warn(ctx, "clear tour flag", "error", err)
	}
	return o.Start(ctx)
}

// HandleKey restarts the tour on RestartKey unless an input has focus.
// It reports whether the key was consumed.
func (o *Orchestrator) HandleKey(ctx context.Context, key string, inputFocused bool) bool {
	if key != RestartKey || inputFocused {
		return false
	}
	if err := o.Restart(ctx); err != nil {
		o.logger.Debug(ctx, "tour restart", "error", err)
	}
	return true
}

// Next advances the tour; on the last step it completes it.
func (o *Orchestrator) Next(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if o.cursor >= len(o.steps)-1 {
		o.mu.Unlock()
		return o.Complete(ctx)
	}
	o.cursor++
	o.emit()
	return nil
}

func (o *Orchestrator) Back() error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if o.cursor > 0 {
		o.cursor--
	}
	o.emit()
	return nil
}

// Complete ends the tour and persists the completion flag.
func (o *Orchestrator) Complete(ctx context.Context) error {
	return o.finish(ctx)
}

// Cancel ends the tour early. The flag is persisted as for Complete.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	return o.finish(ctx)
}

func (o *Orchestrator) finish(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return ErrNotRunning
	}
	o.running = false
	o.cursor = 0
	o.emit()

	if err := o.store.SetCompleted(ctx); err != nil {
		o.logger.Warn(ctx, "persist tour flag", "error", err)
		return err
	}
	return nil
}

// Close stops a pending auto-start and hides the tour without touching the
// completion flag.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.gen++
	o.running = false
	o.onChange = nil
	if o.autoCancel != nil {
		o.autoCancel()
	}
}

func (o *Orchestrator) targetsPresent() bool {
	for _, s := range o.steps {
		if !o.surface.Exists(s.Selector) {
			return false
		}
	}
	return true
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{Running: o.running, Index: o.cursor, Total: len(o.steps)}
	if o.running && o.cursor < len(o.steps) {
		s.Step = o.steps[o.cursor]
	}
	return s
}

// emit must be called with o.mu held; it releases it.
func (o *Orchestrator) emit() {
	snap := o.snapshotLocked()
	fn := o.onChange
	o.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
