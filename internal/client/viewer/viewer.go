// Package viewer drives one viewing of a deck: session creation, the auth
// gate, the progressive download, pagination, engagement reporting and the
// guided tour.
//
// Components report back through callbacks that may run on their own
// goroutines. The viewer applies a result only if it is still open and the
// attempt that produced it is still current, so late responses after Close
// or Retry are dropped.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/client/auth"
	"github.com/dmitrijs2005/deckviewer/internal/client/client"
	"github.com/dmitrijs2005/deckviewer/internal/client/device"
	"github.com/dmitrijs2005/deckviewer/internal/client/engagement"
	"github.com/dmitrijs2005/deckviewer/internal/client/loader"
	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	"github.com/dmitrijs2005/deckviewer/internal/client/pagination"
	"github.com/dmitrijs2005/deckviewer/internal/client/render"
	"github.com/dmitrijs2005/deckviewer/internal/client/report"
	"github.com/dmitrijs2005/deckviewer/internal/client/tour"
	"github.com/dmitrijs2005/deckviewer/internal/client/ui"
	"github.com/dmitrijs2005/deckviewer/internal/common"
	"github.com/dmitrijs2005/deckviewer/internal/logging"
	"github.com/google/uuid"
)

const (
	msgLoadingDeck     = "Loading deck details..."
	msgLoadingDocument = "Loading document..."
	msgFetchDeck       = "Failed to fetch deck data"
	msgUnexpected      = "Something went wrong. Please try again later."

	reporterFlushTimeout = 2 * time.Second
)

var (
	ErrClosed           = errors.New("viewer is closed")
	ErrNotReady         = errors.New("viewer is not ready")
	ErrAlreadyOpen      = errors.New("viewer is already open")
	ErrNothingToRetry   = errors.New("nothing to retry")
	ErrDownloadDisabled = errors.New("downloads are disabled for this deck")
)

// DocumentLoader fetches the document. *loader.Loader satisfies it.
type DocumentLoader interface {
	Load(ctx context.Context, locator string, onProgress func(loader.Progress)) (*models.DownloadState, error)
}

// Deps are the collaborators of a viewer.
type Deps struct {
	Client   client.Client
	Loader   DocumentLoader
	Renderer render.Renderer
	TourFlag tour.Store
	Reporter report.Reporter
	Logger   logging.Logger
}

// Options tune a viewer. Zero durations select the component defaults.
type Options struct {
	Slug      string
	UserAgent string

	FlushInterval    time.Duration
	TourSettleDelay  time.Duration
	TourPollInterval time.Duration
	TourReadyTimeout time.Duration
}

type Viewer struct {
	mu sync.Mutex

	deps   Deps
	opts   Options
	id     string
	logger logging.Logger

	surface *ui.Surface
	pager   *pagination.Controller
	tour    *tour.Orchestrator

	// ctx bounds background work; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// gen is bumped by every new attempt and by Close.
	gen    uint64
	closed bool

	phase     Phase
	failedAt  Phase
	errMsg    string
	deck      *models.Deck
	sessionID string
	gate      *auth.Gate
	tracker   *engagement.Tracker

	contentStarted bool
	progress       loader.Progress
	download       *models.DownloadState
	doc            render.Document

	visible     bool
	sidebarOpen bool
	fullscreen  bool
	theme       string

	onChange func(View)
}

// New builds a viewer for opts.Slug. Nothing happens until Open.
func New(deps Deps, opts Options) *Viewer {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Reporter == nil {
		deps.Reporter = report.NewLogReporter(deps.Logger)
	}
	if deps.TourFlag == nil {
		deps.TourFlag = tour.NewMemoryStore(false)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewPDFRenderer(deps.Logger)
	}

	id := uuid.NewString()
	logger := deps.Logger.With("viewer_id", id, "slug", opts.Slug)
	surface := ui.NewSurface()
	ctx, cancel := context.WithCancel(context.Background())

	v := &Viewer{
		deps:    deps,
		opts:    opts,
		id:      id,
		logger:  logger,
		surface: surface,
		pager:   pagination.New(),
		tour: tour.New(deps.TourFlag, surface,
			tour.WithTimings(opts.TourSettleDelay, opts.TourPollInterval, opts.TourReadyTimeout),
			tour.WithLogger(logger),
		),
		ctx:     ctx,
		cancel:  cancel,
		phase:   PhaseIdle,
		visible: true,
		theme:   ThemeLight,
	}
	v.pager.OnChange(func(models.PaginationState) { v.notify() })
	v.tour.OnChange(func(tour.Snapshot) { v.notify() })
	return v
}

// OnChange sets the callback receiving a View after every change. It is
// called without the viewer lock held, possibly from other goroutines.
func (v *Viewer) OnChange(fn func(View)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Surface exposes the mounted controls.
func (v *Viewer) Surface() *ui.Surface { return v.surface }

// Open creates the viewer session. Content starts by itself once the gate
// lets the viewer through.
func (v *Viewer) Open(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.deck != nil {
		v.mu.Unlock()
		return ErrAlreadyOpen
	}
	v.gen++
	gen := v.gen
	v.phase = PhaseLoadingDeck
	v.errMsg = ""
	v.emit()

	dev := device.Detect(v.opts.UserAgent)
	resp, err := v.deps.Client.CreateSession(ctx, v.opts.Slug, models.CreateSessionRequest{
		OS:         dev.OS,
		DeviceInfo: dev.DeviceInfo,
		Browser:    dev.Browser,
	})

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		v.failLocked(PhaseLoadingDeck, common.Message(err, msgFetchDeck))
		tags := v.tagsLocked()
		v.emit()
		v.capture(ctx, err, tags)
		return err
	}

	v.deck = resp.Deck
	v.sessionID = resp.SessionID()
	v.gate = auth.New(v.deps.Client, v.opts.Slug, v.deck, v.sessionID, v.logger)
	v.phase = PhaseGated
	gate := v.gate
	v.logger.Info(ctx, "session created", "session_id", v.sessionID, "title", v.deck.Title)
	v.mu.Unlock()

	gate.OnChange(func(s auth.Snapshot) { v.onGate(gate, s) })
	v.onGate(gate, gate.Snapshot())
	return nil
}

// Retry recovers from a failed phase: a failed session create is attempted
// again, a failed download or render restarts the document load.
func (v *Viewer) Retry(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.phase != PhaseFailed {
		v.mu.Unlock()
		return ErrNothingToRetry
	}
	if v.deck == nil {
		v.mu.Unlock()
		return v.Open(ctx)
	}
	v.startDocumentLocked()
	v.emit()
	return nil
}

func (v *Viewer) onGate(gate *auth.Gate, s auth.Snapshot) {
	v.mu.Lock()
	if v.closed || gate != v.gate {
		v.mu.Unlock()
		return
	}
	if s.State == auth.StateAuthenticated && !v.contentStarted {
		v.contentStarted = true
		v.startTrackerLocked()
		v.startDocumentLocked()
	}
	v.emit()
}

func (v *Viewer) startTrackerLocked() {
	t := engagement.New(v.deps.Client, v.deps.Reporter, v.opts.Slug, v.sessionID,
		engagement.WithInterval(v.opts.FlushInterval),
		engagement.WithLogger(v.logger),
	)
	if err := t.Start(v.ctx, v.visible); err != nil {
		v.logger.Debug(v.ctx, "engagement tracking disabled", "error", err)
		return
	}
	v.tracker = t
}

func (v *Viewer) startDocumentLocked() {
	v.gen++
	gen := v.gen
	v.phase = PhaseDownloading
	v.errMsg = ""
	v.progress = loader.Progress{Total: -1}
	locator := v.deck.ObjectLink

	v.wg.Add(1)
	go v.runDocument(gen, locator)
}

func (v *Viewer) runDocument(gen uint64, locator string) {
	defer v.wg.Done()
	defer v.recoverPanic(gen)

	ctx := v.ctx
	state, err := v.deps.Loader.Load(ctx, locator, func(p loader.Progress) {
		v.mu.Lock()
		if v.closed || gen != v.gen {
			v.mu.Unlock()
			return
		}
		v.progress = p
		v.emit()
	})

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.failLocked(PhaseDownloading, common.Message(err, msgUnexpected))
		tags := v.tagsLocked()
		v.emit()
		v.capture(ctx, err, tags)
		return
	}
	v.download = state
	v.phase = PhaseRendering
	v.emit()

	doc, err := v.deps.Renderer.Open(ctx, state.Blob)

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.failLocked(PhaseRendering, common.Message(err, msgUnexpected))
		tags := v.tagsLocked()
		v.emit()
		v.capture(ctx, err, tags)
		return
	}
	v.doc = doc
	v.mu.Unlock()

	// Pages and controls are in place before the phase flips to ready.
	v.pager.SetNumPages(doc.NumPages())
	v.surface.Mount(ui.Controls...)

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		return
	}
	v.phase = PhaseReady
	v.logger.Info(ctx, "document ready", "pages", doc.NumPages(), "bytes", state.Received)
	v.emit()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer v.recoverPanic(gen)
		v.tour.AutoStart(ctx)
	}()
}

func (v *Viewer) failLocked(at Phase, msg string) {
	v.phase = PhaseFailed
	v.failedAt = at
	v.errMsg = msg
}

func (v *Viewer) recoverPanic(gen uint64) {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("viewer panic: %v", r)

	v.mu.Lock()
	tags := v.tagsLocked()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		v.capture(v.ctx, err, tags)
		return
	}
	v.failLocked(v.phase, msgUnexpected)
	v.emit()
	v.capture(v.ctx, err, tags)
}

// SubmitPassword forwards to the auth gate.
func (v *Viewer) SubmitPassword(ctx context.Context, value string) error {
	g, err := v.currentGate()
	if err != nil {
		return err
	}
	return g.SubmitPassword(ctx, value)
}

// SubmitEmail forwards to the auth gate.
func (v *Viewer) SubmitEmail(ctx context.Context, value string) error {
	g, err := v.currentGate()
	if err != nil {
		return err
	}
	return g.SubmitEmail(ctx, value)
}

func (v *Viewer) DismissPrompt(p auth.Prompt) error {
	g, err := v.currentGate()
	if err != nil {
		return err
	}
	g.Dismiss(p)
	return nil
}

func (v *Viewer) OpenPrompt(p auth.Prompt) error {
	g, err := v.currentGate()
	if err != nil {
		return err
	}
	return g.Open(p)
}

func (v *Viewer) currentGate() (*auth.Gate, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}
	if v.gate == nil {
		return nil, ErrNotReady
	}
	return v.gate, nil
}

// HandleKey routes a key press: arrows page through an unlocked document,
// "?" restarts the tour. Nothing fires while an input has focus.
func (v *Viewer) HandleKey(ctx context.Context, key string, inputFocused bool) bool {
	if inputFocused || !v.interactive() {
		return false
	}
	if key == tour.RestartKey {
		return v.tour.HandleKey(ctx, key, inputFocused)
	}
	return v.pager.HandleKey(key, inputFocused)
}

func (v *Viewer) GoTo(n int) {
	if v.interactive() {
		v.pager.GoTo(n)
	}
}

func (v *Viewer) Step(delta int) {
	if v.interactive() {
		v.pager.Step(delta)
	}
}

// EnterPage applies a typed page number; see pagination.Controller.Enter.
func (v *Viewer) EnterPage(text string) bool {
	if !v.interactive() {
		return false
	}
	return v.pager.Enter(text)
}

// interactive reports whether the document is displayed and unlocked.
func (v *Viewer) interactive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed && v.phase == PhaseReady && v.gate != nil && v.gate.State() == auth.StateAuthenticated
}

// SetVisible records whether the viewer is in the foreground.
func (v *Viewer) SetVisible(visible bool) {
	v.mu.Lock()
	if v.closed || v.visible == visible {
		v.mu.Unlock()
		return
	}
	v.visible = visible
	t := v.tracker
	v.mu.Unlock()

	if t != nil {
		t.SetVisible(visible)
	}
	v.notify()
}

func (v *Viewer) ToggleSidebar() {
	v.toggle(func() { v.sidebarOpen = !v.sidebarOpen })
}

func (v *Viewer) ToggleFullscreen() {
	v.toggle(func() { v.fullscreen = !v.fullscreen })
}

func (v *Viewer) ToggleTheme() {
	v.toggle(func() {
		if v.theme == ThemeDark {
			v.theme = ThemeLight
		} else {
			v.theme = ThemeDark
		}
	})
}

func (v *Viewer) toggle(fn func()) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	fn()
	v.emit()
}

// StartTour clears the tour flag and starts the tour.
func (v *Viewer) StartTour(ctx context.Context) error {
	if !v.interactive() {
		return ErrNotReady
	}
	return v.tour.Restart(ctx)
}

func (v *Viewer) TourNext(ctx context.Context) error   { return v.tour.Next(ctx) }
func (v *Viewer) TourBack() error                      { return v.tour.Back() }
func (v *Viewer) TourCancel(ctx context.Context) error { return v.tour.Cancel(ctx) }

// Download writes the document to w when the deck allows downloads.
func (v *Viewer) Download(w io.Writer) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.deck == nil {
		v.mu.Unlock()
		return ErrNotReady
	}
	if !v.deck.Preferences.EnableDownloading {
		v.mu.Unlock()
		return ErrDownloadDisabled
	}
	if v.download == nil || v.download.Blob == nil {
		v.mu.Unlock()
		return ErrNotReady
	}
	blob := v.download.Blob
	v.mu.Unlock()

	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Close stops background work, sends the final engagement flush and drops
// results that arrive afterwards. It is safe to call more than once.
func (v *Viewer) Close(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.gen++
	v.phase = PhaseClosed
	v.onChange = nil
	gate, tracker := v.gate, v.tracker
	v.mu.Unlock()

	v.tour.Close()
	if gate != nil {
		gate.Close()
	}
	v.cancel()
	if tracker != nil {
		tracker.Stop(ctx)
	}
	v.wg.Wait()
	v.surface.Reset()
	v.deps.Reporter.Flush(reporterFlushTimeout)
	v.logger.Info(ctx, "viewer closed")
}

// View returns the current snapshot.
func (v *Viewer) View() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewLocked()
}

func (v *Viewer) viewLocked() View {
	view := View{
		ID:          v.id,
		Phase:       v.phase,
		Progress:    v.progress.Percent,
		SidebarOpen: v.sidebarOpen,
		Fullscreen:  v.fullscreen,
		Theme:       v.theme,
		Visible:     v.visible,
		Blurred:     true,
		Error:       v.errMsg,
		Tour:        v.tour.Snapshot(),
	}

	switch v.phase {
	case PhaseLoadingDeck:
		view.Loading = msgLoadingDeck
	case PhaseDownloading:
		view.Loading = fmt.Sprintf("Downloading document... %d%%", v.progress.Percent)
	case PhaseRendering:
		view.Loading = msgLoadingDocument
	case PhaseFailed:
		view.Retryable = true
	}

	if v.deck != nil {
		view.Title = v.deck.Title
		view.DownloadEnabled = v.deck.Preferences.EnableDownloading
	}
	if v.gate != nil {
		view.Gate = v.gate.Snapshot()
		view.Overlay = view.Gate.Overlay
		view.Blurred = view.Gate.Blurred()
		if view.Gate.State == auth.StateDenied {
			view.Retryable = false
		}
	}
	if v.tracker != nil {
		view.TimeSpent = v.tracker.Seconds()
	}

	ps := v.pager.State()
	view.Page = ps.Current
	view.NumPages = ps.NumPages
	view.ReadingPercent = pagination.Percent(ps)
	if v.phase == PhaseReady && !view.Blurred {
		view.CanPrev = v.pager.CanPrev()
		view.CanNext = v.pager.CanNext()
	}
	return view
}

// tagsLocked describes the viewer for error reports. A failed viewer is
// tagged with the phase that failed.
func (v *Viewer) tagsLocked() report.Tags {
	phase := v.phase
	if phase == PhaseFailed {
		phase = v.failedAt
	}
	return report.Tags{
		"slug":       v.opts.Slug,
		"session_id": v.sessionID,
		"phase":      phase.String(),
		"viewer_id":  v.id,
	}
}

func (v *Viewer) capture(ctx context.Context, err error, tags report.Tags) {
	if errors.Is(err, context.Canceled) {
		return
	}
	v.deps.Reporter.Capture(ctx, err, tags)
}

func (v *Viewer) notify() {
	v.mu.Lock()
	v.emit()
}

// emit must be called with v.mu held; it releases it and notifies the
// observer.
func (v *Viewer) emit() {
	var (
		fn   = v.onChange
		view View
	)
	if fn != nil {
		view = v.viewLocked()
	}
	v.mu.Unlock()
	if fn != nil {
		fn(view)
	}
}
