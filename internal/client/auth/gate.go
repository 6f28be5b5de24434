// Package auth implements the password/email gate in front of a deck.
//
// Each challenge goes through Unverified → Tentative → Confirmed. Prompt
// ordering treats a tentative challenge as verified, so the email prompt can
// open right after a password is typed; content unlocks only when every
// required challenge is confirmed by the server.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	"github.com/dmitrijs2005/deckviewer/internal/common"
	"github.com/dmitrijs2005/deckviewer/internal/logging"
	"github.com/go-playground/validator/v10"
)

const (
	msgPasswordRequired = "Password is required"
	msgInvalidPassword  = "Invalid password. Please try again."
	msgInvalidEmail     = "Please enter a valid email address."

	overlayBoth     = "This deck requires both a password and email to view."
	overlayPassword = "This deck requires a password to view."
	overlayEmail    = "This deck requires an email to view."
	overlayArchived = "This deck is no longer available."
	overlayNoAccess = "Unable to verify access to this deck."

	descPasswordChained = "Please enter the password to continue. You'll be asked for your email next."
	descPassword        = "Please enter the password to view this deck."
	descEmailChained    = "Great! Now please enter your email to view the deck."
	descEmail           = "Please enter your email to view this deck."
)

var (
	// ErrDenied is returned by every operation once the gate is denied.
	ErrDenied = errors.New("access denied")
	// ErrUnexpected is returned when a challenge is not currently asked for.
	ErrUnexpected = errors.New("challenge not expected")
)

// Updater submits credentials. client.Client satisfies it.
type Updater interface {
	UpdateSession(ctx context.Context, slug string, req models.UpdateSessionRequest) error
}

type Gate struct {
	mu sync.Mutex

	updater   Updater
	slug      string
	sessionID string
	prefs     models.DeckPreferences
	archived  bool
	logger    logging.Logger
	validate  *validator.Validate

	password verification
	email    verification
	// storedPassword is kept while the password is tentative so it can be
	// sent together with the email.
	storedPassword string
	emailDraft     string

	passwordDismissed bool
	emailDismissed    bool
	pending           bool
	message           string

	// attempt discards results of superseded submissions.
	attempt uint64
	closed  bool

	observers []func(Snapshot)
}

// New builds a gate for deck. sessionID may be empty, in which case a deck
// with any challenge is denied.
func New(updater Updater, slug string, deck *models.Deck, sessionID string, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Nop()
	}
	g := &Gate{
		updater:   updater,
		slug:      slug,
		sessionID: sessionID,
		logger:    logger.With("component", "auth", "slug", slug),
		validate:  validator.New(),
	}
	if deck != nil {
		g.prefs = deck.Preferences
		g.archived = deck.IsArchived
	}
	return g
}

// OnChange registers fn to receive a snapshot after every change. fn is
// called without the gate lock held.
func (g *Gate) OnChange(fn func(Snapshot)) {
	g.mu.Lock()
	g.observers = append(g.observers, fn)
	g.mu.Unlock()
}

// Close drops all observers and ignores results of in-flight submissions.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.observers = nil
	g.mu.Unlock()
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gate) State() State {
	return g.Snapshot().State
}

// SubmitPassword records value as a tentative password. When an email is
// still required the email prompt opens with no network call; otherwise the
// password is confirmed with the server and rolled back on rejection.
func (g *Gate) SubmitPassword(ctx context.Context, value string) error {
	g.mu.Lock()
	if err := g.checkLocked(); err != nil {
		g.mu.Unlock()
		return err
	}
	if !g.prefs.HasPassword || g.password != unverified {
		g.mu.Unlock()
		return ErrUnexpected
	}
	if strings.TrimSpace(value) == "" {
		g.message = msgPasswordRequired
		g.emit()
		return common.NewValidationError(msgPasswordRequired)
	}

	g.password = tentative
	g.storedPassword = value
	g.passwordDismissed = false
	g.message = ""

	if g.prefs.RequireEmail && g.email != confirmed {
		g.emailDismissed = false
		g.emit()
		return nil
	}

	g.attempt++
	attempt := g.attempt
	g.pending = true
	req := models.UpdateSessionRequest{SessionID: g.sessionID, Password: value}
	g.emit()

	err := g.updater.UpdateSession(ctx, g.slug, req)

	g.mu.Lock()
	if g.closed || attempt != g.attempt {
		g.mu.Unlock()
		return err
	}
	g.pending = false
	if err != nil {
		g.logger.Warn(ctx, "password rejected", "error", err)
		g.password = unverified
		g.storedPassword = ""
		g.message = msgInvalidPassword
		g.emit()
		return common.NewNetworkError(msgInvalidPassword, err)
	}
	g.password = confirmed
	g.storedPassword = ""
	g.logger.Info(ctx, "password confirmed")
	g.emit()
	return nil
}

// SubmitEmail validates value locally and submits it, together with a
// tentative password if one is held.
func (g *Gate) SubmitEmail(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)

	g.mu.Lock()
	if err := g.checkLocked(); err != nil {
		g.mu.Unlock()
		return err
	}
	if !g.prefs.RequireEmail || g.email == confirmed || g.passwordOutstandingLocked() {
		g.mu.Unlock()
		return ErrUnexpected
	}

	g.emailDraft = value
	g.emailDismissed = false
	if err := g.validate.Var(value, "required,email"); err != nil {
		g.message = msgInvalidEmail
		g.emit()
		return common.NewValidationError(msgInvalidEmail)
	}

	req := models.UpdateSessionRequest{SessionID: g.sessionID, Email: value}
	if g.password == tentative {
		req.Password = g.storedPassword
	}
	g.attempt++
	attempt := g.attempt
	g.pending = true
	g.message = ""
	g.emit()

	err := g.updater.UpdateSession(ctx, g.slug, req)

	g.mu.Lock()
	if g.closed || attempt != g.attempt {
		g.mu.Unlock()
		return err
	}
	g.pending = false
	if err != nil {
		g.logger.Warn(ctx, "email rejected", "error", err)
		g.message = common.Message(err, msgInvalidEmail)
		g.emit()
		return err
	}
	g.email = confirmed
	if g.password == tentative {
		g.password = confirmed
		g.storedPassword = ""
	}
	g.logger.Info(ctx, "email confirmed")
	g.emit()
	return nil
}

// Dismiss closes prompt without verifying it and clears its input.
func (g *Gate) Dismiss(p Prompt) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	switch p {
	case PromptPassword:
		g.passwordDismissed = true
		if g.password == unverified {
			g.storedPassword = ""
		}
	case PromptEmail:
		g.emailDismissed = true
		g.emailDraft = ""
	}
	g.message = ""
	g.emit()
}

// Open reopens a dismissed prompt when its challenge is outstanding and no
// earlier challenge blocks it. Reopening the password prompt over a
// tentative password discards it, so a mistyped password can be corrected
// before the email is submitted again.
func (g *Gate) Open(p Prompt) error {
	g.mu.Lock()
	if err := g.checkLocked(); err != nil {
		g.mu.Unlock()
		return err
	}
	switch p {
	case PromptPassword:
		if g.prefs.HasPassword && g.password == tentative && !g.pending {
			g.password = unverified
			g.storedPassword = ""
		}
		if !g.passwordOutstandingLocked() {
			g.mu.Unlock()
			return ErrUnexpected
		}
		g.passwordDismissed = false
		g.message = ""
	case PromptEmail:
		if g.passwordOutstandingLocked() || !g.prefs.RequireEmail || g.email == confirmed {
			g.mu.Unlock()
			return ErrUnexpected
		}
		g.emailDismissed = false
	}
	g.emit()
	return nil
}

func (g *Gate) checkLocked() error {
	if g.closed || g.deniedLocked() {
		return ErrDenied
	}
	return nil
}

func (g *Gate) deniedLocked() bool {
	if g.archived {
		return true
	}
	return (g.prefs.HasPassword || g.prefs.RequireEmail) && g.sessionID == ""
}

func (g *Gate) passwordOutstandingLocked() bool {
	return g.prefs.HasPassword && g.password == unverified
}

func (g *Gate) emailOutstandingLocked() bool {
	return g.prefs.RequireEmail && g.email == unverified
}

func (g *Gate) authenticatedLocked() bool {
	return (!g.prefs.HasPassword || g.password == confirmed) &&
		(!g.prefs.RequireEmail || g.email == confirmed)
}

func (g *Gate) stateLocked() State {
	switch {
	case g.deniedLocked():
		return StateDenied
	case g.passwordOutstandingLocked():
		if g.passwordDismissed {
			return StateLocked
		}
		return StatePasswordPrompt
	case g.emailOutstandingLocked():
		if g.emailDismissed {
			return StateLocked
		}
		return StateEmailPrompt
	case g.authenticatedLocked():
		return StateAuthenticated
	default:
		return StateLocked
	}
}

func (g *Gate) snapshotLocked() Snapshot {
	state := g.stateLocked()
	s := Snapshot{
		State: state,
		Auth: models.AuthState{
			PasswordVerified: g.password == confirmed,
			EmailVerified:    g.email == confirmed,
			Authenticated:    state == StateAuthenticated,
		},
		Message:    g.message,
		EmailDraft: g.emailDraft,
		Pending:    g.pending,
	}

	switch state {
	case StateAuthenticated:
		return s
	case StateDenied:
		if g.archived {
			s.Overlay = overlayArchived
		} else {
			s.Overlay = overlayNoAccess
		}
		return s
	case StatePasswordPrompt:
		s.Description = descPassword
		if g.prefs.RequireEmail {
			s.Description = descPasswordChained
		}
	case StateEmailPrompt:
		s.Description = descEmail
		if g.prefs.HasPassword {
			s.Description = descEmailChained
		}
	}

	needsPassword := g.passwordOutstandingLocked()
	needsEmail := g.prefs.RequireEmail && g.email != confirmed
	if !needsPassword && !needsEmail {
		// a lone password awaiting confirmation
		needsPassword = true
	}
	switch {
	case needsPassword && needsEmail:
		s.Overlay = overlayBoth
	case needsPassword:
		s.Overlay = overlayPassword
	default:
		s.Overlay = overlayEmail
	}
	return s
}

// emit snapshots the gate, releases the lock and notifies observers.
// It must be called with g.mu held.
func (g *Gate) emit() {
	snap := g.snapshotLocked()
	observers := append([]func(Snapshot)(nil), g.observers...)
	g.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}
