package auth

import "github.com/dmitrijs2005/deckviewer/internal/client/models"

// State is the gate's externally visible state.
type State int

const (
	// StateLocked means content is obscured and no prompt is open, either
	// because the viewer dismissed it or a submission awaits confirmation.
	StateLocked State = iota
	StatePasswordPrompt
	StateEmailPrompt
	StateAuthenticated
	// StateDenied is terminal for the session.
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StatePasswordPrompt:
		return "password-prompt"
	case StateEmailPrompt:
		return "email-prompt"
	case StateAuthenticated:
		return "authenticated"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Prompt identifies one of the two challenges.
type Prompt int

const (
	PromptPassword Prompt = iota
	PromptEmail
)

func (p Prompt) String() string {
	if p == PromptEmail {
		return "email"
	}
	return "password"
}

// ParsePrompt maps "password" and "email" to a Prompt.
func ParsePrompt(s string) (Prompt, bool) {
	switch s {
	case "password":
		return PromptPassword, true
	case "email":
		return PromptEmail, true
	}
	return 0, false
}

// verification is the two-phase state of one challenge.
type verification int

const (
	unverified verification = iota
	// tentative is set optimistically on submit and rolled back on rejection.
	tentative
	confirmed
)

// Snapshot is an immutable view of the gate.
type Snapshot struct {
	State State
	Auth  models.AuthState

	// Overlay explains which challenges remain; empty once authenticated.
	Overlay string
	// Description is the text of the open prompt, if any.
	Description string
	// Message is the last inline error.
	Message string
	// EmailDraft is the email last typed into the prompt; dismissal clears it.
	EmailDraft string
	// Pending is true while a submission is in flight.
	Pending bool
}

// Blurred reports whether content must stay obscured.
func (s Snapshot) Blurred() bool {
	return s.State != StateAuthenticated
}
