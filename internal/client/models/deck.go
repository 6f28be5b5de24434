// Package models defines the data exchanged with the public deck API and the
// state records shared by the viewer components.
package models

import "time"

// DeckPreferences are the access rules declared by the deck owner.
// They do not change for the lifetime of a viewer session.
type DeckPreferences struct {
	EnableDownloading bool `json:"enable_downloading"`
	HasPassword       bool `json:"has_password"`
	RequireEmail      bool `json:"require_email"`
}

// Deck is the server-owned snapshot of a gated document.
type Deck struct {
	Reference   string          `json:"reference"`
	Title       string          `json:"title"`
	ObjectLink  string          `json:"object_link"`
	DeckSize    int64           `json:"deck_size"`
	IsArchived  bool            `json:"is_archived"`
	ShortLink   string          `json:"short_link"`
	WorkspaceID string          `json:"workspace_id"`
	Preferences DeckPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Session is filled by some API versions that nest the viewer session
	// inside the deck.
	Session *ViewerSession `json:"session,omitempty"`
}

// ViewerSession is the server-tracked record of one visit to a deck.
// The client never mutates it; changes go through UpdateSession.
type ViewerSession struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	DeckID     string    `json:"deck_id"`
	ContactID  string    `json:"contact_id,omitempty"`
	SessionID  string    `json:"session_id"`
	DeviceInfo string    `json:"device_info"`
	OS         string    `json:"os"`
	Browser    string    `json:"browser"`
	IPAddress  string    `json:"ip_address"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	ViewedAt   time.Time `json:"viewed_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateSessionRequest is the POST body of /v1/public/decks/{slug}.
type CreateSessionRequest struct {
	OS         string `json:"os"`
	DeviceInfo string `json:"device_info"`
	Browser    string `json:"browser"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password,omitempty"`
}

// CreateSessionResponse is returned by session creation.
type CreateSessionResponse struct {
	Deck    *Deck          `json:"deck"`
	Session *ViewerSession `json:"session"`
}

// SessionID returns the top-level session token, falling back to the one
// nested in the deck.
func (r *CreateSessionResponse) SessionID() string {
	if r == nil {
		return ""
	}
	if r.Session != nil && r.Session.SessionID != "" {
		return r.Session.SessionID
	}
	if r.Deck != nil && r.Deck.Session != nil {
		return r.Deck.Session.SessionID
	}
	return ""
}

// UpdateSessionRequest is the PUT body of /v1/public/decks/{slug}.
// TimeSpent is the absolute number of seconds viewed so far, never a delta.
type UpdateSessionRequest struct {
	SessionID string  `json:"session_id"`
	Email     string  `json:"email,omitempty"`
	Password  string  `json:"password,omitempty"`
	TimeSpent *uint32 `json:"time_spent,omitempty"`
}

// Seconds is a helper for building UpdateSessionRequest.TimeSpent.
func Seconds(v uint32) *uint32 {
	return &v
}
