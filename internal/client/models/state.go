package models

import "time"

// AuthState is derived by the auth gate from the deck preferences and the
// verification of each challenge. It is never assigned directly.
type AuthState struct {
	PasswordVerified bool
	EmailVerified    bool
	Authenticated    bool
}

// DownloadState describes one progressive document load.
type DownloadState struct {
	Received int64
	// Total is -1 when the source does not declare a length.
	Total  int64
	Blob   []byte
	Failed bool
}

// EngagementState is the time-spent accumulator of one session.
type EngagementState struct {
	Accumulated time.Duration
	LastTick    time.Time
	Visible     bool
}

// Seconds returns the whole seconds accumulated so far.
func (s EngagementState) Seconds() uint32 {
	return uint32(s.Accumulated / time.Second)
}

// PaginationState is the current page and the page count of the document.
type PaginationState struct {
	Current  int
	NumPages int
}

// DeviceInfo describes the viewer's device as sent on session creation.
type DeviceInfo struct {
	OS         string
	Browser    string
	DeviceInfo string
}
