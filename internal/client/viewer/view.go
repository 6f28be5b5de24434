package viewer

import (
	"github.com/dmitrijs2005/deckviewer/internal/client/auth"
	"github.com/dmitrijs2005/deckviewer/internal/client/tour"
)

// Phase is the coarse lifecycle of a viewer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingDeck
	// PhaseGated waits for the auth gate; the deck is known but content is
	// obscured.
	PhaseGated
	PhaseDownloading
	PhaseRendering
	PhaseReady
	PhaseFailed
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingDeck:
		return "loading-deck"
	case PhaseGated:
		return "gated"
	case PhaseDownloading:
		return "downloading"
	case PhaseRendering:
		return "rendering"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// View is a snapshot of everything the rendering layer shows.
type View struct {
	ID    string
	Phase Phase
	Title string

	// Loading is the status line while the deck or document is loading.
	Loading  string
	Progress int

	Gate    auth.Snapshot
	Overlay string
	Blurred bool

	Page           int
	NumPages       int
	ReadingPercent float64
	CanPrev        bool
	CanNext        bool

	DownloadEnabled bool
	SidebarOpen     bool
	Fullscreen      bool
	Theme           string
	Visible         bool

	Tour tour.Snapshot

	// Error is the message of a failed phase. Retryable reports whether
	// Retry can recover from it.
	Error     string
	Retryable bool

	TimeSpent uint32
}
