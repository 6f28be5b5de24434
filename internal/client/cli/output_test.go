package cli

import (
	"testing"

	"github.com/dmitrijs2005/deckviewer/internal/client/auth"
	"github.com/dmitrijs2005/deckviewer/internal/client/tour"
	"github.com/dmitrijs2005/deckviewer/internal/client/viewer"
	"github.com/stretchr/testify/assert"
)

func TestDescribeChange(t *testing.T) {
	ready := viewer.View{Phase: viewer.PhaseReady, Page: 1, NumPages: 4, ReadingPercent: 25, Theme: viewer.ThemeLight,
		Gate: auth.Snapshot{State: auth.StateAuthenticated}}

	tests := []struct {
		name      string
		prev, cur viewer.View
		want      []string
	}{
		{
			name: "progress",
			prev: viewer.View{Phase: viewer.PhaseDownloading, Loading: "Downloading document... 25%"},
			cur:  viewer.View{Phase: viewer.PhaseDownloading, Loading: "Downloading document... 50%"},
			want: []string{"Downloading document... 50%"},
		},
		{
			name: "password prompt",
			prev: viewer.View{Phase: viewer.PhaseLoadingDeck},
			cur: viewer.View{Phase: viewer.PhaseGated, Title: "Q3", Overlay: "This deck requires a password to view.",
				Gate: auth.Snapshot{State: auth.StatePasswordPrompt, Description: "Please enter the password to view this deck."}},
			want: []string{
				"Deck: Q3",
				"This deck requires a password to view.",
				"Please enter the password to view this deck. (type 'password')",
			},
		},
		{
			name: "rejection",
			prev: viewer.View{Gate: auth.Snapshot{State: auth.StatePasswordPrompt}},
			cur:  viewer.View{Gate: auth.Snapshot{State: auth.StatePasswordPrompt, Message: "Invalid password. Please try again."}},
			want: []string{"Invalid password. Please try again."},
		},
		{
			name: "unlocked and ready",
			prev: viewer.View{Phase: viewer.PhaseRendering, Loading: "Loading document...", Blurred: true, Theme: viewer.ThemeLight,
				Gate: auth.Snapshot{State: auth.StateEmailPrompt}},
			cur:  ready,
			want: []string{"Access granted.", "Document ready: 4 pages", "Page 1 of 4 (25%)"},
		},
		{
			name: "page turn",
			prev: ready,
			cur: func() viewer.View {
				v := ready
				v.Page, v.ReadingPercent = 2, 50
				return v
			}(),
			want: []string{"Page 2 of 4 (50%)"},
		},
		{
			name: "failure",
			prev: viewer.View{Phase: viewer.PhaseDownloading},
			cur:  viewer.View{Phase: viewer.PhaseFailed, Error: "Error downloading document. Please try again later.", Retryable: true},
			want: []string{"Error: Error downloading document. Please try again later. (type 'retry')"},
		},
		{
			name: "tour step",
			prev: ready,
			cur: func() viewer.View {
				v := ready
				v.Tour = tour.Snapshot{Running: true, Index: 1, Total: 6, Step: tour.Step{
					Text: "Navigate", Buttons: []tour.Button{tour.ButtonBack, tour.ButtonNext}}}
				return v
			}(),
			want: []string{"Tour 2/6: Navigate [tour back|next]"},
		},
		{
			name: "tour finished",
			prev: func() viewer.View {
				v := ready
				v.Tour = tour.Snapshot{Running: true, Total: 6}
				return v
			}(),
			cur:  ready,
			want: []string{"Tour finished."},
		},
		{
			name: "toggles",
			prev: ready,
			cur: func() viewer.View {
				v := ready
				v.SidebarOpen, v.Fullscreen, v.Theme = true, true, viewer.ThemeDark
				return v
			}(),
			want: []string{"Sidebar open", "Fullscreen on", "Theme: dark"},
		},
		{
			name: "no change",
			prev: ready,
			cur:  ready,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeChange(tt.prev, tt.cur))
		})
	}
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "(password)", statusLine(viewer.View{Gate: auth.Snapshot{State: auth.StatePasswordPrompt}}))
	assert.Equal(t, "(email)", statusLine(viewer.View{Gate: auth.Snapshot{State: auth.StateEmailPrompt}}))
	assert.Equal(t, "(unavailable)", statusLine(viewer.View{Gate: auth.Snapshot{State: auth.StateDenied}}))
	assert.Equal(t, "(error)", statusLine(viewer.View{Phase: viewer.PhaseFailed}))
	assert.Equal(t, "(loading)", statusLine(viewer.View{Loading: "Loading deck details..."}))
	assert.Equal(t, "(2/7)", statusLine(viewer.View{Phase: viewer.PhaseReady, Page: 2, NumPages: 7,
		Gate: auth.Snapshot{State: auth.StateAuthenticated}}))
	assert.Empty(t, statusLine(viewer.View{}))
}

func TestDescribeView(t *testing.T) {
	lines := describeView(viewer.View{
		Title: "Q3", Phase: viewer.PhaseReady, Page: 3, NumPages: 4, ReadingPercent: 75,
		DownloadEnabled: true, Theme: viewer.ThemeDark, TimeSpent: 42,
	})
	assert.Equal(t, []string{
		"Deck: Q3",
		"Status: ready",
		"Page 3 of 4 (75%)",
		"Downloads: on  Theme: dark  Sidebar: off  Fullscreen: off",
		"Time spent: 42s",
	}, lines)
}
