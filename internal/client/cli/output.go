package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/deckviewer/internal/client/auth"
	"github.com/dmitrijs2005/deckviewer/internal/client/tour"
	"github.com/dmitrijs2005/deckviewer/internal/client/viewer"
)

// statusLine is the short state shown in the REPL prompt.
func statusLine(v viewer.View) string {
	switch {
	case v.Phase == viewer.PhaseFailed:
		return "(error)"
	case v.Gate.State == auth.StatePasswordPrompt:
		return "(password)"
	case v.Gate.State == auth.StateEmailPrompt:
		return "(email)"
	case v.Gate.State == auth.StateDenied:
		return "(unavailable)"
	case v.Phase == viewer.PhaseReady && !v.Blurred:
		return fmt.Sprintf("(%d/%d)", v.Page, v.NumPages)
	case v.Loading != "":
		return "(loading)"
	default:
		return ""
	}
}

// describeView lists everything worth showing about v.
func describeView(v viewer.View) []string {
	var lines []string
	if v.Title != "" {
		lines = append(lines, "Deck: "+v.Title)
	}
	lines = append(lines, "Status: "+v.Phase.String())
	if v.Loading != "" {
		lines = append(lines, v.Loading)
	}
	if v.Overlay != "" {
		lines = append(lines, v.Overlay)
	}
	if v.Gate.Description != "" {
		lines = append(lines, v.Gate.Description)
	}
	if v.NumPages > 0 {
		lines = append(lines, pageLine(v))
	}
	if v.Error != "" {
		lines = append(lines, errorLine(v))
	}
	lines = append(lines,
		fmt.Sprintf("Downloads: %s  Theme: %s  Sidebar: %s  Fullscreen: %s",
			onOff(v.DownloadEnabled), v.Theme, onOff(v.SidebarOpen), onOff(v.Fullscreen)),
		fmt.Sprintf("Time spent: %ds", v.TimeSpent),
	)
	return lines
}

// describeChange lists what changed between two consecutive views.
func describeChange(prev, cur viewer.View) []string {
	var lines []string

	if cur.Title != "" && cur.Title != prev.Title {
		lines = append(lines, "Deck: "+cur.Title)
	}
	if cur.Loading != "" && cur.Loading != prev.Loading {
		lines = append(lines, cur.Loading)
	}
	if cur.Overlay != "" && cur.Overlay != prev.Overlay {
		lines = append(lines, cur.Overlay)
	}

	if cur.Gate.State != prev.Gate.State {
		switch cur.Gate.State {
		case auth.StatePasswordPrompt:
			lines = append(lines, cur.Gate.Description+" (type 'password')")
		case auth.StateEmailPrompt:
			lines = append(lines, cur.Gate.Description+" (type 'email <address>')")
		case auth.StateAuthenticated:
			if prev.Gate.State != auth.StateLocked {
				lines = append(lines, "Access granted.")
			}
		}
	}
	if cur.Gate.Message != "" && cur.Gate.Message != prev.Gate.Message {
		lines = append(lines, cur.Gate.Message)
	}

	if cur.Phase == viewer.PhaseReady && !cur.Blurred {
		if prev.Phase != viewer.PhaseReady || prev.Blurred {
			lines = append(lines, fmt.Sprintf("Document ready: %d pages", cur.NumPages))
		}
		if cur.Page != prev.Page || cur.NumPages != prev.NumPages || prev.Blurred {
			lines = append(lines, pageLine(cur))
		}
	}

	if cur.Error != "" && (cur.Error != prev.Error || prev.Phase != viewer.PhaseFailed) {
		lines = append(lines, errorLine(cur))
	}

	lines = append(lines, tourChange(prev.Tour, cur.Tour)...)

	if cur.SidebarOpen != prev.SidebarOpen {
		lines = append(lines, "Sidebar "+openClosed(cur.SidebarOpen))
	}
	if cur.Fullscreen != prev.Fullscreen {
		lines = append(lines, "Fullscreen "+onOff(cur.Fullscreen))
	}
	if prev.Theme != "" && cur.Theme != prev.Theme {
		lines = append(lines, "Theme: "+cur.Theme)
	}
	return lines
}

func tourChange(prev, cur tour.Snapshot) []string {
	switch {
	case cur.Running && (!prev.Running || cur.Index != prev.Index):
		buttons := make([]string, 0, len(cur.Step.Buttons))
		for _, b := range cur.Step.Buttons {
			buttons = append(buttons, strings.ToLower(string(b)))
		}
		return []string{fmt.Sprintf("Tour %d/%d: %s [tour %s]",
			cur.Index+1, cur.Total, cur.Step.Text, strings.Join(buttons, "|"))}
	case prev.Running && !cur.Running:
		return []string{"Tour finished."}
	default:
		return nil
	}
}

func pageLine(v viewer.View) string {
	return fmt.Sprintf("Page %d of %d (%.0f%%)", v.Page, v.NumPages, v.ReadingPercent)
}

func errorLine(v viewer.View) string {
	if v.Retryable {
		return "Error: " + v.Error + " (type 'retry')"
	}
	return "Error: " + v.Error
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func openClosed(b bool) string {
	if b {
		return "open"
	}
	return "closed"
}
