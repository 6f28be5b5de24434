package tour

import "github.com/dmitrijs2005/deckviewer/internal/client/ui"

// Button is an action offered on a tour step.
type Button string

const (
	ButtonBack Button = "Back"
	ButtonNext Button = "Next"
	ButtonDone Button = "Done"
)

// Step is one stop of the tour, attached to the element matching Selector.
type Step struct {
	ID       string
	Selector string
	// Side is where the step is attached relative to its element.
	Side    string
	Text    string
	Buttons []Button
}

// DefaultSteps returns the viewer tour.
func DefaultSteps() []Step {
	return []Step{
		{
			ID:       "sidebar",
			Selector: ui.SelectorSidebarToggle,
			Side:     "right",
			Text:     "Toggle the sidebar to view all pages in the document",
			Buttons:  []Button{ButtonNext},
		},
		{
			ID:       "navigation",
			Selector: ui.SelectorPageNavigation,
			Side:     "bottom",
			Text:     "Navigate through pages using these controls or your keyboard arrow keys",
			Buttons:  []Button{ButtonBack, ButtonNext},
		},
		{
			ID:       "download",
			Selector: ui.SelectorDownload,
			Side:     "bottom",
			Text:     "Download the document for offline viewing",
			Buttons:  []Button{ButtonBack, ButtonNext},
		},
		{
			ID:       "fullscreen",
			Selector: ui.SelectorFullscreen,
			Side:     "bottom",
			Text:     "Toggle fullscreen mode for a more immersive reading experience",
			Buttons:  []Button{ButtonBack, ButtonNext},
		},
		{
			ID:       "theme",
			Selector: ui.SelectorThemeSwitcher,
			Side:     "bottom",
			Text:     "Switch between light and dark mode for comfortable reading",
			Buttons:  []Button{ButtonBack, ButtonNext},
		},
		{
			ID:       "progress",
			Selector: ui.SelectorProgressBar,
			Side:     "top",
			Text:     "Track your reading progress here",
			Buttons:  []Button{ButtonBack, ButtonDone},
		},
	}
}
