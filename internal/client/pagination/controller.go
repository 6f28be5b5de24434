// Package pagination keeps the current page of an opened document.
package pagination

import (
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
)

// Key names accepted by HandleKey.
const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// Controller is safe for concurrent use. Current is held at 1 until the page
// count is known and is always within [1, NumPages] afterwards.
type Controller struct {
	mu       sync.Mutex
	state    models.PaginationState
	onChange func(models.PaginationState)
}

func New() *Controller {
	return &Controller{state: models.PaginationState{Current: 1}}
}

// OnChange sets a callback invoked, outside the lock, after the state changes.
func (c *Controller) OnChange(fn func(models.PaginationState)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) State() models.PaginationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetNumPages sets the page count and re-clamps the current page.
func (c *Controller) SetNumPages(n int) {
	if n < 0 {
		n = 0
	}
	c.update(func(s *models.PaginationState) {
		s.NumPages = n
		s.Current = clamp(s.Current, n)
	})
}

// GoTo moves to page n clamped to [1, NumPages]. It does nothing while the
// page count is unknown.
func (c *Controller) GoTo(n int) {
	c.update(func(s *models.PaginationState) {
		if s.NumPages == 0 {
			return
		}
		s.Current = clamp(n, s.NumPages)
	})
}

// Step moves by delta pages.
func (c *Controller) Step(delta int) {
	c.update(func(s *models.PaginationState) {
		if s.NumPages == 0 {
			return
		}
		s.Current = clamp(s.Current+delta, s.NumPages)
	})
}

// Enter applies a typed page number. Non-numeric or out of range input is
// ignored rather than clamped; the result reports whether it was applied.
func (c *Controller) Enter(text string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return false
	}
	applied := false
	c.update(func(s *models.PaginationState) {
		if n < 1 || n > s.NumPages {
			return
		}
		s.Current = n
		applied = true
	})
	return applied
}

// HandleKey maps the arrow keys to Step. Keys are ignored while a text input
// has focus. It reports whether the key was consumed.
func (c *Controller) HandleKey(key string, inputFocused bool) bool {
	if inputFocused {
		return false
	}
	switch key {
	case KeyArrowLeft:
		c.Step(-1)
	case KeyArrowRight:
		c.Step(1)
	default:
		return false
	}
	return true
}

func (c *Controller) CanPrev() bool {
	s := c.State()
	return s.NumPages > 0 && s.Current > 1
}

func (c *Controller) CanNext() bool {
	s := c.State()
	return s.NumPages > 0 && s.Current < s.NumPages
}

// Percent is the reading progress, Current/NumPages as a percentage.
func (c *Controller) Percent() float64 {
	return Percent(c.State())
}

// Percent is the reading progress of s; 0 when there are no pages.
func Percent(s models.PaginationState) float64 {
	if s.NumPages <= 0 {
		return 0
	}
	return float64(s.Current) / float64(s.NumPages) * 100
}

func (c *Controller) update(fn func(*models.PaginationState)) {
	c.mu.Lock()
	before := c.state
	fn(&c.state)
	after := c.state
	cb := c.onChange
	c.mu.Unlock()

	if cb != nil && after != before {
		cb(after)
	}
}

func clamp(n, numPages int) int {
	if numPages <= 0 || n < 1 {
		return 1
	}
	if n > numPages {
		return numPages
	}
	return n
}
