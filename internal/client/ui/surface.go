// Package ui holds a headless model of the viewer's on-screen controls.
// Controls are addressed by CSS-like selectors so the guided tour can find
// them the same way a browser would.
package ui

import (
	"slices"
	"sync"
)

const (
	SelectorSidebarToggle  = ".sidebar-toggle"
	SelectorPageNavigation = ".page-navigation"
	SelectorDownload       = ".download-button"
	SelectorFullscreen     = ".fullscreen-button"
	SelectorThemeSwitcher  = ".theme-switcher button"
	SelectorProgressBar    = ".progress-bar"
)

// Controls are the selectors mounted once a document is displayed.
var Controls = []string{
	SelectorSidebarToggle,
	SelectorPageNavigation,
	SelectorDownload,
	SelectorFullscreen,
	SelectorThemeSwitcher,
	SelectorProgressBar,
}

// Surface is a set of mounted elements with change notification, standing in
// for a DOM and its mutation observer.
type Surface struct {
	mu     sync.Mutex
	nodes  map[string]struct{}
	subs   map[int]chan struct{}
	nextID int
}

func NewSurface() *Surface {
	return &Surface{
		nodes: map[string]struct{}{},
		subs:  map[int]chan struct{}{},
	}
}

// Mount adds selectors and notifies subscribers if anything changed.
func (s *Surface) Mount(selectors ...string) {
	s.mu.Lock()
	changed := false
	for _, sel := range selectors {
		if _, ok := s.nodes[sel]; !ok {
			s.nodes[sel] = struct{}{}
			changed = true
		}
	}
	if changed {
		s.notifyLocked()
	}
	s.mu.Unlock()
}

// Unmount removes selectors and notifies subscribers if anything changed.
func (s *Surface) Unmount(selectors ...string) {
	s.mu.Lock()
	changed := false
	for _, sel := range selectors {
		if _, ok := s.nodes[sel]; ok {
			delete(s.nodes, sel)
			changed = true
		}
	}
	if changed {
		s.notifyLocked()
	}
	s.mu.Unlock()
}

func (s *Surface) Exists(selector string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[selector]
	return ok
}

// Mounted returns the mounted selectors in sorted order.
func (s *Surface) Mounted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.nodes))
	for sel := range s.nodes {
		out = append(out, sel)
	}
	slices.Sort(out)
	return out
}

// Subscribe returns a channel that receives a value after changes. Bursts of
// changes may be coalesced into one notification. The returned func
// unsubscribes.
func (s *Surface) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Reset unmounts everything and drops all subscribers.
func (s *Surface) Reset() {
	s.mu.Lock()
	s.nodes = map[string]struct{}{}
	s.subs = map[int]chan struct{}{}
	s.mu.Unlock()
}

func (s *Surface) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
