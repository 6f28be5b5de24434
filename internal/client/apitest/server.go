// Package apitest runs an in-process fake of the public deck API for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Call is one request received by the fake.
type Call struct {
	Method    string
	Slug      string
	RequestID string
	UserAgent string
	Body      []byte
}

// Server is a fake deck API. Responses are configured through the exported
// fields before or between requests; calls are recorded in order.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	calls []Call

	// Decks maps slug to the deck returned by POST.
	Decks map[string]*models.Deck
	// SessionID is returned in the top-level session; empty omits the session.
	SessionID string
	// Document is served at /documents/{slug}.
	Document []byte

	// CreateFailures makes the next N POST calls answer CreateStatus.
	CreateFailures int
	CreateStatus   int

	// UpdateHandler decides the PUT response; nil accepts everything.
	UpdateHandler func(req models.UpdateSessionRequest) (int, string)
}

// New starts a fake server. The caller must Close it.
func New() *Server {
	s := &Server{
		Decks:        map[string]*models.Deck{},
		SessionID:    "sess-1",
		CreateStatus: http.StatusServiceUnavailable,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/v1/public/decks/{slug}", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Put("/", s.updateSession)
	})
	r.Get("/documents/{slug}", s.document)

	s.Server = httptest.NewServer(r)
	return s
}

// DocumentURL is the object link of a deck served by this fake.
func (s *Server) DocumentURL(slug string) string {
	return s.URL + "/documents/" + slug
}

// AddDeck registers a deck whose document is served by the fake.
func (s *Server) AddDeck(slug string, prefs models.DeckPreferences) *models.Deck {
	d := &models.Deck{
		Reference:   slug,
		Title:       "Deck " + slug,
		ObjectLink:  s.DocumentURL(slug),
		Preferences: prefs,
	}
	s.mu.Lock()
	s.Decks[slug] = d
	s.mu.Unlock()
	return d
}

// Calls returns a copy of the recorded calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Updates decodes the recorded PUT bodies.
func (s *Server) Updates() []models.UpdateSessionRequest {
	var out []models.UpdateSessionRequest
	for _, c := range s.Calls() {
		if c.Method != http.MethodPut {
			continue
		}
		var req models.UpdateSessionRequest
		if json.Unmarshal(c.Body, &req) == nil {
			out = append(out, req)
		}
	}
	return out
}

func (s *Server) record(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method:    r.Method,
		Slug:      chi.URLParam(r, "slug"),
		RequestID: r.Header.Get("X-Request-ID"),
		UserAgent: r.Header.Get("User-Agent"),
		Body:      body,
	})
	s.mu.Unlock()
	return body
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	s.mu.Lock()
	fail := s.CreateFailures > 0
	if fail {
		s.CreateFailures--
	}
	status := s.CreateStatus
	deck, ok := s.Decks[chi.URLParam(r, "slug")]
	sessionID := s.SessionID
	s.mu.Unlock()

	if fail {
		writeJSON(w, status, map[string]string{"message": "Service temporarily unavailable"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Deck not found"})
		return
	}

	resp := models.CreateSessionResponse{Deck: deck}
	if sessionID != "" {
		resp.Session = &models.ViewerSession{SessionID: sessionID, DeckID: deck.Reference}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	body := s.record(r)

	var req models.UpdateSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}

	s.mu.Lock()
	h := s.UpdateHandler
	s.mu.Unlock()

	if h != nil {
		if status, msg := h(req); status != http.StatusOK {
			writeJSON(w, status, map[string]string{"message": msg})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) document(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.Document
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
