package tour

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/deckviewer/internal/client/repositories/metadata"
)

const flagKey = "tour_completed"

// Scope selects whether the completion flag is shared by all decks.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeDeck   Scope = "deck"
)

// FlagKey is the storage key of the completion flag.
func FlagKey(scope Scope, slug string) string {
	if scope == ScopeDeck && slug != "" {
		return flagKey + ":" + slug
	}
	return flagKey
}

// Store persists whether the tour was completed.
type Store interface {
	Completed(ctx context.Context) (bool, error)
	SetCompleted(ctx context.Context) error
	Clear(ctx context.Context) error
}

// MetadataStore keeps the flag in the metadata repository.
type MetadataStore struct {
	repo metadata.Repository
	key  string
}

func NewMetadataStore(repo metadata.Repository, key string) *MetadataStore {
	return &MetadataStore{repo: repo, key: key}
}

func (s *MetadataStore) Completed(ctx context.Context) (bool, error) {
	v, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return false, err
	}
	return string(v) == "true", nil
}

func (s *MetadataStore) SetCompleted(ctx context.Context) error {
	return s.repo.Set(ctx, s.key, []byte("true"))
}

func (s *MetadataStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, s.key)
}

// MemoryStore keeps the flag in memory.
type MemoryStore struct {
	mu   sync.Mutex
	done bool
}

func NewMemoryStore(completed bool) *MemoryStore {
	return &MemoryStore{done: completed}
}

func (s *MemoryStore) Completed(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done, nil
}

func (s *MemoryStore) SetCompleted(context.Context) error {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.done = false
	s.mu.Unlock()
	return nil
}
