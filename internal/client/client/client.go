package client

import (
	"context"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
)

// Client is the remote session API used by the viewer.
type Client interface {
	// CreateSession opens a viewer session for slug. Implementations retry a
	// failed attempt at most once.
	CreateSession(ctx context.Context, slug string, req models.CreateSessionRequest) (*models.CreateSessionResponse, error)
	// UpdateSession submits credentials or the absolute time spent.
	UpdateSession(ctx context.Context, slug string, req models.UpdateSessionRequest) error
	Close() error
}
