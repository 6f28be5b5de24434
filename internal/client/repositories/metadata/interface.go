// Package metadata stores small key/value records in the viewer's local
// SQLite state file. The guided tour keeps its completion flag here.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes every key in one transaction. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
