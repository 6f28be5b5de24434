package tour

import (
	"context"
	"time"
)

// WaitFor returns as soon as cond holds: immediately, after a value on
// changes for which cond holds, or when timeout elapses or ctx is done,
// whichever comes first. It reports whether cond held.
func WaitFor(ctx context.Context, cond func() bool, changes <-chan struct{}, timeout time.Duration) bool {
	if cond() {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-changes:
			if cond() {
				return true
			}
		case <-timer.C:
			return cond()
		case <-ctx.Done():
			return false
		}
	}
}
