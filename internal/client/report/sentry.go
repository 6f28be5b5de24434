package report

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryReporter sends captured errors to Sentry. Tags become Sentry tags
// and are also grouped under the "viewer" context.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter connects to the project identified by dsn.
func NewSentryReporter(dsn, release string) (*SentryReporter, error) {
	return newSentryReporter(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	})
}

func newSentryReporter(opts sentry.ClientOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *SentryReporter) Capture(ctx context.Context, err error, tags Tags) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		viewer := sentry.Context{}
		for k, v := range tags {
			scope.SetTag(k, v)
			viewer[k] = v
		}
		scope.SetContext("viewer", viewer)
		r.hub.CaptureException(err)
	})
}

func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
