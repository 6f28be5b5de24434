// Package report forwards unexpected failures to an observability collector.
package report

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/logging"
)

// Tags are attached to a captured error, e.g. slug, session id, phase.
type Tags map[string]string

// Reporter captures errors. Implementations must be safe for concurrent use
// and must not block for long.
type Reporter interface {
	Capture(ctx context.Context, err error, tags Tags)
	// Flush waits up to timeout for buffered reports to be delivered.
	Flush(timeout time.Duration) bool
}

// LogReporter writes captured errors to a logger.
type LogReporter struct {
	logger logging.Logger
}

func NewLogReporter(logger logging.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Capture(ctx context.Context, err error, tags Tags) {
	if err == nil {
		return
	}
	args := make([]any, 0, 2*len(tags)+2)
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		args = append(args, k, tags[k])
	}
	args = append(args, "error", err)
	r.logger.Error(ctx, "error captured", args...)
}

func (r *LogReporter) Flush(time.Duration) bool { return true }

// Multi fans out to several reporters.
type Multi []Reporter

func (m Multi) Capture(ctx context.Context, err error, tags Tags) {
	for _, r := range m {
		r.Capture(ctx, err, tags)
	}
}

func (m Multi) Flush(timeout time.Duration) bool {
	ok := true
	for _, r := range m {
		ok = r.Flush(timeout) && ok
	}
	return ok
}
