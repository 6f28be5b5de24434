package loader

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	"github.com/dmitrijs2005/deckviewer/internal/common"
	"github.com/dmitrijs2005/deckviewer/internal/logging"
)

// DefaultChunkSize is the read buffer used when none is configured.
const DefaultChunkSize = 256 << 10

// maxPrealloc caps the buffer reserved up front from a declared length.
const maxPrealloc = 64 << 20

const msgDownloadFailed = "Error downloading document. Please try again later."

type Loader struct {
	source    Source
	chunkSize int
	logger    logging.Logger
}

type Option func(*Loader)

func WithChunkSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.chunkSize = n
		}
	}
}

func WithLogger(log logging.Logger) Option {
	return func(l *Loader) { l.logger = log }
}

func New(source Source, opts ...Option) *Loader {
	l := &Loader{source: source, chunkSize: DefaultChunkSize, logger: logging.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load streams the document at locator. onProgress, when not nil, is called
// after every chunk with a non-decreasing percentage; the last call on
// success carries 100. On failure the returned state has Failed set and the
// error is a common.ErrNetwork ViewerError; no progress follows it.
func (l *Loader) Load(ctx context.Context, locator string, onProgress func(Progress)) (*models.DownloadState, error) {
	state := &models.DownloadState{Total: -1}

	body, total, err := l.source.Open(ctx, locator)
	if err != nil {
		return l.fail(ctx, state, err)
	}
	defer body.Close()
	state.Total = total

	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	var out bytes.Buffer
	out.Grow(preallocSize(total))

	buf := make([]byte, l.chunkSize)
	last := 0
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			state.Received += int64(n)

			p := percentOf(state.Received, total)
			if p < last {
				p = last
			}
			last = p
			emit(Progress{Received: state.Received, Total: total, Percent: p})
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return l.fail(ctx, state, rerr)
		}
		if err := ctx.Err(); err != nil {
			return l.fail(ctx, state, err)
		}
	}

	if last < 100 {
		emit(Progress{Received: state.Received, Total: total, Percent: 100})
	}

	state.Blob = out.Bytes()
	l.logger.Debug(ctx, "document downloaded", "bytes", state.Received, "declared", total)
	return state, nil
}

func (l *Loader) fail(ctx context.Context, state *models.DownloadState, cause error) (*models.DownloadState, error) {
	state.Failed = true
	l.logger.Warn(ctx, "document download failed", "received", state.Received, "error", cause)
	return state, common.NewNetworkError(msgDownloadFailed, cause)
}

// preallocSize is how much to reserve for a body of declared length total.
// The declared length is not trusted beyond maxPrealloc.
func preallocSize(total int64) int {
	if total <= 0 {
		return 0
	}
	return int(min(total, maxPrealloc))
}
