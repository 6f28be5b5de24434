// Package render opens downloaded documents for display. Pixel rendering is
// left to the front-end; this package only reports whether a document can be
// shown and how many pages it has.
package render

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/deckviewer/internal/common"
	"github.com/dmitrijs2005/deckviewer/internal/logging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const msgLoadFailed = "Error loading document. Please try again later."

var (
	errEmptyDocument = errors.New("empty document")
	errNoPages       = errors.New("document has no pages")
)

// Document is an opened, read-only document.
type Document interface {
	NumPages() int
	// Bytes returns the original blob. Callers must not modify it.
	Bytes() []byte
}

// Renderer turns a downloaded blob into a Document.
type Renderer interface {
	Open(ctx context.Context, blob []byte) (Document, error)
}

var disableConfigDir sync.Once

// PDFRenderer opens PDF documents with pdfcpu.
type PDFRenderer struct {
	conf   *model.Configuration
	logger logging.Logger
}

func NewPDFRenderer(logger logging.Logger) *PDFRenderer {
	disableConfigDir.Do(api.DisableConfigDir)
	if logger == nil {
		logger = logging.Nop()
	}
	return &PDFRenderer{conf: model.NewDefaultConfiguration(), logger: logger}
}

func (r *PDFRenderer) Open(ctx context.Context, blob []byte) (Document, error) {
	if len(blob) == 0 {
		return nil, loadError(errEmptyDocument)
	}

	n, err := api.PageCount(bytes.NewReader(blob), r.conf)
	if err != nil {
		r.logger.Warn(ctx, "document rejected by pdf reader", "error", err)
		return nil, loadError(err)
	}
	if n < 1 {
		return nil, loadError(errNoPages)
	}

	r.logger.Debug(ctx, "document opened", "pages", n, "bytes", len(blob))
	return &document{pages: n, blob: blob}, nil
}

func loadError(cause error) error {
	return &common.ViewerError{Kind: common.ErrIntegrity, Message: msgLoadFailed, Err: cause}
}

type document struct {
	pages int
	blob  []byte
}

func (d *document) NumPages() int { return d.pages }
func (d *document) Bytes() []byte { return d.blob }
