package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Source opens a document stream. total is -1 when the length is unknown.
type Source interface {
	Open(ctx context.Context, locator string) (body io.ReadCloser, total int64, err error)
}

// HTTPSource fetches http and https locators.
type HTTPSource struct {
	Client *http.Client
}

func (s *HTTPSource) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	hc := s.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("download failed: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = -1
	}
	return resp.Body, total, nil
}

// Mux dispatches to a Source by locator scheme.
type Mux map[string]Source

func (m Mux) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid document locator: %w", err)
	}
	src, ok := m[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported document locator scheme %q", u.Scheme)
	}
	return src.Open(ctx, locator)
}
