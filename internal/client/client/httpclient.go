package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/client/models"
	"github.com/dmitrijs2005/deckviewer/internal/common"
	"github.com/dmitrijs2005/deckviewer/internal/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	decksPath       = "/v1/public/decks/"
	maxResponseBody = 1 << 20

	RequestIDHeader = "X-Request-ID"

	msgFetchDeck     = "Failed to fetch deck data"
	msgUpdateSession = "Failed to update session"
)

type HTTPClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retryDelay time.Duration
	maxRetries uint64
	logger     logging.Logger
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithRetry sets how many times CreateSession is retried and the pause
// between attempts.
func WithRetry(maxRetries uint64, delay time.Duration) Option {
	return func(c *HTTPClient) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// NewDeckClient returns an HTTPClient rooted at baseURL.
func NewDeckClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "deckviewer",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: time.Second,
		maxRetries: 1,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryDelay <= 0 {
		c.retryDelay = time.Millisecond
	}
	return c, nil
}

func (c *HTTPClient) endpoint(slug string) string {
	return c.baseURL + decksPath + url.PathEscape(slug)
}

func (c *HTTPClient) CreateSession(ctx context.Context, slug string, req models.CreateSessionRequest) (*models.CreateSessionResponse, error) {
	var resp *models.CreateSessionResponse

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewConstant(c.retryDelay))
	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, err := c.createOnce(ctx, slug, req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			c.logger.Warn(ctx, "create session failed", "slug", slug, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) createOnce(ctx context.Context, slug string, req models.CreateSessionRequest) (*models.CreateSessionResponse, error) {
	var resp models.CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, slug, req, &resp, msgFetchDeck); err != nil {
		return nil, err
	}

	if resp.Deck == nil {
		return nil, common.NewIntegrityError("Deck not found in API response")
	}
	if resp.Deck.ObjectLink == "" {
		return nil, common.NewIntegrityError("Document link not found in deck data")
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateSession(ctx context.Context, slug string, req models.UpdateSessionRequest) error {
	return c.do(ctx, http.MethodPut, slug, req, nil, msgUpdateSession)
}

func (c *HTTPClient) do(ctx context.Context, method, slug string, body, out any, fallback string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(slug), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.mapTransportError(err, fallback)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return common.NewNetworkError(fallback, fmt.Errorf("%w: read body: %v", ErrUnavailable, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapStatus(resp.StatusCode, data, fallback)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return common.NewIntegrityError("Invalid API response format")
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *HTTPClient) mapStatus(code int, body []byte, fallback string) error {
	msg := fallback
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
		msg = eb.Message
	}

	var kind error
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = ErrUnauthorized
	case code == http.StatusNotFound:
		kind = ErrNotFound
	case code >= 500, code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		kind = ErrUnavailable
	default:
		return common.NewNetworkError(msg, fmt.Errorf("http status %d", code))
	}
	return common.NewNetworkError(msg, fmt.Errorf("%w: http status %d", kind, code))
}

func (c *HTTPClient) mapTransportError(err error, fallback string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return common.NewNetworkError(fallback, fmt.Errorf("%w: %v", ErrUnavailable, err))
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
