package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markis/jawab/internal/stream"
)

// Constants
const (
	AnswerPath   = "/get_jawab"
	DefaultRatio = 0.8

	maxErrorBody = 512
)

var (
	ErrEmptyQuestion = errors.New("question required: please enter a question")
	ErrRatioRange    = errors.New("ratio must be between 0 and 1")
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request failed with status %d", e.Code)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.Code, e.Body)
}

// Question is one submission: free text plus the desired Hindi/English
// balance, 0 meaning more Hindi and 1 more English.
type Question struct {
	Text  string
	Ratio float64
}

// Validate rejects blank questions and ratios outside [0,1].
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestion
	}
	if q.Ratio < 0 || q.Ratio > 1 {
		return fmt.Errorf("%w, got %g", ErrRatioRange, q.Ratio)
	}
	return nil
}

// Client talks to the answer service. It keeps no per-request state; every
// call to Stream gets its own decoder.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the shared transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds the whole request including reading the stream.
// Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = getHTTPClient(c.timeout)
	}
	return c
}

// getHTTPClient returns a copy of the shared HTTP client with the given timeout
var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

func getHTTPClient(timeout time.Duration) *http.Client {
	httpClientOnce.Do(func() {
		transport := &http.Transport{
			Proxy:              http.ProxyFromEnvironment,
			MaxIdleConns:       100,
			IdleConnTimeout:    90 * time.Second,
			DisableCompression: false,
			DisableKeepAlives:  false,
			ForceAttemptHTTP2:  true,
		}

		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext

		httpClient = &http.Client{
			Transport: transport,
		}
	})

	clientCopy := *httpClient
	clientCopy.Timeout = timeout
	return &clientCopy
}

// RequestURL builds the GET URL for q.
func (c *Client) RequestURL(q Question) (string, error) {
	u, err := url.Parse(c.endpoint + AnswerPath)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be http or https", c.endpoint)
	}

	query := u.Query()
	query.Set("question", q.Text)
	query.Set("ratio", strconv.FormatFloat(q.Ratio, 'f', -1, 64))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Open submits q and returns the response body once the service has
// accepted the request. The caller owns the body. Failures here are
// transport failures: the request could not be sent, the status was not
// 2xx or there is no body.
func (c *Client) Open(ctx context.Context, q Question) (io.ReadCloser, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	target, err := c.RequestURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Request-Id", requestID)

	logger := c.logger.With("request_id", requestID)
	logger.Debug("submitting question", "url", target, "ratio", q.Ratio)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Debug("failed to close response body", "error", err)
			}
		}()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Warn("answer request rejected", "status", resp.StatusCode)
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if resp.Body == nil {
		return nil, errors.New("response body is empty")
	}

	logger.Debug("streaming answer", "status", resp.StatusCode)
	return resp.Body, nil
}

// Stream opens the answer and returns a parser that is already consuming
// it. A failure while reading arrives once as an event with Error set.
// Cancelling ctx closes the connection and stops event delivery.
func (c *Client) Stream(ctx context.Context, q Question) (*stream.Parser, error) {
	body, err := c.Open(ctx, q)
	if err != nil {
		return nil, err
	}

	p := stream.NewParser(ctx, c.logger)
	go p.Process(body)
	return p, nil
}
