// Package api is the typed client for the banking REST backend. Every
// endpoint has one method; each takes the caller's Session explicitly and
// returns either a value or an *Error.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"bankpro/internal/log"
	"bankpro/internal/middleware/trace"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 4 << 20
)

// Client talks to the backend over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.StructuredLogger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = log.NewStructuredLogger(l.WithComponent(log.ComponentAPI)) }
}

// New creates a client for baseURL. No request is retried.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     log.NewStructuredLogger(log.Discard()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, sess Session, method, path string, query url.Values, in, out any) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, sess, method, path, query, in, out)
	c.logger.LogAPICall(ctx, method, path, status, time.Since(start), err)
	return err
}

func (c *Client) roundTrip(ctx context.Context, sess Session, method, path string, query url.Values, in, out any) (int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	requestID := trace.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(trace.HeaderRequestID, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, &Error{Kind: KindNetwork, Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &Error{
			Kind:   KindStatus,
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Detail: parseDetail(raw),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return resp.StatusCode, &Error{Kind: KindDecode, Method: method, Path: path, Err: errors.New("empty body")}
		}
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, &Error{Kind: KindDecode, Method: method, Path: path, Err: err}
	}
	return resp.StatusCode, nil
}

// userQuery scopes a request to the session's user when it is known.
func userQuery(sess Session) url.Values {
	q := url.Values{}
	if sess.UserID > 0 {
		q.Set("user_id", strconv.FormatInt(sess.UserID, 10))
	}
	return q
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}
