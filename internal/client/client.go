// Package client talks to a running tile pairs server: REST calls for
// sessions and clicks, and a WebSocket stream of board updates. The desktop
// front-end and the auto-player share it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/service"
)

// ErrNoSession is returned by session calls before a session is set
var ErrNoSession = errors.New("no session ID set")

// APIError is a non-2xx reply from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// retryable reports whether a request may succeed if sent again. Only
// reads are repeated, except that any request can be resent when the
// connection was never established.
func retryable(method string, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	if method != http.MethodGet {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError && apiErr.StatusCode != http.StatusNotImplemented
	}
	return true
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetries sets how many times a failed request is retried
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithBackoff sets the delay bounds between retries
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		c.minDelay = min
		c.maxDelay = max
	}
}

// Client is a REST client bound to at most one session
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
	logger    *zap.Logger

	retries  int
	minDelay time.Duration
	maxDelay time.Duration
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   zap.NewNop(),
		retries:  3,
		minDelay: 100 * time.Millisecond,
		maxDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionID returns the current session
func (c *Client) SessionID() string {
	return c.sessionID
}

// UseSession binds the client to an existing session
func (c *Client) UseSession(id string) {
	c.sessionID = id
}

func (c *Client) backoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    c.minDelay,
		Max:    c.maxDelay,
		Factor: 2,
		Jitter: true,
	}
}

// do sends a JSON request and decodes the reply into result, retrying
// with exponential backoff where retryable allows it.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	b := c.backoff()
	for {
		err := c.send(ctx, method, path, payload, result)
		if err == nil || !retryable(method, err) || int(b.Attempt()) >= c.retries {
			return err
		}

		delay := b.Duration()
		c.logger.Debug("retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, result interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(data, &errResp)
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) (string, error) {
	if c.sessionID == "" {
		return "", ErrNoSession
	}
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix, nil
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// CreateSession starts a new session and binds the client to it. An empty
// configID uses the server default.
func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// Session fetches the bound session
func (c *Client) Session(ctx context.Context) (*service.SessionInfo, error) {
	path, err := c.sessionPath("")
	if err != nil {
		return nil, err
	}
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Board fetches the current snapshot
func (c *Client) Board(ctx context.Context) (*engine.Snapshot, error) {
	path, err := c.sessionPath("/state")
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := c.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Click sends a click request
func (c *Client) Click(ctx context.Context, req service.ClickRequest) (*service.ClickResponse, error) {
	path, err := c.sessionPath("/click")
	if err != nil {
		return nil, err
	}
	var resp service.ClickResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClickCell clicks the tile at row, col
func (c *Client) ClickCell(ctx context.Context, row, col int) (*service.ClickResponse, error) {
	return c.Click(ctx, service.ClickRequest{Row: &row, Col: &col})
}

// ClickPoint clicks a board pixel
func (c *Client) ClickPoint(ctx context.Context, p engine.Point) (*service.ClickResponse, error) {
	return c.Click(ctx, service.ClickRequest{X: &p.X, Y: &p.Y})
}

// Reset restarts the session at stage 1
func (c *Client) Reset(ctx context.Context) (*engine.Snapshot, error) {
	path, err := c.sessionPath("/reset")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Message string           `json:"message"`
		Board   *engine.Snapshot `json:"board"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Board, nil
}

// Hint asks for a pair that can be matched now
func (c *Client) Hint(ctx context.Context) (*service.HintResult, error) {
	path, err := c.sessionPath("/hint")
	if err != nil {
		return nil, err
	}
	var hint service.HintResult
	if err := c.do(ctx, http.MethodGet, path, nil, &hint); err != nil {
		return nil, err
	}
	return &hint, nil
}

// Configs lists the server's board configurations
func (c *Client) Configs(ctx context.Context) ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	if err := c.do(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}
