// Package gateway is the HTTP client for the CLIcafe REST API: bearer auth,
// a single refresh-and-retry on 401, catalog caching and payment reports.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/metrics"
	"github.com/clicafe/clicafe/pkg/cache"
	"github.com/clicafe/clicafe/pkg/protocol"
	"github.com/clicafe/clicafe/pkg/retry"
)

// Client talks to the CLIcafe API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	loginRetry  retry.Config
	reportRetry retry.Config
	cache       *cache.Cache

	mu        sync.RWMutex
	online    bool
	lastPing  time.Time
	access    string
	refresh   string
	onExpired func()

	// refreshMu serialises refreshes so that concurrent 401s share one.
	refreshMu sync.Mutex
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// LoginRetry applies to Login only. Zero value means retry.DefaultConfig().
	LoginRetry retry.Config

	// ReportRetry applies to ReportPayment. Zero value means retry.DefaultConfig().
	ReportRetry retry.Config

	// Cache, if set, stores Categories and Products responses.
	Cache *cache.Cache

	// OnSessionExpired is called once each time a refresh fails.
	OnSessionExpired func()
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.LoginRetry.MaxAttempts == 0 {
		cfg.LoginRetry = retry.DefaultConfig()
	}
	if cfg.ReportRetry.MaxAttempts == 0 {
		cfg.ReportRetry = retry.DefaultConfig()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		loginRetry:  cfg.LoginRetry,
		reportRetry: cfg.ReportRetry,
		cache:       cfg.Cache,
		online:      true,
		onExpired:   cfg.OnSessionExpired,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokens installs an access/refresh token pair, e.g. from a TokenFile.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = access
	c.refresh = refresh
}

// Tokens returns the current access and refresh tokens.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.refresh
}

// ClearTokens forgets both tokens.
func (c *Client) ClearTokens() {
	c.SetTokens("", "")
}

// IsAuthenticated reports whether an access token is present.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access != ""
}

// OnSessionExpired replaces the session-expired hook.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// IsOnline returns true if the last request reached the server.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			logging.Info("CLIcafe API is reachable again", zap.String("url", c.baseURL))
		} else {
			logging.Warn("CLIcafe API is unreachable", zap.String("url", c.baseURL))
		}
	}
	c.online = online
	c.lastPing = time.Now()
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodGet, path: "/health/", endpoint: "health"})
}

// call describes one API request.
type call struct {
	method   string
	path     string
	query    url.Values
	body     interface{}
	out      interface{}
	auth     bool   // send the bearer token; 401 triggers refresh-and-retry
	endpoint string // metrics label
	raw      *[]byte
}

// do sends rc. On a 401 from an authenticated call it refreshes the access
// token once and retries once.
func (c *Client) do(ctx context.Context, rc call) error {
	token, err := c.send(ctx, rc)
	if !rc.auth || !IsStatus(err, http.StatusUnauthorized) {
		return err
	}
	if err := c.refreshAfter(ctx, token); err != nil {
		return err
	}
	_, err = c.send(ctx, rc)
	return err
}

func (c *Client) send(ctx context.Context, rc call) (string, error) {
	var body io.Reader
	if rc.body != nil {
		data, err := json.Marshal(rc.body)
		if err != nil {
			return "", fmt.Errorf("encode %s request: %w", rc.endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + rc.path
	if len(rc.query) > 0 {
		u += "?" + rc.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, rc.method, u, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if rc.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	var token string
	if rc.auth {
		token, _ = c.Tokens()
		if token == "" {
			return "", ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordGatewayRequest(rc.endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return token, ctx.Err()
		}
		c.setOnline(false)
		return token, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	metrics.RecordGatewayRequest(rc.endpoint, resp.StatusCode, duration)
	logging.Debug("gateway request",
		zap.String("method", rc.method),
		zap.String("path", rc.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", duration),
	)
	c.setOnline(true)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return token, fmt.Errorf("read %s response: %w", rc.endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp protocol.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Message = errResp.Text()
		}
		return token, apiErr
	}

	if rc.raw != nil {
		*rc.raw = data
	}
	if rc.out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, rc.out); err != nil {
			return token, fmt.Errorf("parse %s response: %w", rc.endpoint, err)
		}
	}
	return token, nil
}

// refreshAfter refreshes the access token after stale was rejected. If
// another goroutine already replaced stale, its result is reused.
func (c *Client) refreshAfter(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current, _ := c.Tokens(); current != "" && current != stale {
		return nil
	}

	if _, err := c.Refresh(ctx); err != nil {
		logging.Warn("token refresh after 401 failed", zap.Error(err))
		c.expire()
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	return nil
}

// expire clears tokens and fires the session-expired hook.
func (c *Client) expire() {
	c.mu.Lock()
	c.access = ""
	c.refresh = ""
	hook := c.onExpired
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func escape(id string) string {
	return url.PathEscape(id)
}
