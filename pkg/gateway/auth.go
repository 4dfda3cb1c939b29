package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/metrics"
	"github.com/clicafe/clicafe/pkg/protocol"
	"github.com/clicafe/clicafe/pkg/retry"
)

// TokenFile holds a saved session.
type TokenFile struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	ExpiresAt time.Time `json:"expires_at"`
	Server    string    `json:"server"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	LastLogin time.Time `json:"last_login"`
}

// IsExpired returns true if the access token has expired (with optional
// margin). A token without a known expiry never counts as expired.
func (t *TokenFile) IsExpired(margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// Login authenticates with email/password. Network errors and 5xx responses
// are retried; 401 and other 4xx responses are returned at once.
func (c *Client) Login(ctx context.Context, email, password string) (*protocol.LoginResponse, error) {
	var resp protocol.LoginResponse

	cfg := c.loginRetry
	cfg.OnRetry = func(attempt int, err error) {
		logging.Warn("login attempt failed, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
	}

	err := retry.Do(ctx, cfg, func() error {
		err := c.do(ctx, call{
			method:   http.MethodPost,
			path:     "/login/",
			body:     protocol.LoginRequest{Email: email, Password: password},
			out:      &resp,
			endpoint: "login",
		})
		if transient(err) {
			return retry.Retryable(err)
		}
		return err
	})
	err = retry.Unwrap(err)
	metrics.RecordLoginAttempt(err == nil)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Access == "" {
		return nil, errors.New("login: response carried no access token")
	}

	c.SetTokens(resp.Access, resp.Refresh)
	return &resp, nil
}

// Refresh exchanges the refresh token for a new access token. Backends that
// rotate refresh tokens return a new one; otherwise the old one is kept.
func (c *Client) Refresh(ctx context.Context) (*protocol.RefreshResponse, error) {
	_, refresh := c.Tokens()
	if refresh == "" {
		metrics.RecordTokenRefresh(false)
		return nil, ErrNotAuthenticated
	}

	var resp protocol.RefreshResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/token/refresh/",
		body:     protocol.RefreshRequest{Refresh: refresh},
		out:      &resp,
		endpoint: "token_refresh",
	})
	if err == nil && resp.Access == "" {
		err = errors.New("response carried no access token")
	}
	metrics.RecordTokenRefresh(err == nil)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if resp.Refresh == "" {
		resp.Refresh = refresh
	}
	c.SetTokens(resp.Access, resp.Refresh)
	return &resp, nil
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, req protocol.RegisterRequest) (*protocol.UserProfile, error) {
	var profile protocol.UserProfile
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/register/",
		body:     req,
		out:      &profile,
		endpoint: "register",
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if profile.Email == "" {
		profile.Email = req.Email
	}
	return &profile, nil
}

// ResetPassword asks the API to send a password reset mail.
func (c *Client) ResetPassword(ctx context.Context, email string) (*protocol.AckResponse, error) {
	var ack protocol.AckResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/password-reset/",
		body:     protocol.PasswordResetRequest{Email: email},
		out:      &ack,
		endpoint: "password_reset",
	})
	if err != nil {
		return nil, fmt.Errorf("password reset: %w", err)
	}
	return &ack, nil
}

// Logout forgets the tokens. The API keeps no server-side session.
func (c *Client) Logout() {
	c.ClearTokens()
}

// StartRefreshLoop starts a goroutine that refreshes the access token every
// interval while the client is authenticated. onRefreshed, if set, receives
// each new token pair. A failed refresh expires the session; the loop then
// idles until tokens are set again and runs until ctx is done.
func (c *Client) StartRefreshLoop(ctx context.Context, interval time.Duration, onRefreshed func(*protocol.RefreshResponse)) {
	if interval <= 0 {
		interval = 4 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !c.IsAuthenticated() {
					continue
				}
				resp, err := c.refreshLocked(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logging.Error("scheduled token refresh failed", zap.Error(err))
					c.expire()
					continue
				}
				logging.Debug("access token refreshed",
					zap.Time("expires_at", TokenExpiry(resp.Access)))
				if onRefreshed != nil {
					onRefreshed(resp)
				}
			}
		}
	}()
}

func (c *Client) refreshLocked(ctx context.Context) (*protocol.RefreshResponse, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.Refresh(ctx)
}

// DefaultTokenPath returns $XDG_CONFIG_HOME/clicafe/session.json.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "clicafe", "session.json")
}

// SaveToken writes tf to path with owner-only permissions.
func SaveToken(path string, tf *TokenFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadToken loads a token file.
func LoadToken(path string) (*TokenFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf TokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, err
	}
	return &tf, nil
}

// DeleteToken removes the saved token file. A missing file is not an error.
func DeleteToken(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
