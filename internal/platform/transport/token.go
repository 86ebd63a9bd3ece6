package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer credential for each outgoing request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same value.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// RefreshFunc obtains a fresh token from an issuer. current is the token
// being replaced and may be empty.
type RefreshFunc func(ctx context.Context, current string) (string, error)

const (
	DefaultRefreshSkew    = 30 * time.Second
	DefaultRefreshTimeout = 15 * time.Second
)

// JWTTokenSource serves a JWT and refreshes it once it is within skew of its
// exp claim. Signatures are not verified here; the gateway does that.
//
// At most one refresh runs at a time. It runs on its own context bounded by
// DefaultRefreshTimeout, so a caller giving up does not abort it for the
// others, and the lock is not held while it is in flight.
type JWTTokenSource struct {
	refresh        RefreshFunc
	skew           time.Duration
	refreshTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time

	mu       sync.Mutex
	token    string
	expires  time.Time // zero when the token carries no exp
	inflight *refreshCall
}

type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// NewJWTTokenSource seeds the source with initial (may be empty, in which
// case the first Token call refreshes).
func NewJWTTokenSource(initial string, refresh RefreshFunc, skew time.Duration, logger *slog.Logger) *JWTTokenSource {
	if skew <= 0 {
		skew = DefaultRefreshSkew
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &JWTTokenSource{
		refresh:        refresh,
		skew:           skew,
		refreshTimeout: DefaultRefreshTimeout,
		logger:         logger.With("component", "jwt_token_source"),
		now:            time.Now,
	}
	s.store(initial)
	return s
}

// Token returns a usable token, refreshing at most once across concurrent
// callers. ctx bounds only this caller's wait, not the refresh itself.
func (s *JWTTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	current := s.token
	if current != "" && !s.dueLocked() {
		s.mu.Unlock()
		return current, nil
	}
	if s.refresh == nil {
		s.mu.Unlock()
		if current == "" {
			return "", errors.New("no token available and no refresh function configured")
		}
		return current, nil
	}
	call := s.inflight
	if call == nil {
		call = s.startRefreshLocked()
	}
	s.mu.Unlock()

	select {
	case <-call.done:
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for token refresh: %w", ctx.Err())
	}

	if call.err != nil {
		if current != "" {
			s.logger.WarnContext(ctx, "Token refresh failed, keeping current token", "error", call.err)
			return current, nil
		}
		return "", fmt.Errorf("token refresh failed: %w", call.err)
	}
	return call.token, nil
}

// startRefreshLocked launches the refresh shared by every waiting caller.
func (s *JWTTokenSource) startRefreshLocked() *refreshCall {
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	current := s.token

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()

		fresh, err := s.refresh(ctx, current)
		if err == nil && strings.TrimSpace(fresh) == "" {
			err = errors.New("refresh returned an empty token")
		}

		s.mu.Lock()
		if err == nil {
			s.store(fresh)
			call.token = s.token
			s.logger.Info("Gateway token refreshed", "expires_at", s.expires)
		}
		call.err = err
		s.inflight = nil
		s.mu.Unlock()
		close(call.done)
	}()
	return call
}

func (s *JWTTokenSource) dueLocked() bool {
	if s.expires.IsZero() {
		return false
	}
	return !s.now().Add(s.skew).Before(s.expires)
}

func (s *JWTTokenSource) store(token string) {
	s.token = strings.TrimSpace(token)
	s.expires = time.Time{}
	if s.token == "" {
		return
	}
	exp, err := tokenExpiry(s.token)
	if err != nil {
		s.logger.Debug("Token is not a parseable JWT; treating as non-expiring", "error", err)
		return
	}
	s.expires = exp
}

func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

type refreshResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// HTTPTokenRefresher returns a RefreshFunc that POSTs to refreshURL, presenting
// the current token if any, and reads {"token": ...} or {"access_token": ...}
// from the response.
func HTTPTokenRefresher(httpClient *http.Client, refreshURL string) RefreshFunc {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context, current string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, bytes.NewReader([]byte("{}")))
		if err != nil {
			return "", fmt.Errorf("failed to create refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if current != "" {
			req.Header.Set("Authorization", "Bearer "+current)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to call token endpoint: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read token response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
		}
		var out refreshResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("failed to decode token response: %w", err)
		}
		if out.Token != "" {
			return out.Token, nil
		}
		return out.AccessToken, nil
	}
}
