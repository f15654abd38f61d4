package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driving"
	"github.com/custodia-labs/jobber-cli/internal/logger"
)

const (
	// DefaultTokenURL is Jobber's OAuth token endpoint.
	DefaultTokenURL = "https://api.getjobber.com/api/oauth/token"

	// DefaultRefreshBuffer is how long before expiry to refresh.
	DefaultRefreshBuffer = 5 * time.Minute

	// refreshTimeout bounds a single token refresh call.
	refreshTimeout = 30 * time.Second
)

// Secret keys in the external store.
const (
	SecretClientID     = "JOBBER_CLIENT_ID"
	SecretClientSecret = "JOBBER_CLIENT_SECRET"
	SecretAccessToken  = "JOBBER_ACCESS_TOKEN"
	SecretRefreshToken = "JOBBER_REFRESH_TOKEN"
	SecretExpiresAt    = "JOBBER_TOKEN_EXPIRES_AT"
)

// Ensure TokenManager implements both port interfaces.
var (
	_ driven.TokenProvider = (*TokenManager)(nil)
	_ driving.TokenService = (*TokenManager)(nil)
)

// TokenManager owns the current access/refresh token pair and its expiry.
//
// It refreshes proactively via a background timer armed at
// expiry - refreshBuffer, and reactively when a caller needs a token
// that is near expiry or was rejected by the API. One mutex guards the
// pair, the refresh HTTP call, and the timer handle, so refresh-and-
// install is a single critical section: concurrent callers either see
// the old valid pair or wait for the new one, and the refresh network
// call fires at most once per expiry.
//
// Durability note: when a refresh succeeds but writing the new pair to
// the secret store fails, the pair is still installed in memory and the
// persistence failure is logged. The process keeps working with the new
// token; the store is one refresh behind until the next save succeeds.
// This is a deliberate availability-over-durability trade-off.
type TokenManager struct {
	mu sync.RWMutex

	secrets    driven.SecretStore
	httpClient *http.Client

	tokenURL      string
	clientID      string
	clientSecret  string
	refreshBuffer time.Duration
	proactive     bool

	current domain.TokenPair
	timer   *time.Timer
	closed  bool
}

// TokenManagerOption configures a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(u string) TokenManagerOption {
	return func(m *TokenManager) { m.tokenURL = u }
}

// WithRefreshBuffer sets how long before expiry a refresh is triggered.
func WithRefreshBuffer(d time.Duration) TokenManagerOption {
	return func(m *TokenManager) { m.refreshBuffer = d }
}

// WithProactiveRefresh enables or disables the background refresh timer.
func WithProactiveRefresh(enabled bool) TokenManagerOption {
	return func(m *TokenManager) { m.proactive = enabled }
}

// WithTokenHTTPClient sets the HTTP client used for token refresh calls.
func WithTokenHTTPClient(client *http.Client) TokenManagerOption {
	return func(m *TokenManager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// NewTokenManager loads the current token pair from the secret store
// and, when proactive refresh is enabled (the default), arms the
// background refresh timer.
func NewTokenManager(
	ctx context.Context, secrets driven.SecretStore, opts ...TokenManagerOption,
) (*TokenManager, error) {
	m := &TokenManager{
		secrets:       secrets,
		httpClient:    &http.Client{Timeout: refreshTimeout},
		tokenURL:      DefaultTokenURL,
		refreshBuffer: DefaultRefreshBuffer,
		proactive:     true,
	}
	for _, opt := range opts {
		opt(m)
	}

	vals, err := secrets.Load(ctx,
		SecretClientID, SecretClientSecret,
		SecretAccessToken, SecretRefreshToken, SecretExpiresAt)
	if err != nil {
		return nil, err
	}

	for _, key := range []string{
		SecretClientID, SecretClientSecret,
		SecretAccessToken, SecretRefreshToken, SecretExpiresAt,
	} {
		if vals[key] == "" {
			return nil, &domain.ConfigurationError{
				Message: "required secret is empty",
				Context: map[string]any{"key": key},
			}
		}
	}

	expiresAt, err := strconv.ParseInt(vals[SecretExpiresAt], 10, 64)
	if err != nil {
		return nil, &domain.ConfigurationError{
			Message: "token expiry is not a unix timestamp",
			Context: map[string]any{"key": SecretExpiresAt, "value": vals[SecretExpiresAt]},
			Err:     err,
		}
	}

	m.clientID = vals[SecretClientID]
	m.clientSecret = vals[SecretClientSecret]
	m.current = domain.TokenPair{
		AccessToken:  vals[SecretAccessToken],
		RefreshToken: vals[SecretRefreshToken],
		ExpiresAt:    time.Unix(expiresAt, 0),
	}

	m.mu.Lock()
	m.scheduleLocked()
	m.mu.Unlock()

	return m, nil
}

// GetToken returns a currently valid access token, refreshing first if
// the pair is near expiry or expired. Fresh tokens are returned from
// the read-locked fast path without contending with refreshes.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return "", domain.ErrManagerClosed
	}
	pair := m.current
	m.mu.RUnlock()

	if pair.State(time.Now(), m.refreshBuffer) == domain.TokenFresh {
		return pair.AccessToken, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", domain.ErrManagerClosed
	}
	// Double-check: a concurrent caller or the timer may have already
	// refreshed while we waited for the lock.
	if m.current.State(time.Now(), m.refreshBuffer) == domain.TokenFresh {
		return m.current.AccessToken, nil
	}

	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}
	return m.current.AccessToken, nil
}

// RefreshOnUnauthorized forces a refresh after the API rejected the
// token, regardless of what local state says (clock skew or server-side
// revocation). Returns the new access token.
func (m *TokenManager) RefreshOnUnauthorized(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", domain.ErrManagerClosed
	}
	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}
	return m.current.AccessToken, nil
}

// Token implements driving.TokenService.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	return m.GetToken(ctx)
}

// ForceRefresh implements driving.TokenService.
func (m *TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	return m.RefreshOnUnauthorized(ctx)
}

// Current returns the current pair and its lifecycle state.
func (m *TokenManager) Current() (domain.TokenPair, domain.TokenState) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.State(time.Now(), m.refreshBuffer)
}

// Close stops the background refresh timer. The manager rejects all
// calls afterwards.
func (m *TokenManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// refreshLocked exchanges the refresh token for a new pair, installs
// it, persists it, and rearms the proactive timer. Caller must hold the
// write lock. The current pair is left untouched on failure.
func (m *TokenManager) refreshLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", m.current.RefreshToken)
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{
			Message:  "token refresh request failed",
			Endpoint: m.tokenURL,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{
			Message:  "reading token refresh response",
			Endpoint: m.tokenURL,
			Err:      err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return &domain.AuthenticationError{
			Message: "token refresh rejected",
			Context: map[string]any{
				"status_code":   resp.StatusCode,
				"endpoint":      m.tokenURL,
				"refresh_token": redactToken(m.current.RefreshToken),
			},
		}
	}

	var tr struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return &domain.NetworkError{
			Message:  "invalid JSON in token refresh response",
			Endpoint: m.tokenURL,
			Err:      err,
		}
	}
	if tr.AccessToken == "" {
		return &domain.AuthenticationError{
			Message: "token refresh response missing access_token",
			Context: map[string]any{"endpoint": m.tokenURL},
		}
	}

	lifetime := domain.DefaultExpiresIn
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}

	// Some providers rotate the refresh token on every call, some never
	// do. Keep the old one when the response omits it.
	refreshToken := tr.RefreshToken
	if refreshToken == "" {
		refreshToken = m.current.RefreshToken
	}

	pair := domain.TokenPair{
		AccessToken:  tr.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(lifetime),
	}

	// Swap-on-success: install the whole pair, then rearm the timer for
	// it. Persistence comes last so a store failure cannot cost us a
	// token the provider already issued.
	m.current = pair
	m.scheduleLocked()

	if err := m.persist(ctx, pair); err != nil {
		logger.Error("refreshed token could not be persisted (continuing with in-memory pair): %v", err)
	}

	logger.Debug("token refreshed, expires at %s", pair.ExpiresAt.Format(time.RFC3339))
	return nil
}

// persist writes the pair back to the secret store.
func (m *TokenManager) persist(ctx context.Context, pair domain.TokenPair) error {
	return m.secrets.Save(ctx, map[string]string{
		SecretAccessToken:  pair.AccessToken,
		SecretRefreshToken: pair.RefreshToken,
		SecretExpiresAt:    strconv.FormatInt(pair.ExpiresAt.Unix(), 10),
	})
}

// scheduleLocked cancels any pending timer and arms a new one for the
// current pair. Caller must hold the write lock, so cancel-and-rearm is
// atomic and at most one timer is ever outstanding.
func (m *TokenManager) scheduleLocked() {
	if !m.proactive || m.closed {
		return
	}

	if m.timer != nil {
		m.timer.Stop()
	}

	delay := m.current.ExpiresIn(time.Now()) - m.refreshBuffer
	if delay < 0 {
		delay = 0
	}
	m.timer = time.AfterFunc(delay, m.proactiveRefresh)
}

// proactiveRefresh runs in the timer goroutine. Failures are logged,
// never raised: no caller is waiting here, and the next GetToken or
// RefreshOnUnauthorized call falls back to a reactive refresh.
func (m *TokenManager) proactiveRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	// A reactive refresh may have installed a fresh pair while this timer
	// was queued behind the lock. Its own timer is already armed.
	if m.current.State(time.Now(), m.refreshBuffer) == domain.TokenFresh {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := m.refreshLocked(ctx); err != nil {
		logger.Warn("proactive token refresh failed: %v", err)
	}
}

// redactToken keeps a short prefix for log correlation.
func redactToken(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}
