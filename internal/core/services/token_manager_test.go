package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// memorySecretStore is an in-memory SecretStore for tests.
type memorySecretStore struct {
	mu      sync.Mutex
	values  map[string]string
	saveErr error
	saves   int
}

func newMemorySecretStore(values map[string]string) *memorySecretStore {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &memorySecretStore{values: copied}
}

func (s *memorySecretStore) Load(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = s.values[k]
	}
	return out, nil
}

func (s *memorySecretStore) Save(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *memorySecretStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *memorySecretStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func validSecrets(expiresAt time.Time) map[string]string {
	return map[string]string{
		SecretClientID:     "client-id",
		SecretClientSecret: "client-secret",
		SecretAccessToken:  "access-token-original",
		SecretRefreshToken: "refresh-token-original",
		SecretExpiresAt:    strconv.FormatInt(expiresAt.Unix(), 10),
	}
}

// tokenEndpoint returns an httptest server that issues sequentially
// numbered tokens and counts refresh calls.
func tokenEndpoint(t *testing.T, calls *atomic.Int64, expiresIn int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Equal(t, "client-secret", r.Form.Get("client_secret"))
		assert.NotEmpty(t, r.Form.Get("refresh_token"))

		n := calls.Add(1)
		resp := map[string]any{
			"access_token":  fmt.Sprintf("access-token-%d", n),
			"refresh_token": fmt.Sprintf("refresh-token-%d", n),
		}
		if expiresIn > 0 {
			resp["expires_in"] = expiresIn
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestNewTokenManager_MissingSecret(t *testing.T) {
	secrets := validSecrets(time.Now().Add(time.Hour))
	delete(secrets, SecretAccessToken)

	_, err := NewTokenManager(context.Background(), newMemorySecretStore(secrets))

	require.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
	assert.Contains(t, err.Error(), SecretAccessToken)
}

func TestNewTokenManager_MalformedExpiry(t *testing.T) {
	secrets := validSecrets(time.Now())
	secrets[SecretExpiresAt] = "not-a-timestamp"

	_, err := NewTokenManager(context.Background(), newMemorySecretStore(secrets))

	require.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
}

func TestGetToken_FreshPairSkipsRefresh(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(time.Hour))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	token, err := manager.GetToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "access-token-original", token)
	assert.Equal(t, int64(0), calls.Load())
}

func TestGetToken_NearExpiryRefreshes(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	// Expires in 60s, inside the 5 minute refresh buffer.
	store := newMemorySecretStore(validSecrets(time.Now().Add(time.Minute)))
	manager, err := NewTokenManager(
		context.Background(), store,
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	token, err := manager.GetToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "access-token-1", token)
	assert.Equal(t, int64(1), calls.Load())

	// The rotated pair is persisted back to the store.
	assert.Equal(t, "access-token-1", store.get(SecretAccessToken))
	assert.Equal(t, "refresh-token-1", store.get(SecretRefreshToken))
}

func TestGetToken_ExpiredPairRefreshes(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(-time.Hour))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	token, err := manager.GetToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "access-token-1", token)
}

func TestGetToken_ConcurrentCallersSingleRefresh(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(-time.Minute))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	const goroutines = 20
	tokens := make([]string, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = manager.GetToken(context.Background())
		}(i)
	}
	wg.Wait()

	// All callers see the same fresh token, and the endpoint was hit once.
	assert.Equal(t, int64(1), calls.Load())
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "access-token-1", tokens[i])
	}
}

func TestRefreshOnUnauthorized_AlwaysRefreshes(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(time.Hour))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	// Pair looks fresh locally, but the API said 401: refresh anyway.
	token, err := manager.RefreshOnUnauthorized(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "access-token-1", token)
	assert.Equal(t, int64(1), calls.Load())
}

func TestRefresh_MissingExpiresInDefaultsToOneHour(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 0) // response omits expires_in
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(-time.Minute))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	before := time.Now()
	_, err = manager.GetToken(context.Background())
	require.NoError(t, err)

	pair, state := manager.Current()
	assert.Equal(t, domain.TokenFresh, state)
	assert.WithinDuration(t, before.Add(domain.DefaultExpiresIn), pair.ExpiresAt, 5*time.Second)
}

func TestRefresh_KeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "access-token-new", "expires_in": 3600}`)
	}))
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(-time.Minute))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	_, err = manager.GetToken(context.Background())
	require.NoError(t, err)

	pair, _ := manager.Current()
	assert.Equal(t, "access-token-new", pair.AccessToken)
	assert.Equal(t, "refresh-token-original", pair.RefreshToken)
}

func TestRefresh_RejectedReturnsAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(-time.Minute))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	_, err = manager.GetToken(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsAuthentication(err))
	// The raw refresh token never appears in the error.
	assert.NotContains(t, err.Error(), "refresh-token-original")
}

func TestRefresh_FailureLeavesPairUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(-time.Minute))),
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	_, err = manager.GetToken(context.Background())
	require.Error(t, err)

	pair, state := manager.Current()
	assert.Equal(t, "access-token-original", pair.AccessToken)
	assert.Equal(t, "refresh-token-original", pair.RefreshToken)
	assert.Equal(t, domain.TokenExpired, state)
}

func TestRefresh_PersistFailureStillInstallsPair(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	store := newMemorySecretStore(validSecrets(time.Now().Add(-time.Minute)))
	store.saveErr = fmt.Errorf("doppler unreachable")

	manager, err := NewTokenManager(
		context.Background(), store,
		WithTokenURL(server.URL),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)
	defer manager.Close()

	token, err := manager.GetToken(context.Background())

	// Availability wins: the refreshed token is usable even though the
	// store write failed.
	require.NoError(t, err)
	assert.Equal(t, "access-token-1", token)
	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, "access-token-original", store.get(SecretAccessToken))
}

func TestProactiveRefresh_TimerFires(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	// Expires in 1h; a 1h-minus-50ms buffer arms the timer ~50ms out.
	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(time.Hour))),
		WithTokenURL(server.URL),
		WithRefreshBuffer(time.Hour-50*time.Millisecond),
	)
	require.NoError(t, err)
	defer manager.Close()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	pair, _ := manager.Current()
	assert.Equal(t, "access-token-1", pair.AccessToken)
}

func TestProactiveRefresh_RearmCancelsPendingTimer(t *testing.T) {
	var calls atomic.Int64
	server := tokenEndpoint(t, &calls, 3600)
	defer server.Close()

	// Expires in 3s with a 1s buffer: the timer is armed ~2s out.
	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(3*time.Second))),
		WithTokenURL(server.URL),
		WithRefreshBuffer(time.Second),
	)
	require.NoError(t, err)
	defer manager.Close()

	// Forcing a refresh installs a fresh pair and must replace the
	// pending timer, not stack a second one.
	token, err := manager.RefreshOnUnauthorized(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-token-1", token)

	// Past the old pair's deadline: a surviving stale timer would have
	// refreshed again by now.
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestProactiveRefresh_SkipsWhenPairAlreadyFresh(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		// Stall the first refresh so the proactive timer fires and queues
		// behind the lock while this call is still in flight.
		if n == 1 {
			time.Sleep(500 * time.Millisecond)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "access-token-%d", "refresh_token": "refresh-token-%d", "expires_in": 3600}`, n, n)
	}))
	defer server.Close()

	// Expires in 300ms with a 150ms buffer: the timer fires ~150ms out,
	// mid-way through the stalled reactive refresh.
	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(300*time.Millisecond))),
		WithTokenURL(server.URL),
		WithRefreshBuffer(150*time.Millisecond),
	)
	require.NoError(t, err)
	defer manager.Close()

	token, err := manager.RefreshOnUnauthorized(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-token-1", token)

	// The queued timer acquires the lock, finds the pair fresh, and does
	// not refresh it a second time.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClose_StopsManager(t *testing.T) {
	manager, err := NewTokenManager(
		context.Background(),
		newMemorySecretStore(validSecrets(time.Now().Add(time.Hour))),
		WithProactiveRefresh(false),
	)
	require.NoError(t, err)

	manager.Close()

	_, err = manager.GetToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrManagerClosed)

	_, err = manager.RefreshOnUnauthorized(context.Background())
	assert.ErrorIs(t, err, domain.ErrManagerClosed)
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "...", redactToken("short"))
	assert.Equal(t, "abcdefgh...", redactToken("abcdefgh-the-rest-is-secret"))
}
