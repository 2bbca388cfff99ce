package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bookline-api/core/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestOAuthService(repo *fakeCalendarRepo) *oauthService {
	return NewOAuthService(repo, "client-id-123", "client-secret").(*oauthService)
}

func TestGetAuthURLContainsConsentParameters(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := newTestOAuthService(repo)
	userID := uuid.New()

	authURL, err := svc.GetAuthURL(context.Background(), userID, "https://app.example.com/callback")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "client-id-123", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Contains(t, q.Get("scope"), "auth/calendar")

	state := q.Get("state")
	require.True(t, strings.HasPrefix(state, "gcal-connect:"))

	// handed-out state is persisted for the callback
	saved, err := repo.ConsumeOAuthState(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, userID, saved.UserID)
}

func TestExchangeCodeStoresTokensForCaller(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := newTestOAuthService(repo)
	userID := uuid.New()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-abc",
			"refresh_token": "refresh-abc",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer tokenServer.Close()

	svc.endpoint = oauth2.Endpoint{AuthURL: tokenServer.URL + "/auth", TokenURL: tokenServer.URL + "/token"}
	svc.userinfoURL = tokenServer.URL + "/userinfo"
	svc.httpClient = tokenServer.Client()

	err := svc.ExchangeCode(context.Background(), userID, "one-time-code", "https://app.example.com/callback", "", nil)
	require.NoError(t, err)

	stored, err := repo.GetByUserAndProvider(context.Background(), userID, "google")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "access-abc", stored.AccessToken)
	assert.Equal(t, "refresh-abc", stored.RefreshToken)
	assert.Equal(t, userID, stored.UserID)
}

func TestExchangeCodeRejectsForeignState(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := newTestOAuthService(repo)
	owner := uuid.New()
	require.NoError(t, repo.SaveOAuthState(context.Background(), "gcal-connect:abc", owner, time.Now().Add(time.Minute)))

	err := svc.ExchangeCode(context.Background(), uuid.New(), "code", "https://cb", "gcal-connect:abc", nil)
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestRefreshTokenWithoutIntegration(t *testing.T) {
	svc := newTestOAuthService(newFakeCalendarRepo())

	_, err := svc.RefreshToken(context.Background(), uuid.New())
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestRefreshTokenUpdatesExpiryStrictlyLater(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := newTestOAuthService(repo)
	userID := uuid.New()
	oldExpiry := time.Now().Add(-time.Hour)
	seedIntegration(repo, userID, oldExpiry)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-token", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh-access", "expires_in": 3600})
	}))
	defer tokenServer.Close()

	svc.tokenURL = tokenServer.URL
	svc.httpClient = tokenServer.Client()

	token, err := svc.RefreshToken(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)

	stored, err := repo.GetByUserAndProvider(context.Background(), userID, "google")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "fresh-access", stored.AccessToken)
	assert.True(t, stored.TokenExpiresAt.After(oldExpiry))
}

func TestRefreshTokenProviderRejection(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := newTestOAuthService(repo)
	userID := uuid.New()
	seedIntegration(repo, userID, time.Now().Add(-time.Hour))

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant"})
	}))
	defer tokenServer.Close()

	svc.tokenURL = tokenServer.URL
	svc.httpClient = tokenServer.Client()

	_, err := svc.RefreshToken(context.Background(), userID)
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTokenRefresh, appErr.Code)
}

func TestConcurrentRefreshesCollapseToOneProviderCall(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := newTestOAuthService(repo)
	userID := uuid.New()
	seedIntegration(repo, userID, time.Now().Add(-time.Hour))

	var hits int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh-access", "expires_in": 3600})
	}))
	defer tokenServer.Close()

	svc.tokenURL = tokenServer.URL
	svc.httpClient = tokenServer.Client()

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := svc.RefreshToken(context.Background(), userID)
			assert.NoError(t, err)
			results[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	for _, token := range results {
		assert.Equal(t, "fresh-access", token)
	}
}
