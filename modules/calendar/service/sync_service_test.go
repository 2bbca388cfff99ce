package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bookline-api/core/config"
	"bookline-api/core/errors"
	"bookline-api/modules/calendar/dto"
	"bookline-api/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.Calendar.TimeZone = "America/Sao_Paulo"
	config.Set(cfg)
}

// fakeCalendarRepo is an in-memory stand-in for the postgres repository.
type fakeCalendarRepo struct {
	mu           sync.Mutex
	integrations map[string]*entity.CalendarIntegration
	states       map[string]*entity.OAuthState
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{
		integrations: make(map[string]*entity.CalendarIntegration),
		states:       make(map[string]*entity.OAuthState),
	}
}

func (f *fakeCalendarRepo) key(userID uuid.UUID, provider string) string {
	return userID.String() + ":" + provider
}

func (f *fakeCalendarRepo) Upsert(ctx context.Context, integration *entity.CalendarIntegration) (*entity.CalendarIntegration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}
	integration.CreatedAt = time.Now()
	integration.UpdatedAt = time.Now()
	copied := *integration
	f.integrations[f.key(integration.UserID, integration.Provider)] = &copied
	return integration, nil
}

func (f *fakeCalendarRepo) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarIntegration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	integration, ok := f.integrations[f.key(userID, provider)]
	if !ok {
		return nil, nil
	}
	copied := *integration
	return &copied, nil
}

func (f *fakeCalendarRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []entity.CalendarIntegration
	for _, integration := range f.integrations {
		if integration.UserID == userID {
			result = append(result, *integration)
		}
	}
	return result, nil
}

func (f *fakeCalendarRepo) UpdateTokens(ctx context.Context, userID uuid.UUID, provider, accessToken, refreshToken string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if integration, ok := f.integrations[f.key(userID, provider)]; ok {
		integration.AccessToken = accessToken
		integration.RefreshToken = refreshToken
		integration.TokenExpiresAt = expiresAt
	}
	return nil
}

func (f *fakeCalendarRepo) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.integrations, f.key(userID, provider))
	return nil
}

func (f *fakeCalendarRepo) SaveOAuthState(ctx context.Context, state string, userID uuid.UUID, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state] = &entity.OAuthState{State: state, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (f *fakeCalendarRepo) ConsumeOAuthState(ctx context.Context, state string) (*entity.OAuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[state]
	if !ok || st.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	delete(f.states, state)
	return st, nil
}

// fakeAppointments tracks the google_event_id column.
type fakeAppointments struct {
	mu       sync.Mutex
	eventIDs map[uuid.UUID]*string
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{eventIDs: make(map[uuid.UUID]*string)}
}

func (f *fakeAppointments) GetGoogleEventID(ctx context.Context, appointmentID uuid.UUID) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventIDs[appointmentID], nil
}

func (f *fakeAppointments) SetGoogleEventID(ctx context.Context, appointmentID uuid.UUID, eventID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventIDs[appointmentID] = eventID
	return nil
}

// fakeOAuth counts refreshes and hands out a fixed replacement token.
type fakeOAuth struct {
	mu           sync.Mutex
	refreshCalls int
	newToken     string
	refreshErr   error
}

func (f *fakeOAuth) GetAuthURL(ctx context.Context, userID uuid.UUID, redirectURI string) (string, error) {
	return "", nil
}
func (f *fakeOAuth) ExchangeCode(ctx context.Context, userID uuid.UUID, code, redirectURI, state string, professionalID *uuid.UUID) error {
	return nil
}
func (f *fakeOAuth) ListIntegrations(ctx context.Context, userID uuid.UUID) ([]dto.IntegrationResponse, error) {
	return nil, nil
}
func (f *fakeOAuth) Disconnect(ctx context.Context, userID uuid.UUID, provider string) error {
	return nil
}
func (f *fakeOAuth) RefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return f.newToken, nil
}

type providerCall struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

// fakeProvider is an httptest stand-in for the calendar API.
type fakeProvider struct {
	mu           sync.Mutex
	calls        []providerCall
	deleteStatus int
	server       *httptest.Server
}

func newFakeProvider() *fakeProvider {
	p := &fakeProvider{deleteStatus: http.StatusNoContent}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := providerCall{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			call.body = body
		}
		p.mu.Lock()
		p.calls = append(p.calls, call)
		p.mu.Unlock()

		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(p.deleteStatus)
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": "evt_1", "summary": "Haircut"}},
			})
		default:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "evt_new"})
		}
	}))
	return p
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeProvider) lastCall() providerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[len(p.calls)-1]
}

func newTestSyncService(t *testing.T, repo *fakeCalendarRepo, oauth OAuthService, appointments *fakeAppointments) (*syncService, *fakeProvider) {
	t.Helper()
	provider := newFakeProvider()
	t.Cleanup(provider.server.Close)

	svc := NewSyncService(repo, oauth, appointments).(*syncService)
	svc.apiBase = provider.server.URL
	svc.httpClient = provider.server.Client()
	return svc, provider
}

func seedIntegration(repo *fakeCalendarRepo, userID uuid.UUID, expiresAt time.Time) {
	_, _ = repo.Upsert(context.Background(), &entity.CalendarIntegration{
		UserID:         userID,
		Provider:       "google",
		AccessToken:    "valid-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: expiresAt,
	})
}

func TestCreateEventWithoutIntegration(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, newFakeAppointments())

	_, err := svc.CreateEvent(context.Background(), uuid.New(), uuid.New(), &dto.EventData{Title: "Haircut"})
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrIntegrationMissing, appErr.Code)
	assert.Equal(t, 0, provider.callCount())
}

func TestCreateEventStoresEventID(t *testing.T) {
	userID := uuid.New()
	appointmentID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	appointments := newFakeAppointments()
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, appointments)

	eventID, err := svc.CreateEvent(context.Background(), userID, appointmentID, &dto.EventData{
		Title:     "Haircut",
		StartTime: "2025-01-10T10:00:00Z",
		EndTime:   "2025-01-10T10:30:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt_new", eventID)

	stored, err := appointments.GetGoogleEventID(context.Background(), appointmentID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "evt_new", *stored)

	call := provider.lastCall()
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/calendars/primary/events", call.path)
	assert.Equal(t, "Bearer valid-token", call.auth)
}

func TestCreateEventPayloadHasDefaultReminders(t *testing.T) {
	userID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, newFakeAppointments())

	_, err := svc.CreateEvent(context.Background(), userID, uuid.New(), &dto.EventData{
		Title:     "Haircut",
		StartTime: "2025-01-10T10:00:00Z",
		EndTime:   "2025-01-10T10:30:00Z",
	})
	require.NoError(t, err)

	body := provider.lastCall().body
	require.NotNil(t, body)
	assert.Equal(t, "Haircut", body["summary"])

	start, ok := body["start"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "America/Sao_Paulo", start["timeZone"])

	reminders, ok := body["reminders"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, reminders["useDefault"])

	overrides, ok := reminders["overrides"].([]any)
	require.True(t, ok)
	require.Len(t, overrides, 2)

	first := overrides[0].(map[string]any)
	second := overrides[1].(map[string]any)
	assert.Equal(t, "email", first["method"])
	assert.Equal(t, float64(1440), first["minutes"])
	assert.Equal(t, "popup", second["method"])
	assert.Equal(t, float64(30), second["minutes"])
}

func TestUpdateEventFallsBackToCreate(t *testing.T) {
	userID := uuid.New()
	appointmentID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	appointments := newFakeAppointments()
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, appointments)

	eventID, err := svc.UpdateEvent(context.Background(), userID, appointmentID, &dto.EventData{Title: "Haircut"})
	require.NoError(t, err)
	assert.Equal(t, "evt_new", eventID)

	call := provider.lastCall()
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/calendars/primary/events", call.path)

	stored, _ := appointments.GetGoogleEventID(context.Background(), appointmentID)
	require.NotNil(t, stored)
	assert.Equal(t, "evt_new", *stored)
}

func TestUpdateEventReplacesExisting(t *testing.T) {
	userID := uuid.New()
	appointmentID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	appointments := newFakeAppointments()
	existing := "evt_42"
	_ = appointments.SetGoogleEventID(context.Background(), appointmentID, &existing)
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, appointments)

	eventID, err := svc.UpdateEvent(context.Background(), userID, appointmentID, &dto.EventData{Title: "Haircut"})
	require.NoError(t, err)
	assert.Empty(t, eventID)

	call := provider.lastCall()
	assert.Equal(t, http.MethodPut, call.method)
	assert.Equal(t, "/calendars/primary/events/evt_42", call.path)
}

func TestDeleteEventWithoutEventIDIsNoop(t *testing.T) {
	userID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, newFakeAppointments())

	err := svc.DeleteEvent(context.Background(), userID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, provider.callCount())
}

func TestDeleteEventHitsEventPath(t *testing.T) {
	userID := uuid.New()
	appointmentID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	appointments := newFakeAppointments()
	eventID := "evt_123"
	_ = appointments.SetGoogleEventID(context.Background(), appointmentID, &eventID)
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, appointments)

	err := svc.DeleteEvent(context.Background(), userID, appointmentID)
	require.NoError(t, err)

	require.Equal(t, 1, provider.callCount())
	call := provider.lastCall()
	assert.Equal(t, http.MethodDelete, call.method)
	assert.Equal(t, "/calendars/primary/events/evt_123", call.path)

	// id cleared locally, a second delete is a pure no-op
	err = svc.DeleteEvent(context.Background(), userID, appointmentID)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount())
}

func TestDeleteEventTreatsProviderGoneAsSuccess(t *testing.T) {
	userID := uuid.New()
	appointmentID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	appointments := newFakeAppointments()
	eventID := "evt_gone"
	_ = appointments.SetGoogleEventID(context.Background(), appointmentID, &eventID)
	svc, provider := newTestSyncService(t, repo, &fakeOAuth{}, appointments)
	provider.deleteStatus = http.StatusNotFound

	err := svc.DeleteEvent(context.Background(), userID, appointmentID)
	require.NoError(t, err)
}

func TestExpiredTokenTriggersSingleRefresh(t *testing.T) {
	userID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(-time.Hour))
	oauth := &fakeOAuth{newToken: "fresh-token"}
	svc, provider := newTestSyncService(t, repo, oauth, newFakeAppointments())

	_, err := svc.CreateEvent(context.Background(), userID, uuid.New(), &dto.EventData{Title: "Haircut"})
	require.NoError(t, err)

	assert.Equal(t, 1, oauth.refreshCalls)
	assert.Equal(t, "Bearer fresh-token", provider.lastCall().auth)
}

func TestRefreshFailureFailsOperation(t *testing.T) {
	userID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(-time.Hour))
	oauth := &fakeOAuth{refreshErr: errors.NewAppError(errors.ErrTokenRefresh, "revoked", nil)}
	svc, provider := newTestSyncService(t, repo, oauth, newFakeAppointments())

	_, err := svc.CreateEvent(context.Background(), userID, uuid.New(), &dto.EventData{Title: "Haircut"})
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTokenRefresh, appErr.Code)
	assert.Equal(t, 0, provider.callCount())
}

func TestListEventsDefaultWindow(t *testing.T) {
	userID := uuid.New()
	repo := newFakeCalendarRepo()
	seedIntegration(repo, userID, time.Now().Add(time.Hour))
	provider := newFakeProvider()
	t.Cleanup(provider.server.Close)

	var query map[string][]string
	provider.server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": "evt_1"}},
		})
	})

	svc := NewSyncService(repo, &fakeOAuth{}, newFakeAppointments()).(*syncService)
	svc.apiBase = provider.server.URL
	svc.httpClient = provider.server.Client()

	events, err := svc.ListEvents(context.Background(), userID, "", "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt_1", events[0].ID)

	require.NotNil(t, query)
	assert.Equal(t, "true", query["singleEvents"][0])
	assert.Equal(t, "startTime", query["orderBy"][0])

	min, err := time.Parse(time.RFC3339, query["timeMin"][0])
	require.NoError(t, err)
	max, err := time.Parse(time.RFC3339, query["timeMax"][0])
	require.NoError(t, err)
	assert.WithinDuration(t, min.Add(30*24*time.Hour), max, time.Minute)
}
