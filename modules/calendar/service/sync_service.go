package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bookline-api/core/config"
	"bookline-api/core/constants"
	"bookline-api/core/errors"
	"bookline-api/core/logger"
	"bookline-api/modules/calendar/dto"
	"bookline-api/modules/calendar/repository"

	"github.com/google/uuid"
)

const (
	googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"

	// Stored tokens within this window of expiry are refreshed up front so a
	// provider call never starts with a token about to lapse mid-flight.
	tokenExpirySkew = 5 * time.Minute

	defaultListWindow = 30 * 24 * time.Hour
	defaultTimeZone   = "America/Sao_Paulo"
)

// AppointmentStore is the slice of the appointment repository the sync
// service needs to read and annotate the external event id.
type AppointmentStore interface {
	GetGoogleEventID(ctx context.Context, appointmentID uuid.UUID) (*string, error)
	SetGoogleEventID(ctx context.Context, appointmentID uuid.UUID, eventID *string) error
}

type SyncService interface {
	HasIntegration(ctx context.Context, userID uuid.UUID) (bool, error)
	CreateEvent(ctx context.Context, userID, appointmentID uuid.UUID, data *dto.EventData) (string, error)
	UpdateEvent(ctx context.Context, userID, appointmentID uuid.UUID, data *dto.EventData) (string, error)
	DeleteEvent(ctx context.Context, userID, appointmentID uuid.UUID) error
	ListEvents(ctx context.Context, userID uuid.UUID, timeMin, timeMax string) ([]dto.GoogleCalendarEvent, error)
}

type syncService struct {
	repo         repository.CalendarRepository
	oauth        OAuthService
	appointments AppointmentStore

	// Overridable in tests.
	apiBase    string
	httpClient *http.Client
}

func NewSyncService(repo repository.CalendarRepository, oauth OAuthService, appointments AppointmentStore) SyncService {
	return &syncService{
		repo:         repo,
		oauth:        oauth,
		appointments: appointments,
		apiBase:      googleCalendarAPIBase,
		httpClient:   &http.Client{Timeout: constants.DefaultTimeout},
	}
}

func (s *syncService) HasIntegration(ctx context.Context, userID uuid.UUID) (bool, error) {
	integration, err := s.repo.GetByUserAndProvider(ctx, userID, constants.ProviderGoogle)
	if err != nil {
		return false, err
	}
	return integration != nil, nil
}

// CreateEvent mirrors the appointment into the external calendar and records
// the returned event id on the appointment row.
func (s *syncService) CreateEvent(ctx context.Context, userID, appointmentID uuid.UUID, data *dto.EventData) (string, error) {
	token, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return "", err
	}

	payload := buildEventPayload(data)
	event, err := s.sendEvent(ctx, token, http.MethodPost, s.apiBase+"/calendars/primary/events", payload)
	if err != nil {
		return "", err
	}

	if appointmentID != uuid.Nil {
		if err := s.appointments.SetGoogleEventID(ctx, appointmentID, &event.ID); err != nil {
			logger.Error("CalendarSync:CreateEvent:StoreEventID:Error", "error", err, "appointment_id", appointmentID)
			return "", errors.NewAppError(errors.ErrInternalServer, "Failed to store calendar event id", err)
		}
	}

	logger.Info("CalendarSync:CreateEvent:Created", "user_id", userID, "appointment_id", appointmentID, "event_id", event.ID)
	return event.ID, nil
}

// UpdateEvent replaces the remote event's summary, description and time
// window. When the appointment was never mirrored, the update is promoted to
// a create so the external calendar catches up.
func (s *syncService) UpdateEvent(ctx context.Context, userID, appointmentID uuid.UUID, data *dto.EventData) (string, error) {
	eventID, err := s.appointments.GetGoogleEventID(ctx, appointmentID)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to load appointment", err)
	}

	if eventID == nil || *eventID == "" {
		// Fallback-create path
		return s.CreateEvent(ctx, userID, appointmentID, data)
	}

	token, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return "", err
	}

	payload := buildEventPayload(data)
	endpoint := s.apiBase + "/calendars/primary/events/" + url.PathEscape(*eventID)
	if _, err := s.sendEvent(ctx, token, http.MethodPut, endpoint, payload); err != nil {
		return "", err
	}

	logger.Info("CalendarSync:UpdateEvent:Updated", "user_id", userID, "appointment_id", appointmentID, "event_id", *eventID)
	return "", nil
}

// DeleteEvent removes the mirrored event. Appointments that were never
// mirrored, or whose event is already gone on the provider side, succeed
// without complaint.
func (s *syncService) DeleteEvent(ctx context.Context, userID, appointmentID uuid.UUID) error {
	eventID, err := s.appointments.GetGoogleEventID(ctx, appointmentID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load appointment", err)
	}
	if eventID == nil || *eventID == "" {
		return nil
	}

	token, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return err
	}

	endpoint := s.apiBase + "/calendars/primary/events/" + url.PathEscape(*eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to build provider request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Calendar API request failed: %v", err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// Already gone remotely, nothing left to do.
	default:
		body, _ := io.ReadAll(resp.Body)
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Calendar API returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := s.appointments.SetGoogleEventID(ctx, appointmentID, nil); err != nil {
		logger.Error("CalendarSync:DeleteEvent:ClearEventID:Error", "error", err, "appointment_id", appointmentID)
		return errors.NewAppError(errors.ErrInternalServer, "Failed to clear calendar event id", err)
	}

	logger.Info("CalendarSync:DeleteEvent:Deleted", "user_id", userID, "appointment_id", appointmentID, "event_id", *eventID)
	return nil
}

// ListEvents returns single-occurrence events in the requested window,
// ordered by start time. The window defaults to the next thirty days.
func (s *syncService) ListEvents(ctx context.Context, userID uuid.UUID, timeMin, timeMax string) ([]dto.GoogleCalendarEvent, error) {
	token, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	if timeMin == "" {
		timeMin = time.Now().Format(time.RFC3339)
	}
	if timeMax == "" {
		timeMax = time.Now().Add(defaultListWindow).Format(time.RFC3339)
	}

	params := url.Values{}
	params.Set("timeMin", timeMin)
	params.Set("timeMax", timeMax)
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")

	endpoint := s.apiBase + "/calendars/primary/events?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to build provider request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Calendar API request failed: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Calendar API returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	var listResp struct {
		Items []dto.GoogleCalendarEvent `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, errors.NewAppError(errors.ErrProvider, "Failed to decode calendar events", err)
	}
	return listResp.Items, nil
}

// ensureValidToken returns an access token safe to use for one provider
// operation, refreshing through the auth exchange when the stored one is at
// or past expiry.
func (s *syncService) ensureValidToken(ctx context.Context, userID uuid.UUID) (string, error) {
	integration, err := s.repo.GetByUserAndProvider(ctx, userID, constants.ProviderGoogle)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to load calendar integration", err)
	}
	if integration == nil {
		return "", errors.NewAppError(errors.ErrIntegrationMissing, "No calendar integration found for user", nil)
	}

	if time.Until(integration.TokenExpiresAt) > tokenExpirySkew {
		return integration.AccessToken, nil
	}

	token, err := s.oauth.RefreshToken(ctx, userID)
	if err != nil {
		logger.Warn("CalendarSync:EnsureValidToken:RefreshFailed", "error", err, "user_id", userID)
		return "", errors.NewAppError(errors.ErrTokenRefresh, "Failed to refresh calendar token", err)
	}
	return token, nil
}

func (s *syncService) sendEvent(ctx context.Context, token, method, endpoint string, payload map[string]any) (*dto.GoogleCalendarEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to encode event payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to build provider request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Calendar API request failed: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Calendar API returned %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var event dto.GoogleCalendarEvent
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return nil, errors.NewAppError(errors.ErrProvider, "Failed to decode calendar event response", err)
	}
	return &event, nil
}

// buildEventPayload shapes the provider event body. Appointments always get
// an email reminder one day out and a popup half an hour out.
func buildEventPayload(data *dto.EventData) map[string]any {
	tz := defaultTimeZone
	if cfg, ok := config.GetSafe(); ok && cfg.Calendar.TimeZone != "" {
		tz = cfg.Calendar.TimeZone
	}

	if data == nil {
		data = &dto.EventData{}
	}

	return map[string]any{
		"summary":     data.Title,
		"description": data.Description,
		"start": map[string]any{
			"dateTime": data.StartTime,
			"timeZone": tz,
		},
		"end": map[string]any{
			"dateTime": data.EndTime,
			"timeZone": tz,
		},
		"reminders": map[string]any{
			"useDefault": false,
			"overrides": []map[string]any{
				{"method": "email", "minutes": 1440},
				{"method": "popup", "minutes": 30},
			},
		},
	}
}
