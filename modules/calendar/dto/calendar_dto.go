package dto

import "time"

// Auth exchange actions
const (
	AuthActionGetAuthURL   = "getAuthUrl"
	AuthActionExchangeCode = "exchangeCode"
	AuthActionRefreshToken = "refreshToken"
)

// Sync actions
const (
	SyncActionCreate = "create"
	SyncActionUpdate = "update"
	SyncActionDelete = "delete"
	SyncActionList   = "list"
)

// GoogleAuthRequest is the action-dispatch body of POST /calendar/google-auth.
type GoogleAuthRequest struct {
	Action         string  `json:"action"`
	RedirectURI    string  `json:"redirectUri,omitempty"`
	Code           string  `json:"code,omitempty"`
	State          string  `json:"state,omitempty"`
	ProfessionalID *string `json:"professionalId,omitempty"`
}

// SyncRequest is the action-dispatch body of POST /calendar/sync.
type SyncRequest struct {
	Action        string     `json:"action"`
	AppointmentID string     `json:"appointmentId,omitempty"`
	EventData     *EventData `json:"eventData,omitempty"`
}

// EventData carries the appointment fields mirrored onto the calendar event.
// TimeMin/TimeMax are only meaningful for the list action.
type EventData struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	TimeMin     string `json:"timeMin,omitempty"`
	TimeMax     string `json:"timeMax,omitempty"`
}

// GoogleCalendarEvent is the subset of the provider's event resource the API
// exposes on the list path.
type GoogleCalendarEvent struct {
	ID          string              `json:"id"`
	Status      string              `json:"status,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	HTMLLink    string              `json:"htmlLink,omitempty"`
	Start       GoogleEventDateTime `json:"start"`
	End         GoogleEventDateTime `json:"end"`
}

type GoogleEventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// IntegrationResponse is the connection view exposed to the dashboard.
type IntegrationResponse struct {
	ID            string    `json:"id"`
	Provider      string    `json:"provider"`
	CalendarEmail string    `json:"calendar_email"`
	ExpiresAt     time.Time `json:"expires_at"`
	ConnectedAt   time.Time `json:"connected_at"`
}

type IntegrationListResponse struct {
	Integrations []IntegrationResponse `json:"integrations"`
}
